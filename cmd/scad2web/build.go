package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	scad2web "github.com/scadworks/scad2web"
	"github.com/scadworks/scad2web/internal/config"
	"github.com/scadworks/scad2web/internal/fileutil"
	"github.com/scadworks/scad2web/internal/fonts"
	"github.com/scadworks/scad2web/internal/manifest"
	"github.com/scadworks/scad2web/internal/render"
)

// Sentinel errors for build command operations.
var (
	ErrWriteOutput = errors.New("failed to write output file")
)

// runtimeDirName is where the runtime distribution tree is copied,
// relative to the output directory. The worker script imports from it.
const runtimeDirName = "openscad-wasm"

// runBuild orchestrates a full build: config, manifest, pipeline, disk.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	flags, _, err := parseBuildFlags(args)
	if err != nil {
		return err
	}

	cfg := env.Config
	if flags.common.config != "" {
		cfg, err = config.LoadConfig(flags.common.config)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	mergeFlags(flags, cfg)
	cfg.ApplyEnv(env.Getenv)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// All manifest validation happens before any filesystem work.
	entries, err := manifest.Parse(flags.input.scad, flags.input.scadJSON, flags.input.workspace)
	if err != nil {
		return err
	}

	docs, err := buildDocuments(entries)
	if err != nil {
		return err
	}

	mode, err := fonts.ParseMode(cfg.Fonts.Source)
	if err != nil {
		return err
	}

	opts := []scad2web.Option{
		scad2web.WithWorkers(resolveWorkers(cfg.Workers)),
		scad2web.WithCleanURLs(cfg.Output.CleanURLs),
		scad2web.WithFontBundler(fonts.NewBundler(mode, cfg.Runtime.Dist)),
	}
	if flags.common.verbose {
		opts = append(opts, scad2web.WithTrace(env.Stderr))
	}
	svc := scad2web.New(opts...)

	start := env.Now()
	result, err := svc.Build(ctx, scad2web.BuildRequest{
		Documents: docs,
		Project: scad2web.Project{
			Name:         cfg.Project.Name,
			URI:          cfg.Project.URI,
			ExportPrefix: cfg.Project.ExportPrefix,
		},
	})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(env.Stderr, "warning: %s\n", w)
	}

	if err := writeResult(cfg.Output.Dir, result); err != nil {
		return err
	}

	if err := installRuntime(cfg.Runtime.Dist, cfg.Output.Dir, env); err != nil {
		return err
	}

	printBuildResult(result, cfg.Output.Dir, env.Now().Sub(start), flags.common, env)
	return nil
}

// buildDocuments converts manifest entries into build documents, rendering
// Markdown descriptions up front.
func buildDocuments(entries []manifest.Entry) ([]scad2web.Document, error) {
	docs := make([]scad2web.Document, len(entries))
	for i, e := range entries {
		desc := e.DescriptionExtraHTML
		if e.DescriptionExtraMD != "" {
			html, err := render.DescriptionHTML(e.DescriptionExtraMD)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.File, err)
			}
			desc = string(html)
		}
		docs[i] = scad2web.Document{
			Path:            e.File,
			ParamFiles:      e.AdditionalParams,
			DescriptionHTML: desc,
		}
	}
	return docs, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *buildFlags, cfg *config.Config) {
	if flags.project.name != "" {
		cfg.Project.Name = flags.project.name
	}
	if flags.project.uri != "" {
		cfg.Project.URI = flags.project.uri
	}
	if flags.project.exportPrefix != "" {
		cfg.Project.ExportPrefix = flags.project.exportPrefix
	}
	if flags.output != "" {
		cfg.Output.Dir = flags.output
	}
	if flags.runtimeDist != "" {
		cfg.Runtime.Dist = flags.runtimeDist
	}
	if flags.fontSource != "" {
		cfg.Fonts.Source = flags.fontSource
	}
	if flags.cleanURLs {
		cfg.Output.CleanURLs = true
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
}

// resolveWorkers determines how many compiler invocations run at once.
// Priority: explicit value > GOMAXPROCS-based calculation.
func resolveWorkers(configured int) int {
	if configured > 0 {
		return configured
	}

	// automaxprocs has already adjusted GOMAXPROCS for containers.
	n := runtime.GOMAXPROCS(0) / 2
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

// writeResult writes every produced artifact under the output directory.
func writeResult(outDir string, result *scad2web.BuildResult) error {
	if err := os.MkdirAll(outDir, fileutil.DirPermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	for name, data := range result.Files {
		path := filepath.Join(outDir, name)
		// #nosec G306 -- generated pages and scripts are meant to be readable
		if err := os.WriteFile(path, data, fileutil.FilePermissions); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
		}
	}
	return nil
}

// installRuntime copies the runtime distribution tree alongside the
// generated pages, replacing any previous copy.
func installRuntime(dist, outDir string, env *Environment) error {
	if dist == "" {
		fmt.Fprintln(env.Stderr, "warning: no --openscad-wasm distribution; the package will not run until one is placed at "+filepath.Join(outDir, runtimeDirName))
		return nil
	}

	target := filepath.Join(outDir, runtimeDirName)
	if fileutil.DirExists(dist) {
		if err := fileutil.ReplaceDir(dist, target); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}
	if strings.EqualFold(filepath.Ext(dist), ".zip") {
		if err := fileutil.ExtractZip(dist, target); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}
	return fmt.Errorf("%w: runtime distribution %s is neither a directory nor a .zip archive", ErrWriteOutput, dist)
}

// printBuildResult reports the produced artifacts.
func printBuildResult(result *scad2web.BuildResult, outDir string, elapsed time.Duration, common commonFlags, env *Environment) {
	if common.quiet {
		return
	}

	for _, spec := range result.Outputs {
		if common.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s\n", spec.VirtualPath, filepath.Join(outDir, spec.Filename))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", filepath.Join(outDir, spec.Filename))
		}
	}
	fmt.Fprintf(env.Stdout, "Created %s\n", filepath.Join(outDir, result.WorkerFile))

	if common.verbose {
		fmt.Fprintf(env.Stdout, "%d entries, %d bundled files in %v\n",
			len(result.Entries), len(result.VFS), elapsed.Round(time.Millisecond))
	}
}
