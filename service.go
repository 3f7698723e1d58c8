package scad2web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/scadworks/scad2web/internal/fonts"
	"github.com/scadworks/scad2web/internal/openscad"
	"github.com/scadworks/scad2web/internal/render"
)

// MetadataSource supplies compiler-produced parameter metadata for a
// document. The production implementation execs the openscad binary.
type MetadataSource interface {
	ExportParams(ctx context.Context, scadPath string) (json.RawMessage, error)
}

// Compile-time interface implementation check.
var _ MetadataSource = (*openscad.Compiler)(nil)

// FontBundler merges font assets into a virtual filesystem and reports
// degraded conditions as warnings.
type FontBundler interface {
	Bundle(vfs map[string][]byte) (warnings []string, err error)
}

var _ FontBundler = (*fonts.Bundler)(nil)

// artifactRenderer abstracts template rendering for tests.
type artifactRenderer interface {
	RenderWorker(render.WorkerData) ([]byte, error)
	RenderPage(render.PageData) ([]byte, error)
}

// paramLoader abstracts additional-params file loading for tests.
type paramLoader func(path string) ([]json.RawMessage, error)

// Service orchestrates the bundling pipeline.
type Service struct {
	cfg        serviceConfig
	metadata   MetadataSource
	bundler    FontBundler
	renderer   artifactRenderer
	loadParams paramLoader
}

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	workers   int
	cleanURLs bool
	trace     io.Writer
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets how many compiler invocations may run concurrently.
// Everything after metadata extraction stays sequential and deterministic.
// Panics if n < 1 (programmer error).
func WithWorkers(n int) Option {
	if n < 1 {
		panic("scad2web: WithWorkers count must be positive")
	}
	return func(s *Service) { s.cfg.workers = n }
}

// WithCleanURLs makes generated links omit the .html extension.
func WithCleanURLs(enabled bool) Option {
	return func(s *Service) { s.cfg.cleanURLs = enabled }
}

// WithTrace sets a writer that receives one line per discovered file.
func WithTrace(w io.Writer) Option {
	return func(s *Service) { s.cfg.trace = w }
}

// WithMetadataSource replaces the compiler collaborator.
func WithMetadataSource(m MetadataSource) Option {
	return func(s *Service) { s.metadata = m }
}

// WithFontBundler replaces the font bundler, e.g. to pin a font source.
func WithFontBundler(b FontBundler) Option {
	return func(s *Service) { s.bundler = b }
}

// New creates a Service with default collaborators: the openscad binary on
// PATH, auto font sourcing without a runtime distribution, and the
// embedded templates.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:        serviceConfig{workers: 1},
		metadata:   openscad.NewCompiler(),
		bundler:    fonts.NewBundler(fonts.ModeAuto, ""),
		renderer:   render.New(),
		loadParams: openscad.LoadParameterSets,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build runs the full pipeline and returns every produced artifact as
// bytes. Nothing is written to disk.
func (s *Service) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	entries, hostPaths, err := s.prepareEntries(req.Documents)
	if err != nil {
		return nil, err
	}

	root := CommonRoot(hostPaths)
	for i := range entries {
		entries[i].VirtualPath = Canonicalize(root, entries[i].HostPath)
	}

	if err := s.extractMetadata(ctx, entries); err != nil {
		return nil, err
	}

	resolver := &Resolver{Root: root, Trace: s.cfg.trace}
	vfs, err := resolver.Resolve(hostPaths)
	if err != nil {
		return nil, err
	}

	warnings, err := s.bundler.Bundle(vfs)
	if err != nil {
		return nil, err
	}

	vpaths := make([]string, len(entries))
	for i, e := range entries {
		vpaths[i] = e.VirtualPath
	}
	outputs, err := PlanOutputs(vpaths, s.cfg.cleanURLs)
	if err != nil {
		return nil, err
	}

	files, workerFile, err := s.renderArtifacts(req.Project, entries, outputs, vfs)
	if err != nil {
		return nil, err
	}

	return &BuildResult{
		Root:       root,
		Entries:    entries,
		Outputs:    outputs,
		VFS:        vfs,
		WorkerFile: workerFile,
		Files:      files,
		Warnings:   warnings,
	}, nil
}

// prepareEntries absolutizes document paths and loads their additional
// parameter sets. All input validation happens before any compiler run.
func (s *Service) prepareEntries(docs []Document) ([]Entry, []string, error) {
	if len(docs) == 0 {
		return nil, nil, ErrNoDocuments
	}

	entries := make([]Entry, len(docs))
	hostPaths := make([]string, len(docs))
	for i, doc := range docs {
		abs, err := absPath(doc.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrReadSource, doc.Path, err)
		}
		entries[i] = Entry{
			HostPath:        abs,
			DescriptionHTML: doc.DescriptionHTML,
		}
		hostPaths[i] = abs

		for _, pf := range doc.ParamFiles {
			sets, err := s.loadParams(pf)
			if err != nil {
				return nil, nil, err
			}
			entries[i].ParameterSets = append(entries[i].ParameterSets, sets...)
		}
	}
	return entries, hostPaths, nil
}

// extractMetadata invokes the compiler once per entry, up to cfg.workers
// invocations at a time.
func (s *Service) extractMetadata(ctx context.Context, entries []Entry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.workers)

	for i := range entries {
		g.Go(func() error {
			meta, err := s.metadata.ExportParams(gctx, entries[i].HostPath)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMetadataExtract, entries[i].HostPath, err)
			}
			entries[i].Metadata = meta
			return nil
		})
	}
	return g.Wait()
}

// renderArtifacts renders the worker script, names it after its content,
// and renders one page per entry referencing it.
func (s *Service) renderArtifacts(project Project, entries []Entry, outputs []OutputSpec, vfs VFS) (map[string][]byte, string, error) {
	generators := make([]render.Generator, len(outputs))
	for i, o := range outputs {
		generators[i] = render.Generator{
			VirtualPath: o.VirtualPath,
			Filename:    o.Filename,
			Link:        o.Link,
			Label:       o.Label,
		}
	}

	workerBytes, err := s.renderer.RenderWorker(render.WorkerData{
		Generators: generators,
		Files:      render.EncodeFiles(vfs),
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrWorkerRender, err)
	}
	workerFile := WorkerFilename(workerBytes)

	files := make(map[string][]byte, len(entries)+1)
	files[workerFile] = workerBytes

	renderProject := render.Project{
		Name:         project.Name,
		URI:          project.URI,
		ExportPrefix: project.ExportPrefix,
	}

	for i, e := range entries {
		sourceHTML, err := render.HighlightSource(path.Base(e.VirtualPath), vfs[e.VirtualPath])
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s: %v", ErrPageRender, e.VirtualPath, err)
		}

		paramSets, err := json.Marshal(paramSetsOrEmpty(e.ParameterSets))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s: %v", ErrPageRender, e.VirtualPath, err)
		}

		pageBytes, err := s.renderer.RenderPage(render.PageData{
			Project:         renderProject,
			Generator:       generators[i],
			Generators:      generators,
			WorkerFile:      workerFile,
			Metadata:        metadataJS(e.Metadata),
			ParameterSets:   jsRaw(paramSets),
			DescriptionHTML: htmlRaw(e.DescriptionHTML),
			SourceHTML:      sourceHTML,
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s: %v", ErrPageRender, e.VirtualPath, err)
		}
		files[outputs[i].Filename] = pageBytes
	}
	return files, workerFile, nil
}

func paramSetsOrEmpty(sets []json.RawMessage) []json.RawMessage {
	if sets == nil {
		return []json.RawMessage{}
	}
	return sets
}

func absPath(p string) (string, error) {
	return filepath.Abs(p)
}

// metadataJS embeds compiler metadata verbatim; a missing value becomes
// JavaScript null.
func metadataJS(m json.RawMessage) template.JS {
	if len(m) == 0 {
		return "null"
	}
	return template.JS(m) // #nosec G203 -- shape-checked compiler output
}

func jsRaw(b []byte) template.JS {
	return template.JS(b) // #nosec G203 -- marshalled by encoding/json above
}

func htmlRaw(s string) template.HTML {
	return template.HTML(s) // #nosec G203 -- manifest-supplied page markup by design
}
