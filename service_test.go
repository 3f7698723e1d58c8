package scad2web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// stubMetadata returns canned metadata and records concurrency.
type stubMetadata struct {
	meta    map[string]json.RawMessage // keyed by base filename
	err     error
	active  atomic.Int32
	maxSeen atomic.Int32

	mu    sync.Mutex
	calls []string
}

func (s *stubMetadata) ExportParams(_ context.Context, scadPath string) (json.RawMessage, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		max := s.maxSeen.Load()
		if n <= max || s.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, filepath.Base(scadPath))
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if m, ok := s.meta[filepath.Base(scadPath)]; ok {
		return m, nil
	}
	return json.RawMessage(`{"parameters":[]}`), nil
}

// stubBundler injects a fixed set of font entries plus warnings.
type stubBundler struct {
	files    map[string][]byte
	warnings []string
	err      error
}

func (s *stubBundler) Bundle(vfs map[string][]byte) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	for k, v := range s.files {
		vfs[k] = v
	}
	return s.warnings, nil
}

func newTestService(meta MetadataSource, bundler FontBundler, opts ...Option) *Service {
	all := append([]Option{
		WithMetadataSource(meta),
		WithFontBundler(bundler),
	}, opts...)
	return New(all...)
}

func TestServiceBuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"models/gears.scad": "include <lib/involute.scad>\ngear();\n",
		"models/box.scad":   "cube(10);\n",
		"models/lib/involute.scad": "module gear() {}\n",
	})

	meta := &stubMetadata{meta: map[string]json.RawMessage{
		"gears.scad": json.RawMessage(`{"parameters":[{"name":"teeth","initial":12}]}`),
	}}
	bundler := &stubBundler{
		files: map[string][]byte{
			"/fonts/fonts.conf":     []byte("<fontconfig/>"),
			"/fonts/DejaVuSans.ttf": []byte("fontbytes"),
		},
		warnings: []string{"falling back to host fonts"},
	}

	svc := newTestService(meta, bundler)
	result, err := svc.Build(context.Background(), BuildRequest{
		Documents: []Document{
			{Path: filepath.Join(dir, "models/gears.scad")},
			{Path: filepath.Join(dir, "models/box.scad"), DescriptionHTML: "<p>a box</p>"},
		},
		Project: Project{Name: "demo", URI: "https://example.com/", ExportPrefix: "demo"},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if want := filepath.Join(dir, "models"); result.Root != want {
		t.Errorf("Root = %q, want %q", result.Root, want)
	}

	// Entries keep request order and get canonical virtual paths.
	if got := result.Entries[0].VirtualPath; got != "/gears.scad" {
		t.Errorf("entry 0 virtual path = %q, want /gears.scad", got)
	}
	if got := result.Entries[1].VirtualPath; got != "/box.scad" {
		t.Errorf("entry 1 virtual path = %q, want /box.scad", got)
	}

	// The bundle holds the include graph plus the injected fonts.
	for _, vpath := range []string{
		"/gears.scad", "/box.scad", "/lib/involute.scad",
		"/fonts/fonts.conf", "/fonts/DejaVuSans.ttf",
	} {
		if _, ok := result.VFS[vpath]; !ok {
			t.Errorf("VFS missing %q", vpath)
		}
	}

	// One page per entry plus the content-addressed worker.
	if !strings.HasPrefix(result.WorkerFile, "worker.") || !strings.HasSuffix(result.WorkerFile, ".js") {
		t.Errorf("WorkerFile = %q, want worker.<hash>.js", result.WorkerFile)
	}
	for _, name := range []string{"gears.html", "box.html", result.WorkerFile} {
		if _, ok := result.Files[name]; !ok {
			t.Errorf("Files missing %q", name)
		}
	}
	if len(result.Files) != 3 {
		t.Errorf("got %d output files, want 3", len(result.Files))
	}

	// Metadata flows into the page verbatim.
	page := string(result.Files["gears.html"])
	if !strings.Contains(page, `"teeth"`) {
		t.Error("gears page does not embed its parameter metadata")
	}
	if !strings.Contains(string(result.Files["box.html"]), "<p>a box</p>") {
		t.Error("box page does not embed its description")
	}

	if len(result.Warnings) != 1 || result.Warnings[0] != "falling back to host fonts" {
		t.Errorf("Warnings = %v, want the bundler warning", result.Warnings)
	}
}

func TestServiceBuildWorkerIsContentAddressed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.scad": "cube(1);\n"})

	build := func() *BuildResult {
		svc := newTestService(&stubMetadata{}, &stubBundler{})
		result, err := svc.Build(context.Background(), BuildRequest{
			Documents: []Document{{Path: filepath.Join(dir, "a.scad")}},
		})
		if err != nil {
			t.Fatalf("Build returned error: %v", err)
		}
		return result
	}

	first := build()
	second := build()
	if first.WorkerFile != second.WorkerFile {
		t.Errorf("identical builds produced different worker names: %q vs %q", first.WorkerFile, second.WorkerFile)
	}
	if got := WorkerFilename(first.Files[first.WorkerFile]); got != first.WorkerFile {
		t.Errorf("worker name %q does not match its content address %q", first.WorkerFile, got)
	}
}

func TestServiceBuildBoundsCompilerConcurrency(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{}
	docs := make([]Document, 0, 8)
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("m%d.scad", i)
		files[name] = "cube(1);\n"
		docs = append(docs, Document{Path: filepath.Join(dir, name)})
	}
	writeFiles(t, dir, files)

	meta := &stubMetadata{}
	svc := newTestService(meta, &stubBundler{}, WithWorkers(2))
	if _, err := svc.Build(context.Background(), BuildRequest{Documents: docs}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(meta.calls) != 8 {
		t.Errorf("compiler invoked %d times, want 8", len(meta.calls))
	}
	if max := meta.maxSeen.Load(); max > 2 {
		t.Errorf("observed %d concurrent compiler invocations, limit is 2", max)
	}
}

func TestServiceBuildErrors(t *testing.T) {
	t.Parallel()

	t.Run("no documents", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(&stubMetadata{}, &stubBundler{})
		_, err := svc.Build(context.Background(), BuildRequest{})
		if !errors.Is(err, ErrNoDocuments) {
			t.Errorf("got error %v, want ErrNoDocuments", err)
		}
	})

	t.Run("compiler failure wraps ErrMetadataExtract", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"a.scad": "cube(1);\n"})

		svc := newTestService(&stubMetadata{err: errors.New("boom")}, &stubBundler{})
		_, err := svc.Build(context.Background(), BuildRequest{
			Documents: []Document{{Path: filepath.Join(dir, "a.scad")}},
		})
		if !errors.Is(err, ErrMetadataExtract) {
			t.Errorf("got error %v, want ErrMetadataExtract", err)
		}
	})

	t.Run("bundler failure aborts the build", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"a.scad": "cube(1);\n"})

		sentinel := errors.New("no fonts anywhere")
		svc := newTestService(&stubMetadata{}, &stubBundler{err: sentinel})
		_, err := svc.Build(context.Background(), BuildRequest{
			Documents: []Document{{Path: filepath.Join(dir, "a.scad")}},
		})
		if !errors.Is(err, sentinel) {
			t.Errorf("got error %v, want the bundler error", err)
		}
	})

	t.Run("output collision is fatal", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"a/b.scad": "cube(1);\n",
			"a-b.scad": "cube(2);\n",
		})

		svc := newTestService(&stubMetadata{}, &stubBundler{})
		_, err := svc.Build(context.Background(), BuildRequest{
			Documents: []Document{
				{Path: filepath.Join(dir, "a/b.scad")},
				{Path: filepath.Join(dir, "a-b.scad")},
			},
		})
		if !errors.Is(err, ErrOutputCollision) {
			t.Errorf("got error %v, want ErrOutputCollision", err)
		}
	})
}

func TestWithWorkersPanicsOnZero(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithWorkers(0) did not panic")
		}
	}()
	WithWorkers(0)
}
