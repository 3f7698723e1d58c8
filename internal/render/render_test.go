package render

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestRenderWorker(t *testing.T) {
	t.Parallel()

	r := New()
	out, err := r.RenderWorker(WorkerData{
		Generators: []Generator{
			{VirtualPath: "/gears.scad", Filename: "gears.html", Link: "gears.html", Label: "gears"},
		},
		Files: EncodeFiles(map[string][]byte{
			"/gears.scad":       []byte("gear();\n"),
			"/fonts/fonts.conf": []byte("<fontconfig/>"),
		}),
	})
	if err != nil {
		t.Fatalf("RenderWorker returned error: %v", err)
	}

	script := string(out)
	for _, want := range []string{
		"/gears.scad",
		"/fonts/fonts.conf",
		base64.StdEncoding.EncodeToString([]byte("gear();\n")),
		"importScripts",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("worker script missing %q", want)
		}
	}
}

func TestRenderWorkerIsDeterministic(t *testing.T) {
	t.Parallel()

	data := WorkerData{
		Generators: []Generator{{VirtualPath: "/a.scad", Filename: "a.html", Link: "a", Label: "a"}},
		Files: EncodeFiles(map[string][]byte{
			"/a.scad": []byte("cube(1);"),
			"/b.scad": []byte("cube(2);"),
			"/c.scad": []byte("cube(3);"),
		}),
	}

	r := New()
	first, err := r.RenderWorker(data)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.RenderWorker(data)
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatal("identical inputs rendered different worker scripts")
		}
	}
}

func TestRenderPage(t *testing.T) {
	t.Parallel()

	gen := Generator{VirtualPath: "/gears.scad", Filename: "gears.html", Link: "gears", Label: "gears"}
	other := Generator{VirtualPath: "/box.scad", Filename: "box.html", Link: "box", Label: "box"}

	r := New()
	out, err := r.RenderPage(PageData{
		Project:         Project{Name: "demo", URI: "https://example.com/", ExportPrefix: "demo"},
		Generator:       gen,
		Generators:      []Generator{gen, other},
		WorkerFile:      "worker.abc123def456.js",
		Metadata:        `{"parameters":[{"name":"teeth"}]}`,
		ParameterSets:   `[{"teeth":24}]`,
		DescriptionHTML: "<p>extra notes</p>",
	})
	if err != nil {
		t.Fatalf("RenderPage returned error: %v", err)
	}

	page := string(out)
	for _, want := range []string{
		"demo",
		"worker.abc123def456.js",
		`"teeth"`,
		"<p>extra notes</p>",
		// Navigation links to the sibling entry.
		`box`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRenderPageDefaults(t *testing.T) {
	t.Parallel()

	r := New()
	out, err := r.RenderPage(PageData{
		Generator:  Generator{VirtualPath: "/a.scad", Filename: "a.html", Link: "a.html", Label: "a"},
		Generators: []Generator{{VirtualPath: "/a.scad", Filename: "a.html", Link: "a.html", Label: "a"}},
		WorkerFile: "worker.000000000000.js",
	})
	if err != nil {
		t.Fatalf("RenderPage returned error: %v", err)
	}

	page := string(out)
	if !strings.Contains(page, "null") {
		t.Error("missing metadata did not default to null")
	}
}

func TestEncodeFiles(t *testing.T) {
	t.Parallel()

	vfs := map[string][]byte{
		"/a.scad":         []byte("cube(1);"),
		"/fonts/font.ttf": {0x00, 0x01, 0xff},
	}
	encoded := EncodeFiles(vfs)

	if len(encoded) != 2 {
		t.Fatalf("encoded %d files, want 2", len(encoded))
	}
	for vpath, data := range vfs {
		got, err := base64.StdEncoding.DecodeString(encoded[vpath])
		if err != nil {
			t.Fatalf("%s: invalid base64: %v", vpath, err)
		}
		if string(got) != string(data) {
			t.Errorf("%s: round-trip mismatch", vpath)
		}
	}
}

func TestHighlightSource(t *testing.T) {
	t.Parallel()

	out, err := HighlightSource("gears.scad", []byte("module gear() { cube(1); }\n"))
	if err != nil {
		t.Fatalf("HighlightSource returned error: %v", err)
	}
	if !strings.Contains(string(out), "gear") {
		t.Error("highlighted listing lost the source text")
	}
	if !strings.Contains(string(out), "<") {
		t.Error("highlighted listing contains no markup")
	}
}

func TestDescriptionHTML(t *testing.T) {
	t.Parallel()

	out, err := DescriptionHTML("# Title\n\nSome *emphasis* and a [link](https://example.com/).\n")
	if err != nil {
		t.Fatalf("DescriptionHTML returned error: %v", err)
	}

	html := string(out)
	for _, want := range []string{"<h1", "Title", "<em>emphasis</em>", `href="https://example.com/"`} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered description missing %q", html)
		}
	}
}
