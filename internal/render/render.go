// Package render produces the final artifacts of a build: one HTML page
// per entry document and the shared worker script that embeds the virtual
// filesystem. Templates are compiled into the binary.
package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

//go:embed templates/*
var templates embed.FS

// Sentinel errors for rendering operations.
var (
	ErrPageRender   = errors.New("page template rendering failed")
	ErrWorkerRender = errors.New("worker template rendering failed")
)

// Project identifies the project the generated pages belong to.
type Project struct {
	Name         string
	URI          string
	ExportPrefix string
}

// Generator is one selectable model on the generated pages.
type Generator struct {
	VirtualPath string
	Filename    string
	Link        string
	Label       string
}

// WorkerData feeds the worker script template. The worker embeds the
// complete virtual filesystem and the generator list, so its rendered
// bytes change whenever either changes; the content hash is derived from
// those bytes afterwards.
type WorkerData struct {
	Generators []Generator
	Files      map[string]string // virtual path -> base64 content
}

// PageData feeds one entry's HTML page template.
type PageData struct {
	Project         Project
	Generator       Generator
	Generators      []Generator
	WorkerFile      string
	Metadata        template.JS   // compiler parameter metadata, verbatim JSON
	ParameterSets   template.JS   // JSON array of additional parameter sets
	DescriptionHTML template.HTML // optional extra description markup
	SourceHTML      template.HTML // highlighted source listing
}

// Renderer renders pages and the worker script from embedded templates.
type Renderer struct {
	page   *template.Template
	worker *texttemplate.Template
}

// jsonify marshals a value into embeddable JavaScript, for template use.
func jsonify(v any) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil // #nosec G203 -- build-owned data, not user HTML
}

// New creates a Renderer from the embedded templates.
// Panics if a template cannot be parsed (programmer error).
func New() *Renderer {
	funcs := map[string]any{"json": jsonify}

	page, err := template.New("page.html.tmpl").Funcs(funcs).ParseFS(templates, "templates/page.html.tmpl")
	if err != nil {
		panic(fmt.Sprintf("render: parsing page template: %v", err))
	}
	worker, err := texttemplate.New("worker.js.tmpl").Funcs(funcs).ParseFS(templates, "templates/worker.js.tmpl")
	if err != nil {
		panic(fmt.Sprintf("render: parsing worker template: %v", err))
	}
	return &Renderer{page: page, worker: worker}
}

// RenderWorker renders the shared worker script.
func (r *Renderer) RenderWorker(d WorkerData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.worker.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerRender, err)
	}
	return buf.Bytes(), nil
}

// RenderPage renders one entry's HTML page.
func (r *Renderer) RenderPage(d PageData) ([]byte, error) {
	if d.Metadata == "" {
		d.Metadata = "null"
	}
	if d.ParameterSets == "" {
		d.ParameterSets = "[]"
	}
	var buf bytes.Buffer
	if err := r.page.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.Bytes(), nil
}

// EncodeFiles base64-encodes a virtual filesystem for embedding into the
// worker script.
func EncodeFiles(vfs map[string][]byte) map[string]string {
	encoded := make(map[string]string, len(vfs))
	for vpath, data := range vfs {
		encoded[vpath] = base64.StdEncoding.EncodeToString(data)
	}
	return encoded
}
