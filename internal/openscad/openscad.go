// Package openscad invokes the external OpenSCAD compiler to extract
// structured parameter metadata for a document, and loads additional
// parameter-set override files. The metadata itself is treated as opaque
// JSON; this package only enforces its outermost shape.
package openscad

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// DefaultBinary is the compiler executable looked up on PATH.
const DefaultBinary = "openscad"

// Sentinel errors for compiler operations.
var (
	ErrCompilerRun    = errors.New("openscad invocation failed")
	ErrMetadataShape  = errors.New("compiler metadata is not a JSON object")
	ErrParamFileRead  = errors.New("failed to read additional-params file")
	ErrParamFileShape = errors.New("additional-params file must be a JSON object with a 'parameters' array of objects")
)

// Runner abstracts command execution to enable testing without a real
// openscad binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Compiler extracts parameter metadata by exec'ing the OpenSCAD binary.
type Compiler struct {
	Binary string
	Runner Runner
}

// NewCompiler creates a Compiler using the openscad binary on PATH.
func NewCompiler() *Compiler {
	return &Compiler{Binary: DefaultBinary, Runner: &ExecRunner{}}
}

// ExportParams runs the compiler in parameter export mode and returns the
// emitted JSON object verbatim. The value is opaque to the rest of the
// build; only its object-ness is checked here.
func (c *Compiler) ExportParams(ctx context.Context, scadPath string) (json.RawMessage, error) {
	tmpFile, err := os.CreateTemp("", "scad2web-*.param.json")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	_, stderr, err := c.Runner.Run(ctx, c.Binary, "-o", tmpPath, "--export-format=param", scadPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %v", ErrCompilerRun, scadPath, bytes.TrimSpace(stderr), err)
	}

	data, err := os.ReadFile(tmpPath) // #nosec G304 -- path from os.CreateTemp above
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompilerRun, scadPath, err)
	}

	if !isJSONObject(data) {
		return nil, fmt.Errorf("%w: %s", ErrMetadataShape, scadPath)
	}
	return json.RawMessage(data), nil
}

// paramFile is the expected outer shape of an additional-params file.
type paramFile struct {
	Parameters *[]json.RawMessage `json:"parameters"`
}

// LoadParameterSets reads an additional-params override file. The file
// must contain a 'parameters' field holding a sequence of objects; any
// other shape is a fatal configuration error.
func LoadParameterSets(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParamFileRead, path, err)
	}

	var pf paramFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParamFileShape, path, err)
	}
	if pf.Parameters == nil {
		return nil, fmt.Errorf("%w: %s: missing 'parameters' field", ErrParamFileShape, path)
	}
	for i, p := range *pf.Parameters {
		if !isJSONObject(p) {
			return nil, fmt.Errorf("%w: %s: parameters[%d] is not an object", ErrParamFileShape, path, i)
		}
	}
	return *pf.Parameters, nil
}

// isJSONObject reports whether data is a valid JSON value whose outermost
// form is an object.
func isJSONObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
