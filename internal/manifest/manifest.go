// Package manifest parses and validates the build's input specification:
// either a single --scad path or a --scad-json multi-entry manifest. All
// shape validation happens here, before any filesystem or compiler work.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for manifest parsing.
var (
	ErrNoInput           = errors.New("no SCAD inputs provided")
	ErrMultipleScadPaths = errors.New("--scad must be a single path (use --scad-json for multiple)")
	ErrInvalidJSON       = errors.New("--scad-json is not valid JSON")
	ErrNotArray          = errors.New("--scad-json must be a JSON array")
	ErrNotObject         = errors.New("--scad-json entries must be objects")
	ErrMissingFile       = errors.New("--scad-json entries must have a 'file' key")
	ErrInvalidField      = errors.New("--scad-json entry field has the wrong type")
	ErrConflictingFields = errors.New("--scad-json entry sets both description-extra-html and description-extra-md")
	ErrIndirectionRead   = errors.New("failed to read @-referenced manifest file")
)

// Entry is one document in a build manifest. Paths are absolute after
// parsing.
type Entry struct {
	File                 string
	AdditionalParams     []string
	DescriptionExtraHTML string
	DescriptionExtraMD   string
}

// Parse builds the entry list from the CLI inputs. scadJSON wins over scad
// when both are set. Relative paths are absolutized against workspace
// (or the current directory when workspace is empty).
func Parse(scad, scadJSON, workspace string) ([]Entry, error) {
	if strings.TrimSpace(scadJSON) != "" {
		return parseJSON(scadJSON, workspace)
	}

	raw := strings.TrimSpace(scad)
	if raw == "" {
		return nil, ErrNoInput
	}
	if strings.Contains(raw, "\n") {
		return nil, ErrMultipleScadPaths
	}

	abs, err := toAbs(workspace, raw)
	if err != nil {
		return nil, err
	}
	return []Entry{{File: abs}}, nil
}

// parseJSON parses a multi-entry manifest, following one level of @path
// indirection.
func parseJSON(scadJSON, workspace string) ([]Entry, error) {
	raw := strings.TrimSpace(scadJSON)
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@")) // #nosec G304 -- user-provided manifest path
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndirectionRead, err)
		}
		raw = string(data)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		if !json.Valid([]byte(raw)) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return nil, ErrNotArray
	}

	entries := make([]Entry, 0, len(elements))
	for i, elem := range elements {
		entry, err := parseEntry(i, elem, workspace)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, ErrNoInput
	}
	return entries, nil
}

// rawEntry mirrors the manifest wire format.
type rawEntry struct {
	File                 *string   `json:"file"`
	AdditionalParams     []*string `json:"additional-params"`
	DescriptionExtraHTML *string   `json:"description-extra-html"`
	DescriptionExtraMD   *string   `json:"description-extra-md"`
}

func parseEntry(index int, elem json.RawMessage, workspace string) (Entry, error) {
	trimmed := strings.TrimSpace(string(elem))
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, fmt.Errorf("%w: element %d", ErrNotObject, index)
	}

	var re rawEntry
	if err := json.Unmarshal(elem, &re); err != nil {
		return Entry{}, fmt.Errorf("%w: element %d: %v", ErrInvalidField, index, err)
	}
	if re.File == nil || *re.File == "" {
		return Entry{}, fmt.Errorf("%w: element %d", ErrMissingFile, index)
	}
	if re.DescriptionExtraHTML != nil && re.DescriptionExtraMD != nil {
		return Entry{}, fmt.Errorf("%w: element %d", ErrConflictingFields, index)
	}

	file, err := toAbs(workspace, *re.File)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{File: file}
	for j, p := range re.AdditionalParams {
		if p == nil {
			return Entry{}, fmt.Errorf("%w: element %d: additional-params[%d] is null", ErrInvalidField, index, j)
		}
		abs, err := toAbs(workspace, *p)
		if err != nil {
			return Entry{}, err
		}
		entry.AdditionalParams = append(entry.AdditionalParams, abs)
	}
	if re.DescriptionExtraHTML != nil {
		entry.DescriptionExtraHTML = *re.DescriptionExtraHTML
	}
	if re.DescriptionExtraMD != nil {
		entry.DescriptionExtraMD = *re.DescriptionExtraMD
	}
	return entry, nil
}

// toAbs absolutizes p against workspace.
func toAbs(workspace, p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if workspace != "" {
		return filepath.Abs(filepath.Join(workspace, p))
	}
	return filepath.Abs(p)
}
