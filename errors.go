package scad2web

import "errors"

// Sentinel errors for library operations.
var (
	ErrNoDocuments     = errors.New("no entry documents provided")
	ErrReadSource      = errors.New("failed to read source file")
	ErrInvalidEncoding = errors.New("source file is not valid UTF-8")
	ErrMetadataExtract = errors.New("parameter metadata extraction failed")
	ErrWorkerRender    = errors.New("worker script rendering failed")
	ErrPageRender      = errors.New("page rendering failed")

	// ErrOutputCollision indicates two entries mapped to the same output
	// filename. The planner's directory-preserving transform makes this
	// unlikely but not impossible (/a/b.scad vs /a-b.scad), so it is
	// detected and rejected rather than silently overwriting a page.
	ErrOutputCollision = errors.New("output filename collision")
)
