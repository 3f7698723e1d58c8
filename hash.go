package scad2web

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// contentHashLength is the number of hex characters kept from the digest.
// 48 bits is plenty to avoid accidental collisions between releases while
// keeping filenames short.
const contentHashLength = 12

// ContentAddress returns a short stable identifier for the given bytes:
// the SHA-256 digest truncated to 12 hex characters. Identical bytes
// always produce identical identifiers, which makes artifacts named by it
// safe to cache forever.
func ContentAddress(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:contentHashLength]
}

// WorkerFilename names the shared runtime worker script after its own
// rendered content. The hash is computed from the rendered bytes, not the
// inputs, since rendering is the last place content can change.
func WorkerFilename(rendered []byte) string {
	return fmt.Sprintf("worker.%s.js", ContentAddress(rendered))
}
