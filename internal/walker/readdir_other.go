// readdir_other.go - extreme readdir stub for non-linux platforms
//
// (c) 2024- Jorn I. Viken <jornv@1337.no>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

//go:build !linux

package walker

import "fmt"

const extremeReaddirSupported = false

// DefaultDirentChunk is unused outside linux but kept so callers
// don't need a build-tagged reference just to read it.
const DefaultDirentChunk = 100_000

// readDirExtreme is unavailable on this platform; ErrExtremeUnsupported
// is returned so startup can reject -X before any work begins.
func readDirExtreme(path string, chunkEntries int) ([]dirEntry, error) {
	return nil, fmt.Errorf("walker: extreme readdir: %w", ErrExtremeUnsupported)
}
