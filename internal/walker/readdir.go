// readdir.go - portable directory enumeration
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

package walker

import (
	"io/fs"
	"os"
)

// dirEntry is a type-hinted directory entry. typeKnown is false when
// the underlying readdir implementation (or the host filesystem)
// could not supply a cheap type hint, meaning the caller must lstat
// the entry to learn its type.
type dirEntry struct {
	name      string
	typeKnown bool
	isDir     bool
	isSymlink bool
}

// readDirPortable enumerates a directory using the standard library,
// skipping "." and "..". It relies on os.DirEntry.Type(), which on
// most platforms is populated straight from the readdir() type hint;
// for entries whose type the kernel couldn't supply, the standard
// library performs its own lstat(2) to fill the type in. Only an
// entry whose type is fs.ModeIrregular is reported here as
// typeKnown == false.
func readDirPortable(path string) ([]dirEntry, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	des, err := fd.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	out := make([]dirEntry, 0, len(des))
	for _, de := range des {
		out = append(out, dirEntryFromOS(de))
	}
	return out, nil
}

func dirEntryFromOS(de os.DirEntry) dirEntry {
	m := de.Type()
	if m&fs.ModeIrregular != 0 {
		return dirEntry{name: de.Name(), typeKnown: false}
	}
	return dirEntry{
		name:      de.Name(),
		typeKnown: true,
		isDir:     m.IsDir(),
		isSymlink: m&fs.ModeSymlink != 0,
	}
}
