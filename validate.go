// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Invariant-validation pass: re-parses a freshly emitted dir archive and
// checks it against the in-memory entry set the packer just wrote,
// catching any encoder bug before the archive is considered built. Reuses
// the same directory-tree parser the Reader relies on, so the check
// exercises the exact code path a consumer will use.

package vpk

import (
	"fmt"
	"os"
)

// ValidateDirArchive re-parses the dir archive at path and confirms every
// entry in want is present with a matching CRC32 and total logical size.
// It returns ErrBakeValidationFailed wrapping the first mismatch found.
func ValidateDirArchive(path string, want []Entry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	cr := newCursorReader(f, fi.Size())
	header, err := parseDirHeader(cr)
	if err != nil {
		return err
	}

	treeEnd := cr.tell() + int64(header.TreeLength)
	treeReader := newCursorReader(f, treeEnd)
	treeReader.seekTo(cr.tell())

	got, err := parseDirTree(treeReader, true)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBakeValidationFailed, err)
	}

	gotByPath := make(map[string]Entry, len(got))
	for _, e := range got {
		gotByPath[e.Path] = e
	}

	for _, w := range want {
		g, ok := gotByPath[w.Path]
		if !ok {
			return fmt.Errorf("%w: %q missing from emitted tree", ErrBakeValidationFailed, w.Path)
		}
		if g.CRC32 != w.CRC32 {
			return fmt.Errorf("%w: %q crc mismatch (got %#x want %#x)", ErrBakeValidationFailed, w.Path, g.CRC32, w.CRC32)
		}
		if g.TotalUncompressedLength() != w.TotalUncompressedLength() {
			return fmt.Errorf("%w: %q size mismatch", ErrBakeValidationFailed, w.Path)
		}
	}

	if len(got) != len(want) {
		return fmt.Errorf("%w: emitted %d entries, expected %d", ErrBakeValidationFailed, len(got), len(want))
	}

	return nil
}
