// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Directory-tree codec: parses and emits the triple-nested
// extension -> directory -> filename string table that makes up the bulk of
// a Respawn VPK dir archive, generalized from a single-chunk layout to
// 64-bit multi-chunk file records.

package vpk

import (
	"fmt"
	"sort"
)

// dirHeader is the fixed-width preamble of a "*_dir.vpk" file, preceding the
// directory tree.
type dirHeader struct {
	Signature     uint32
	VersionMajor  uint16
	VersionMinor  uint16
	TreeLength    uint32
	FileDataStart uint32
}

// parseDirHeader reads and validates the fixed-width dir archive header.
func parseDirHeader(r *cursorReader) (dirHeader, error) {
	var h dirHeader

	sig, err := r.readU32LE()
	if err != nil {
		return h, err
	}
	if sig != dirSignature {
		return h, fmt.Errorf("%w: signature %#08x", ErrInvalidHeader, sig)
	}

	major, err := r.readU16LE()
	if err != nil {
		return h, err
	}
	minor, err := r.readU16LE()
	if err != nil {
		return h, err
	}
	if major != dirVersionMajor {
		return h, fmt.Errorf("%w: version %d.%d", ErrInvalidHeader, major, minor)
	}

	treeLen, err := r.readU32LE()
	if err != nil {
		return h, err
	}
	fileDataStart, err := r.readU32LE()
	if err != nil {
		return h, err
	}

	h.Signature = sig
	h.VersionMajor = major
	h.VersionMinor = minor
	h.TreeLength = treeLen
	h.FileDataStart = fileDataStart
	return h, nil
}

// writeDirHeader appends h to w.
func writeDirHeader(w *archiveWriter, h dirHeader) {
	w.writeU32LE(h.Signature)
	w.writeU16LE(h.VersionMajor)
	w.writeU16LE(h.VersionMinor)
	w.writeU32LE(h.TreeLength)
	w.writeU32LE(h.FileDataStart)
}

// parseDirTree reads the triple-nested ext/dir/filename table starting at
// the cursor's current position, stopping at the outer-level empty
// extension sentinel. strictTerminator controls whether a 0x0000 chunk
// terminator is rejected (true) or tolerated (false).
func parseDirTree(r *cursorReader, strictTerminator bool) ([]Entry, error) {
	var entries []Entry

	for {
		ext, err := r.readCStr()
		if err != nil {
			return nil, err
		}
		if ext == "" {
			break
		}
		if err := validateTreeString(ext); err != nil {
			return nil, err
		}

		for {
			dir, err := r.readCStr()
			if err != nil {
				return nil, err
			}
			if dir == "" {
				break
			}
			if err := validateTreeString(dir); err != nil {
				return nil, err
			}

			for {
				base, err := r.readCStr()
				if err != nil {
					return nil, err
				}
				if base == "" {
					break
				}
				if err := validateTreeString(base); err != nil {
					return nil, err
				}

				entry, err := parseFileRecord(r, ext, dir, base, strictTerminator)
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
			}
		}
	}

	return entries, nil
}

// validateTreeString rejects a tree string component that begins with a
// space but isn't exactly the single-space sentinel: any writer that only
// ever emits " " as a stand-in for an empty component should never produce
// a longer space-prefixed string, so seeing one means the tree is corrupt.
func validateTreeString(s string) error {
	if len(s) > 1 && s[0] == ' ' {
		return fmt.Errorf("%w: malformed sentinel component %q", ErrCorruptTree, s)
	}
	return nil
}

// parseFileRecord reads one file's CRC, preload bytes and chunk list,
// terminated by a chunk whose ArchiveIndex sentinel value signals
// end-of-list rather than a real chunk.
func parseFileRecord(r *cursorReader, ext, dir, base string, strictTerminator bool) (Entry, error) {
	crc, err := r.readU32LE()
	if err != nil {
		return Entry{}, err
	}

	preloadLen, err := r.readU16LE()
	if err != nil {
		return Entry{}, err
	}

	var chunks []Chunk
	for {
		archiveIndex, err := r.readU16LE()
		if err != nil {
			return Entry{}, err
		}
		if archiveIndex == chunkTerminatorStrict {
			break
		}
		if archiveIndex == chunkTerminatorLoose {
			if strictTerminator {
				return Entry{}, fmt.Errorf("%w: loose chunk terminator for %q", ErrCorruptTree, joinEntryPath(ext, dir, base))
			}
			break
		}

		loadFlags, err := r.readU16LE()
		if err != nil {
			return Entry{}, err
		}
		textureFlags, err := r.readU32LE()
		if err != nil {
			return Entry{}, err
		}
		offset, err := r.readU64LE()
		if err != nil {
			return Entry{}, err
		}
		compLen, err := r.readU64LE()
		if err != nil {
			return Entry{}, err
		}
		uncompLen, err := r.readU64LE()
		if err != nil {
			return Entry{}, err
		}

		if int64(compLen) > maxSaneSize || int64(uncompLen) > maxSaneSize {
			return Entry{}, fmt.Errorf("%w: chunk length for %q", ErrEntryTooLarge, joinEntryPath(ext, dir, base))
		}

		chunks = append(chunks, Chunk{
			ArchiveIndex:       archiveIndex,
			LoadFlags:          LoadFlag(loadFlags),
			TextureFlags:       TextureFlag(textureFlags),
			Offset:             offset,
			CompressedLength:   compLen,
			UncompressedLength: uncompLen,
		})
	}

	var preload []byte
	if preloadLen > 0 {
		preload, err = r.readExact(int(preloadLen))
		if err != nil {
			return Entry{}, err
		}
	}

	return Entry{
		Path:         joinEntryPath(ext, dir, base),
		CRC32:        crc,
		PreloadBytes: preload,
		Chunks:       chunks,
	}, nil
}

// emitDirTree writes the triple-nested ext/dir/filename table for entries,
// sorted by (extension, directory, filename) so that emission is
// deterministic regardless of input order.
func emitDirTree(w *archiveWriter, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	splits := make([]struct {
		ext, dir, base string
		entry          Entry
	}, len(sorted))
	for i, e := range sorted {
		ext, dir, base := splitEntryPath(e.Path)
		splits[i].ext, splits[i].dir, splits[i].base = ext, dir, base
		splits[i].entry = e
	}

	sort.Slice(splits, func(i, j int) bool {
		if splits[i].ext != splits[j].ext {
			return splits[i].ext < splits[j].ext
		}
		if splits[i].dir != splits[j].dir {
			return splits[i].dir < splits[j].dir
		}
		return splits[i].base < splits[j].base
	})

	var curExt, curDir string
	first := true
	for _, s := range splits {
		if first || s.ext != curExt {
			if !first {
				w.writeCStr("") // close previous dir group
				w.writeCStr("") // close previous ext group
			}
			w.writeCStr(s.ext)
			curExt = s.ext
			curDir = ""
			first = false
			w.writeCStr(s.dir)
			curDir = s.dir
		} else if s.dir != curDir {
			w.writeCStr("") // close previous dir group
			w.writeCStr(s.dir)
			curDir = s.dir
		}

		w.writeCStr(s.base)
		if err := writeFileRecord(w, s.entry); err != nil {
			return err
		}
	}

	if !first {
		w.writeCStr("") // close final dir group
		w.writeCStr("") // close final ext group
	}
	w.writeCStr("") // close outer ext table

	return nil
}

// writeFileRecord appends one file's CRC, preload bytes and chunk list,
// ending in the strict 0xFFFF terminator.
func writeFileRecord(w *archiveWriter, e Entry) error {
	if len(e.PreloadBytes) > 0xFFFF {
		return fmt.Errorf("%w: preload bytes for %q", ErrSizeOverflow, e.Path)
	}

	w.writeU32LE(e.CRC32)
	w.writeU16LE(uint16(len(e.PreloadBytes)))

	for _, c := range e.Chunks {
		if c.LoadFlags > 0xFFFF {
			return fmt.Errorf("%w: load_flags for %q exceeds 16 bits", ErrSizeOverflow, e.Path)
		}
		w.writeU16LE(c.ArchiveIndex)
		w.writeU16LE(uint16(c.LoadFlags))
		w.writeU32LE(uint32(c.TextureFlags))
		w.writeU64LE(c.Offset)
		w.writeU64LE(c.CompressedLength)
		w.writeU64LE(c.UncompressedLength)
	}
	w.writeU16LE(chunkTerminatorStrict)

	if len(e.PreloadBytes) > 0 {
		w.writeBytes(e.PreloadBytes)
	}

	return nil
}
