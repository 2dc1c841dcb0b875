// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// cursorScanChunkSize is the chunk size used when scanning for NUL terminators
// directly against an io.ReaderAt (no surrounding buffered reader available).
const cursorScanChunkSize = 256

// cursorReader is a little-endian, offset-tracked reader over a seekable
// random-access byte source. Every fixed-width read advances the cursor;
// a short read anywhere aborts the enclosing parse.
type cursorReader struct {
	ra  io.ReaderAt
	pos int64
	end int64
}

// newCursorReader wraps ra, bounding reads to [0, size).
func newCursorReader(ra io.ReaderAt, size int64) *cursorReader {
	return &cursorReader{ra: ra, end: size}
}

// seekTo repositions the cursor to an absolute offset.
func (c *cursorReader) seekTo(offset int64) {
	c.pos = offset
}

// tell returns the current absolute cursor offset.
func (c *cursorReader) tell() int64 {
	return c.pos
}

// readExact reads exactly n bytes at the current cursor and advances it.
func (c *cursorReader) readExact(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if c.pos < 0 || c.pos+int64(n) > c.end {
		return nil, fmt.Errorf("%w: short read at offset %d (want %d bytes)", ErrUnexpectedEOF, c.pos, n)
	}

	buf := make([]byte, n)
	if _, err := c.ra.ReadAt(buf, c.pos); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedEOF, err)
	}

	c.pos += int64(n)
	return buf, nil
}

// readU8 reads one byte.
func (c *cursorReader) readU8() (uint8, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readU16LE reads a little-endian uint16.
func (c *cursorReader) readU16LE() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// readU24LE reads a little-endian 24-bit unsigned integer widened to uint32.
// Used only by CAM record decoding; the dir-tree parser reads its
// terminators as empty cstrs.
func (c *cursorReader) readU24LE() (uint32, error) {
	b, err := c.readExact(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

// readU32LE reads a little-endian uint32.
func (c *cursorReader) readU32LE() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readU64LE reads a little-endian uint64.
func (c *cursorReader) readU64LE() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readCStr reads a NUL-terminated string starting at the cursor and advances
// past the terminator. Scans in fixed-size chunks to avoid one-byte ReadAt
// calls against large directory trees.
func (c *cursorReader) readCStr() (string, error) {
	if c.pos >= c.end {
		return "", fmt.Errorf("%w: cstr at offset %d", ErrUnexpectedEOF, c.pos)
	}

	var out []byte
	var chunk [cursorScanChunkSize]byte
	offset := c.pos

	for {
		remaining := c.end - offset
		if remaining <= 0 {
			return "", fmt.Errorf("%w: unterminated cstr at offset %d", ErrUnexpectedEOF, c.pos)
		}

		want := int64(len(chunk))
		if remaining < want {
			want = remaining
		}

		n, err := c.ra.ReadAt(chunk[:want], offset)
		if n > 0 {
			part := chunk[:n]
			if idx := bytes.IndexByte(part, 0); idx >= 0 {
				if len(out) == 0 {
					out = part[:idx]
				} else {
					out = append(out, part[:idx]...)
				}

				c.pos = offset + int64(idx) + 1
				return string(out), nil
			}

			out = append(out, part...)
			offset += int64(n)
		}

		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnexpectedEOF, err)
		}
		if n == 0 {
			return "", fmt.Errorf("%w: unterminated cstr at offset %d", ErrUnexpectedEOF, c.pos)
		}
	}
}

// archiveWriter is a growable little-endian byte sink used to build the
// directory tree and other in-memory archive sections before a single
// bulk write to the destination file.
type archiveWriter struct {
	buf bytes.Buffer
}

// newArchiveWriter returns an empty archiveWriter.
func newArchiveWriter() *archiveWriter {
	return &archiveWriter{}
}

// Len returns the number of bytes written so far.
func (w *archiveWriter) Len() int { return w.buf.Len() }

// Bytes returns the accumulated buffer without copying.
func (w *archiveWriter) Bytes() []byte { return w.buf.Bytes() }

// writeU8 appends one byte.
func (w *archiveWriter) writeU8(v uint8) {
	w.buf.WriteByte(v)
}

// writeU16LE appends a little-endian uint16.
func (w *archiveWriter) writeU16LE(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// writeU24LE appends a little-endian 24-bit unsigned integer (low 3 bytes of v).
func (w *archiveWriter) writeU24LE(v uint32) {
	w.buf.WriteByte(byte(v))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v >> 16))
}

// writeU32LE appends a little-endian uint32.
func (w *archiveWriter) writeU32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// writeU64LE appends a little-endian uint64.
func (w *archiveWriter) writeU64LE(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// writeCStr appends s followed by a single NUL terminator.
func (w *archiveWriter) writeCStr(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

// writeBytes appends raw bytes verbatim.
func (w *archiveWriter) writeBytes(b []byte) {
	w.buf.Write(b)
}
