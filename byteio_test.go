// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import (
	"bytes"
	"errors"
	"testing"
)

func TestCursorReaderFixedWidthRoundTrip(t *testing.T) {
	t.Parallel()

	w := newArchiveWriter()
	w.writeU8(0x7A)
	w.writeU16LE(0xBEEF)
	w.writeU24LE(0x00ABCDEF) // only the low 24 bits are written
	w.writeU32LE(0xDEADBEEF)
	w.writeU64LE(0x0102030405060708)

	cr := newCursorReader(bytes.NewReader(w.Bytes()), int64(w.Len()))

	u8, err := cr.readU8()
	if err != nil || u8 != 0x7A {
		t.Fatalf("readU8 = %#x, %v; want 0x7a, nil", u8, err)
	}
	u16, err := cr.readU16LE()
	if err != nil || u16 != 0xBEEF {
		t.Fatalf("readU16LE = %#x, %v; want 0xbeef, nil", u16, err)
	}
	u24, err := cr.readU24LE()
	if err != nil || u24 != 0x00ABCDEF {
		t.Fatalf("readU24LE = %#x, %v; want 0xabcdef, nil", u24, err)
	}
	u32, err := cr.readU32LE()
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("readU32LE = %#x, %v; want 0xdeadbeef, nil", u32, err)
	}
	u64, err := cr.readU64LE()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("readU64LE = %#x, %v; want 0x0102030405060708, nil", u64, err)
	}
}

func TestCursorReaderReadExactRejectsShortRead(t *testing.T) {
	t.Parallel()

	cr := newCursorReader(bytes.NewReader([]byte{1, 2, 3}), 3)
	if _, err := cr.readExact(4); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("readExact past end: got %v, want ErrUnexpectedEOF", err)
	}
}

func TestCursorReaderReadCStrStopsAtNUL(t *testing.T) {
	t.Parallel()

	data := []byte("hello\x00world\x00")
	cr := newCursorReader(bytes.NewReader(data), int64(len(data)))

	s, err := cr.readCStr()
	if err != nil || s != "hello" {
		t.Fatalf("readCStr #1 = %q, %v; want \"hello\", nil", s, err)
	}
	if cr.tell() != 6 {
		t.Fatalf("cursor after first cstr = %d, want 6", cr.tell())
	}

	s, err = cr.readCStr()
	if err != nil || s != "world" {
		t.Fatalf("readCStr #2 = %q, %v; want \"world\", nil", s, err)
	}
}

func TestCursorReaderReadCStrSpansMultipleScanChunks(t *testing.T) {
	t.Parallel()

	long := bytes.Repeat([]byte{'a'}, cursorScanChunkSize*3+7)
	data := append(append([]byte{}, long...), 0)
	cr := newCursorReader(bytes.NewReader(data), int64(len(data)))

	s, err := cr.readCStr()
	if err != nil {
		t.Fatalf("readCStr: %v", err)
	}
	if s != string(long) {
		t.Errorf("readCStr returned %d bytes, want %d", len(s), len(long))
	}
}

func TestCursorReaderReadCStrRejectsUnterminated(t *testing.T) {
	t.Parallel()

	data := []byte("no terminator here")
	cr := newCursorReader(bytes.NewReader(data), int64(len(data)))
	if _, err := cr.readCStr(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("readCStr unterminated: got %v, want ErrUnexpectedEOF", err)
	}
}

func TestArchiveWriterWriteCStrAppendsSingleNUL(t *testing.T) {
	t.Parallel()

	w := newArchiveWriter()
	w.writeCStr("abc")
	want := []byte("abc\x00")
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("writeCStr = %v, want %v", w.Bytes(), want)
	}
}

func TestArchiveWriterWriteBytesAppendsVerbatim(t *testing.T) {
	t.Parallel()

	w := newArchiveWriter()
	w.writeU8(0xFF)
	w.writeBytes([]byte{1, 2, 3})
	want := []byte{0xFF, 1, 2, 3}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes() = %v, want %v", w.Bytes(), want)
	}
	if w.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", w.Len(), len(want))
	}
}
