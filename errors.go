// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import "errors"

// Sentinel errors for Respawn VPK operations. Use errors.Is in callers.
var (
	// ErrInvalidHeader means the dir archive signature or version did not match.
	ErrInvalidHeader = errors.New("invalid dir archive: bad signature or version")
	// ErrUnexpectedEOF means a fixed-width read or cstr scan ran past the source bounds.
	ErrUnexpectedEOF = errors.New("unexpected end of archive data")
	// ErrCorruptTree means the directory tree violated the sentinel/terminator grammar.
	ErrCorruptTree = errors.New("corrupt directory tree")
	// ErrNilReader means the reader or source is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrClosed means the reader was already closed.
	ErrClosed = errors.New("reader already closed")
	// ErrEntryNotFound means no entry matched the requested path.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrArchivePartTooLarge means an archive part read request exceeded the size sanity limit.
	ErrArchivePartTooLarge = errors.New("archive part too large")
	// ErrEntryTooLarge means the entry's total logical size exceeded the size sanity limit.
	ErrEntryTooLarge = errors.New("entry too large")
	// ErrArchiveRangeOutOfBounds means a chunk's byte range did not fit within its side archive.
	ErrArchiveRangeOutOfBounds = errors.New("chunk range out of bounds")
	// ErrLZHAMUnsupported means a compressed chunk was encountered but LZHAM support was not compiled in.
	ErrLZHAMUnsupported = errors.New("this entry is LZHAM compressed, but built without LZHAM support")
	// ErrDecompressFailed means LZHAM decompression reported failure.
	ErrDecompressFailed = errors.New("failed to LZHAM decompress chunk")
	// ErrOpenArchivePart means a side archive file could not be opened or read.
	ErrOpenArchivePart = errors.New("failed to read archive part")
	// ErrInvalidOutputPath means the pack output path did not end with the required suffix.
	ErrInvalidOutputPath = errors.New("output path must end with _dir.vpk")
	// ErrEmptySourceDir means the packer found no regular files under the source directory.
	ErrEmptySourceDir = errors.New("source directory has no packable files")
	// ErrDuplicateEntryPath means two source files normalized to the same archive path.
	ErrDuplicateEntryPath = errors.New("duplicate entry path")
	// ErrInvalidEntryPath means an entry path was empty or escaped the archive root after normalization.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrBakeValidationFailed means the post-emission invariant-validation re-parse found a mismatch.
	ErrBakeValidationFailed = errors.New("bake validation failed")
	// ErrSizeOverflow means a computed size exceeded a field's representable range.
	ErrSizeOverflow = errors.New("size exceeds representable range")
	// ErrManifestNotFound means no manifest candidate file was readable.
	ErrManifestNotFound = errors.New("manifest not found")
)
