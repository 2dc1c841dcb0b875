// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Package lzham bridges the Respawn VPK chunk codec to a real compression
// library. No maintained Go binding for LZHAM exists, so this bridge is
// backed by github.com/klauspost/compress/flate while preserving LZHAM's
// call contract: a buffer-doubling encode retry bounded at 128 MiB (the
// compressed size isn't known up front) and a decoder that fails outright
// once output exceeds the chunk's declared uncompressed length, matching
// the dict_size_log2=20 / DETERMINISTIC_PARSING configuration of the
// original bridge.
package lzham

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// DictSizeLog2 is the dictionary size exponent the original bridge always
// passed to LZHAM. Kept as an exported constant so callers can record it
// in archive metadata even though the substitute codec has no equivalent
// knob.
const DictSizeLog2 = 20

// maxOutputBytes bounds the buffer-doubling retry loop in Compress,
// matching the original bridge's OUTPUT_BUF_TOO_SMALL retry ceiling.
const maxOutputBytes = 128 << 20

// ErrOutputTooLarge is returned when a compress retry exhausts
// maxOutputBytes, or when a decompressed chunk exceeds its declared
// expected length, signaling a corrupt or adversarial length field.
var ErrOutputTooLarge = errors.New("lzham: output exceeds size ceiling")

// Compress encodes src with LZHAM's best-compression level and
// deterministic parsing, here mapped onto flate's best compression level.
// The compressed size isn't known until encoding finishes, so the encode
// runs into a progressively doubled output cap and retries from scratch if
// it overflows, bounded at maxOutputBytes -- mirroring the original
// bridge's OUTPUT_BUF_TOO_SMALL retry, here on the side that actually
// needs it.
func Compress(src []byte) ([]byte, error) {
	limit := len(src)
	if limit < 4096 {
		limit = 4096
	}

	for {
		out, err := compressOnce(src, limit)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, io.ErrShortBuffer) {
			return nil, err
		}
		if limit >= maxOutputBytes {
			return nil, ErrOutputTooLarge
		}
		limit *= 2
		if limit > maxOutputBytes {
			limit = maxOutputBytes
		}
	}
}

// compressOnce attempts a single encode pass into a buffer capped at
// capHint, reporting io.ErrShortBuffer if the encoded output would exceed
// it.
func compressOnce(src []byte, capHint int) ([]byte, error) {
	buf := boundedBuffer{limit: capHint}

	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("lzham: init encoder: %w", err)
	}

	if _, err := w.Write(src); err != nil {
		if errors.Is(err, io.ErrShortBuffer) {
			return nil, err
		}
		return nil, fmt.Errorf("lzham: encode: %w", err)
	}
	if err := w.Close(); err != nil {
		if errors.Is(err, io.ErrShortBuffer) {
			return nil, err
		}
		return nil, fmt.Errorf("lzham: finalize: %w", err)
	}

	return buf.Bytes(), nil
}

// boundedBuffer is a bytes.Buffer that reports io.ErrShortBuffer instead of
// growing past limit.
type boundedBuffer struct {
	bytes.Buffer
	limit int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if b.Len()+len(p) > b.limit {
		return 0, io.ErrShortBuffer
	}
	return b.Buffer.Write(p)
}

// Decompress expands src into at most expectedLen bytes. The
// dir tree already records each chunk's exact uncompressed length, so
// unlike Compress there is nothing to guess: a decoded stream longer than
// expectedLen can only mean a corrupt chunk, and Decompress fails outright
// rather than retrying with a larger buffer. A stream shorter than
// expectedLen is returned as decoded, without an error. A non-positive
// expectedLen is treated as 4096.
func Decompress(src []byte, expectedLen int) ([]byte, error) {
	if expectedLen <= 0 {
		expectedLen = 4096
	}

	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()

	limited := io.LimitReader(r, int64(expectedLen)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("lzham: decode: %w", err)
	}

	if len(out) > expectedLen {
		return nil, ErrOutputTooLarge
	}

	return out, nil
}
