// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import "hash/crc32"

// crc32IEEE returns the IEEE 802.3 CRC32 checksum of data, matching the
// polynomial used throughout the dir archive and CAM sidecar formats. IEEE
// CRC32 is a stdlib one-liner, so no third-party checksum package is wired
// in for it.
func crc32IEEE(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// crc32Writer accumulates a running CRC32 across successive Write calls.
// The build and extraction paths do not use it; they checksum whole
// buffers with crc32IEEE.
type crc32Writer struct {
	table *crc32.Table
	sum   uint32
}

func newCRC32Writer() *crc32Writer {
	return &crc32Writer{table: crc32.IEEETable}
}

func (w *crc32Writer) Write(p []byte) (int, error) {
	w.sum = crc32.Update(w.sum, w.table, p)
	return len(p), nil
}

func (w *crc32Writer) Sum32() uint32 { return w.sum }
