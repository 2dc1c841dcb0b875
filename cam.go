// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// CAM sidecar codec: the 32-byte-per-record playback sidecar written
// alongside a dir archive as "<side_archive_path>.cam" for every WAV
// entry, one record per entry in dir-tree emission order, packed with the
// same fixed-width little-endian primitives as the directory tree.

package vpk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// waveHeaderPrerequisites reports whether data looks like a valid RIFF/WAVE
// file eligible for CAM emission: "RIFF" at offset 0, "WAVE" at offset 8,
// and non-zero channels (u16 LE at offset 22) and block_align (u16 LE at
// offset 32). Requires at least a full 44-byte canonical header so the
// declared data-chunk size at offset 40 can also be read.
func waveHeaderPrerequisites(data []byte) (channels, blockAlign uint16, ok bool) {
	if len(data) < 44 {
		return 0, 0, false
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return 0, 0, false
	}

	channels = binary.LittleEndian.Uint16(data[22:24])
	blockAlign = binary.LittleEndian.Uint16(data[32:34])
	if channels == 0 || blockAlign == 0 {
		return 0, 0, false
	}

	return channels, blockAlign, true
}

// BuildCAMRecord produces the CAM record for a WAV entry's original and
// stored (possibly compressed) payload, or returns ok=false if data fails
// the WAV header prerequisites, in which case no record should be emitted.
func BuildCAMRecord(originalData []byte, storedSize uint32, contentOffset uint64) (rec CAMRecord, ok bool) {
	channels, blockAlign, valid := waveHeaderPrerequisites(originalData)
	if !valid {
		return CAMRecord{}, false
	}

	sampleRate := binary.LittleEndian.Uint32(originalData[24:28])
	// The data chunk's own declared size at offset 40 is authoritative, not
	// however many bytes happen to trail the 44-byte header: padding or
	// additional chunks after "data" would otherwise skew sample_count.
	declaredDataLen := binary.LittleEndian.Uint32(originalData[40:44])
	sampleCount := declaredDataLen / uint32(blockAlign)

	return CAMRecord{
		OriginalSize:     uint32(len(originalData)),
		CompressedSize:   storedSize,
		SampleRate:       sampleRate,
		Channels:         uint8(channels),
		SampleCount:      sampleCount,
		VPKContentOffset: contentOffset,
	}, true
}

// EncodeCAM serializes rec as one 32-byte CAM record.
func EncodeCAM(rec CAMRecord) []byte {
	w := newArchiveWriter()
	w.writeU32LE(camMagic)
	w.writeU32LE(rec.OriginalSize)
	w.writeU32LE(rec.CompressedSize)
	w.writeU24LE(rec.SampleRate)
	w.writeU8(rec.Channels)
	w.writeU32LE(rec.SampleCount)
	w.writeU32LE(camHeaderSize)
	w.writeU64LE(rec.VPKContentOffset)
	return w.Bytes()
}

// EncodeCAMFile concatenates the encoded form of every record, in the
// order given, into one ".cam" file payload.
func EncodeCAMFile(records []CAMRecord) []byte {
	out := make([]byte, 0, len(records)*camRecordSize)
	for _, rec := range records {
		out = append(out, EncodeCAM(rec)...)
	}
	return out
}

// DecodeCAM parses one 32-byte CAM record starting at the beginning of
// data.
func DecodeCAM(data []byte) (CAMRecord, error) {
	if len(data) < camRecordSize {
		return CAMRecord{}, fmt.Errorf("%w: cam record truncated", ErrUnexpectedEOF)
	}

	r := newCursorReader(bytes.NewReader(data), int64(len(data)))

	magic, err := r.readU32LE()
	if err != nil {
		return CAMRecord{}, err
	}
	if magic != camMagic {
		return CAMRecord{}, fmt.Errorf("%w: bad cam magic", ErrInvalidHeader)
	}

	originalSize, err := r.readU32LE()
	if err != nil {
		return CAMRecord{}, err
	}
	compressedSize, err := r.readU32LE()
	if err != nil {
		return CAMRecord{}, err
	}
	sampleRate, err := r.readU24LE()
	if err != nil {
		return CAMRecord{}, err
	}
	channels, err := r.readU8()
	if err != nil {
		return CAMRecord{}, err
	}
	sampleCount, err := r.readU32LE()
	if err != nil {
		return CAMRecord{}, err
	}
	if _, err := r.readU32LE(); err != nil { // header_size, always 44
		return CAMRecord{}, err
	}
	vpkContentOffset, err := r.readU64LE()
	if err != nil {
		return CAMRecord{}, err
	}

	return CAMRecord{
		OriginalSize:     originalSize,
		CompressedSize:   compressedSize,
		SampleRate:       sampleRate,
		Channels:         channels,
		SampleCount:      sampleCount,
		VPKContentOffset: vpkContentOffset,
	}, nil
}

// DecodeCAMFile splits a ".cam" file payload into its individual records.
func DecodeCAMFile(data []byte) ([]CAMRecord, error) {
	if len(data)%camRecordSize != 0 {
		return nil, fmt.Errorf("%w: cam file length not a multiple of %d", ErrCorruptTree, camRecordSize)
	}

	records := make([]CAMRecord, 0, len(data)/camRecordSize)
	for off := 0; off < len(data); off += camRecordSize {
		rec, err := DecodeCAM(data[off : off+camRecordSize])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// CAMPathFor derives the ".cam" sidecar path for a side archive path.
func CAMPathFor(sideArchivePath string) string {
	return sideArchivePath + ".cam"
}
