// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import (
	"encoding/binary"
	"testing"
)

// buildWAV constructs a minimal valid RIFF/WAVE byte slice with a 44-byte
// header followed by dataLen bytes of fill, matching the layout assumed by
// waveHeaderPrerequisites and BuildCAMRecord.
func buildWAV(sampleRate uint32, channels, blockAlign uint16, dataLen int, fill byte) []byte {
	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(buf[32:34], blockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	for i := 44; i < len(buf); i++ {
		buf[i] = fill
	}
	return buf
}

func TestBuildCAMRecord(t *testing.T) {
	t.Parallel()

	wav := buildWAV(22050, 1, 2, 4000, 0xCB)

	rec, ok := BuildCAMRecord(wav, 4096, 12345)
	if !ok {
		t.Fatal("BuildCAMRecord reported not ok for a valid WAV header")
	}

	if rec.OriginalSize != 4096 {
		t.Errorf("OriginalSize = %d, want 4096", rec.OriginalSize)
	}
	if rec.CompressedSize != 4096 {
		t.Errorf("CompressedSize = %d, want 4096", rec.CompressedSize)
	}
	if rec.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", rec.SampleRate)
	}
	if rec.Channels != 1 {
		t.Errorf("Channels = %d, want 1", rec.Channels)
	}
	if rec.SampleCount != 2000 {
		t.Errorf("SampleCount = %d, want 2000", rec.SampleCount)
	}
	if rec.VPKContentOffset != 12345 {
		t.Errorf("VPKContentOffset = %d, want 12345", rec.VPKContentOffset)
	}
}

func TestBuildCAMRecordUsesDeclaredDataChunkSize(t *testing.T) {
	t.Parallel()

	// The data chunk declares 4000 bytes at offset 40, but the buffer
	// actually trails off with 4100 bytes (an extra chunk or padding after
	// "data", which real WAV files do carry). sample_count must come from
	// the declared size, not from however many bytes happen to follow the
	// header.
	wav := buildWAV(22050, 1, 2, 4100, 0xCB)
	binary.LittleEndian.PutUint32(wav[40:44], 4000)

	rec, ok := BuildCAMRecord(wav, 4096, 0)
	if !ok {
		t.Fatal("BuildCAMRecord reported not ok for a valid WAV header")
	}
	if rec.SampleCount != 2000 {
		t.Errorf("SampleCount = %d, want 2000 (4000 declared bytes / block_align 2)", rec.SampleCount)
	}
}

func TestBuildCAMRecordRejectsNonWAV(t *testing.T) {
	t.Parallel()

	if _, ok := BuildCAMRecord([]byte("not a wav file"), 14, 0); ok {
		t.Error("BuildCAMRecord should reject data without a RIFF/WAVE header")
	}

	zeroChannels := buildWAV(22050, 0, 2, 100, 0)
	if _, ok := BuildCAMRecord(zeroChannels, 144, 0); ok {
		t.Error("BuildCAMRecord should reject a WAV header with zero channels")
	}
}

func TestEncodeDecodeCAM(t *testing.T) {
	t.Parallel()

	rec := CAMRecord{
		OriginalSize:     4096,
		CompressedSize:   2048,
		SampleRate:       48000,
		Channels:         2,
		SampleCount:      1000,
		VPKContentOffset: 0xABCD1234,
	}

	encoded := EncodeCAM(rec)
	if len(encoded) != camRecordSize {
		t.Fatalf("EncodeCAM produced %d bytes, want %d", len(encoded), camRecordSize)
	}

	if got := binary.LittleEndian.Uint32(encoded[0:4]); got != camMagic {
		t.Errorf("magic = %#x, want %#x", got, camMagic)
	}

	decoded, err := DecodeCAM(encoded)
	if err != nil {
		t.Fatalf("DecodeCAM: %v", err)
	}
	if decoded != rec {
		t.Errorf("DecodeCAM round-trip = %+v, want %+v", decoded, rec)
	}
}

func TestEncodeDecodeCAMFile(t *testing.T) {
	t.Parallel()

	records := []CAMRecord{
		{OriginalSize: 100, CompressedSize: 100, SampleRate: 44100, Channels: 2, SampleCount: 10, VPKContentOffset: 0},
		{OriginalSize: 200, CompressedSize: 150, SampleRate: 22050, Channels: 1, SampleCount: 40, VPKContentOffset: 100},
	}

	data := EncodeCAMFile(records)
	if len(data) != camRecordSize*len(records) {
		t.Fatalf("EncodeCAMFile produced %d bytes, want %d", len(data), camRecordSize*len(records))
	}

	decoded, err := DecodeCAMFile(data)
	if err != nil {
		t.Fatalf("DecodeCAMFile: %v", err)
	}
	if len(decoded) != len(records) {
		t.Fatalf("decoded %d records, want %d", len(decoded), len(records))
	}
	for i := range records {
		if decoded[i] != records[i] {
			t.Errorf("record %d = %+v, want %+v", i, decoded[i], records[i])
		}
	}
}

func TestDecodeCAMFileRejectsTruncatedLength(t *testing.T) {
	t.Parallel()

	if _, err := DecodeCAMFile(make([]byte, camRecordSize+1)); err == nil {
		t.Error("expected error for a length not a multiple of the record size")
	}
}

func TestDecodeCAMRejectsBadMagic(t *testing.T) {
	t.Parallel()

	rec := EncodeCAM(CAMRecord{})
	rec[0] ^= 0xFF
	if _, err := DecodeCAM(rec); err == nil {
		t.Error("expected error for a corrupted magic")
	}
}

func TestCAMPathFor(t *testing.T) {
	t.Parallel()

	got := CAMPathFor("/archives/foo_000.vpk")
	want := "/archives/foo_000.vpk.cam"
	if got != want {
		t.Errorf("CAMPathFor = %q, want %q", got, want)
	}
}
