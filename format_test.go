// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import "testing"

func TestLooksLikeRespawnVPKPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"client_mp_rr_box.bsp.pak000_dir.vpk", true},
		{"CLIENT_MP_RR_BOX.BSP.PAK000_DIR.VPK", true},
		{"client_mp_rr_box.bsp.pak000_000.vpk", false},
		{"readme.txt", false},
	}

	for _, tt := range tests {
		if got := LooksLikeRespawnVPKPath(tt.path); got != tt.want {
			t.Errorf("LooksLikeRespawnVPKPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSupportedEntryAttributes(t *testing.T) {
	t.Parallel()

	e := Entry{
		Path: "materials/dev/a.vtf",
		Chunks: []Chunk{
			{TextureFlags: TextureFlagStreamed, CompressedLength: 50, UncompressedLength: 100},
			{CompressedLength: 10, UncompressedLength: 10},
		},
	}

	attrs := SupportedEntryAttributes(e)
	if attrs&AttributePreview == 0 {
		t.Error("expected AttributePreview for a .vtf entry")
	}
	if attrs&AttributeStreamed == 0 {
		t.Error("expected AttributeStreamed when any chunk has TextureFlagStreamed")
	}
	if attrs&AttributeCompressed == 0 {
		t.Error("expected AttributeCompressed when any chunk is compressed")
	}
	if attrs&AttributeMultiChunk == 0 {
		t.Error("expected AttributeMultiChunk for a two-chunk entry")
	}

	str := attrs.String()
	if str == "" || str == "none" {
		t.Errorf("String() = %q, want a non-empty attribute list", str)
	}
}

func TestSupportedEntryAttributesNone(t *testing.T) {
	t.Parallel()

	e := Entry{Path: "a.bin", Chunks: []Chunk{{CompressedLength: 10, UncompressedLength: 10}}}
	if got := SupportedEntryAttributes(e).String(); got != "none" {
		t.Errorf("String() = %q, want %q", got, "none")
	}
}
