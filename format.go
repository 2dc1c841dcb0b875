// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Format identification and per-entry capability surface, ported from the
// original RespawnVPK::GUID / isRespawnVPKDirPath and
// getSupportedEntryAttributes.

package vpk

import "strings"

// FormatGUID is the format identifier the original tooling used to tag
// Respawn VPK archives across the asset pipeline.
const FormatGUID = "A4E78A4C4C3D41CDA8E58B7A7D8C0FE2"

// LooksLikeRespawnVPKPath reports whether path names a Respawn VPK dir
// archive by its filename convention, without opening or reading it.
func LooksLikeRespawnVPKPath(path string) bool {
	return SuffixEqualFold(path, "_dir.vpk")
}

// EntryAttribute is a bitmask of capabilities a given entry supports,
// mirroring the original getSupportedEntryAttributes surface exposed to
// the asset browser.
type EntryAttribute uint32

const (
	// AttributePreview means the entry's extension has a known in-tool
	// preview (currently: text-like and image-like extensions).
	AttributePreview EntryAttribute = 1 << iota
	// AttributeStreamed means at least one chunk is flagged for streaming.
	AttributeStreamed
	// AttributeCompressed means at least one chunk is LZHAM-compressed.
	AttributeCompressed
	// AttributeMultiChunk means the entry spans more than one chunk.
	AttributeMultiChunk
)

var previewableExtensions = map[string]bool{
	"txt": true, "vmt": true, "kv": true, "cfg": true, "rson": true,
	"png": true, "tga": true, "dds": true, "vtf": true,
}

// SupportedEntryAttributes computes the capability bitmask for an entry.
func SupportedEntryAttributes(e Entry) EntryAttribute {
	var attrs EntryAttribute

	if previewableExtensions[ExtensionLower(e.Path)] {
		attrs |= AttributePreview
	}
	if len(e.Chunks) > 1 {
		attrs |= AttributeMultiChunk
	}
	for _, c := range e.Chunks {
		if c.TextureFlags&TextureFlagStreamed != 0 {
			attrs |= AttributeStreamed
		}
		if c.IsCompressed() {
			attrs |= AttributeCompressed
		}
	}

	return attrs
}

// String renders the set bits of attrs as a comma-separated list, for logs
// and CLI output.
func (a EntryAttribute) String() string {
	var names []string
	if a&AttributePreview != 0 {
		names = append(names, "preview")
	}
	if a&AttributeStreamed != 0 {
		names = append(names, "streamed")
	}
	if a&AttributeCompressed != 0 {
		names = append(names, "compressed")
	}
	if a&AttributeMultiChunk != 0 {
		names = append(names, "multi-chunk")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}
