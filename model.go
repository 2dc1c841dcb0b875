// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

// Format constants for the Respawn VPK dir archive header.
const (
	dirSignature      uint32 = 0x55AA1234
	dirVersionMajor   uint16 = 2
	dirVersionMinor   uint16 = 3
	sentinelComponent        = " " // used in place of an empty extension/directory/filename

	// chunkTerminatorStrict is written at the end of every file's chunk list.
	chunkTerminatorStrict uint16 = 0xFFFF
	// chunkTerminatorLoose is tolerated (but never written) on read, matching
	// archives produced by older or lenient packers.
	chunkTerminatorLoose uint16 = 0x0000

	// PatchArchiveIndex identifies the reserved side-archive index used for
	// post-ship patch chunks layered on top of the base numbered archives.
	PatchArchiveIndex uint16 = 999

	// maxSaneSize bounds each chunk's stored and logical length fields read
	// from the directory tree itself (chunk offsets are not checked against it), guarding against corrupt or adversarial headers
	// causing huge allocations before any other validation has run.
	maxSaneSize int64 = 1 << 40 // 1 TiB

	// maxEntryLogicalSize bounds a single entry's total logical (decoded)
	// size at read time.
	maxEntryLogicalSize int64 = 1 << 30 // 1 GiB
	// maxChunkStoredSize bounds a single chunk's stored (on-disk) size at
	// read time.
	maxChunkStoredSize int64 = 512 << 20 // 512 MiB
	// maxChunkLogicalSize bounds a single chunk's logical (decoded) size at
	// read time.
	maxChunkLogicalSize int64 = 512 << 20 // 512 MiB

	// lzhamDictSizeLog2 mirrors lzham.DictSizeLog2, the dictionary size
	// exponent of the original packer. lzham.Compress takes no dictionary
	// parameter, so this value is not passed anywhere.
	lzhamDictSizeLog2 = 20

	// lzhamMaxOutputBytes mirrors the 128 MiB ceiling of lzham.Compress's
	// buffer-doubling retry; lzham.Decompress does not retry.
	lzhamMaxOutputBytes = 128 << 20 // 128 MiB

	// camMagic identifies a CAM sidecar record.
	camMagic uint32 = 0xC4DE1A00
	// camHeaderSize is the canonical WAV header size baked into every
	// CAM record regardless of the source file's actual header layout.
	camHeaderSize uint32 = 44
	// camStripByte overwrites a WAV entry's first camHeaderSize stored bytes
	// once its CAM sidecar record has captured the header fields: the engine
	// reconstructs playback from the CAM record and the .cam-indexed side
	// archive offset, so the redundant header bytes in the entry itself are
	// scrubbed rather than stored twice.
	camStripByte byte = 0xCB
	// camRecordSize is the fixed on-disk size of one CAMRecord.
	camRecordSize = 4 + 4 + 4 + 3 + 1 + 4 + 4 + 8
)

// LoadFlag marks how an engine load stage should treat a file's data.
type LoadFlag uint32

// Known LoadFlag bit values. The high bits beyond these are preserved
// verbatim on round-trip even when this package assigns them no meaning.
const (
	LoadFlagVisible    LoadFlag = 1 << 0
	LoadFlagCache      LoadFlag = 1 << 8
	LoadFlagACacheUnk0 LoadFlag = 1 << 10
)

// TextureFlag marks texture-specific streaming behavior for a chunk.
type TextureFlag uint32

// Known TextureFlag bit values.
const (
	TextureFlagNone     TextureFlag = 0
	TextureFlagStreamed TextureFlag = 1 << 0
	// TextureFlagDefault is assigned to ".vtf" entries absent a manifest
	// override.
	TextureFlagDefault TextureFlag = 1 << 3
)

// Chunk describes one contiguous byte range of an entry's payload, stored in
// exactly one side archive. Inline data in the dir archive is carried by
// Entry.PreloadBytes, never by a Chunk.
type Chunk struct {
	// ArchiveIndex selects which numbered side archive (or PatchArchiveIndex)
	// holds this chunk's bytes.
	ArchiveIndex uint16
	// LoadFlags carries engine load-stage bits, stored on disk as 16 bits but
	// widened here for headroom with future archives.
	LoadFlags LoadFlag
	// TextureFlags carries texture-streaming bits.
	TextureFlags TextureFlag
	// Offset is the absolute byte offset of this chunk's payload within its
	// side archive.
	Offset uint64
	// CompressedLength is the number of bytes the chunk occupies on disk.
	CompressedLength uint64
	// UncompressedLength is the number of bytes the chunk expands to. Equal
	// to CompressedLength when the chunk is stored uncompressed.
	UncompressedLength uint64
}

// IsCompressed reports whether the chunk's payload is LZHAM-compressed.
func (c Chunk) IsCompressed() bool {
	return c.CompressedLength != c.UncompressedLength
}

// Entry is one file's full directory-tree record: its preload bytes plus the
// ordered list of chunks making up the remainder of its data.
type Entry struct {
	// Path is the normalized archive-relative path (forward slashes, no
	// leading slash, lowercase extension/directory/filename components as
	// stored in the tree).
	Path string
	// CRC32 is the IEEE 802.3 checksum of the entry's full uncompressed data.
	CRC32 uint32
	// PreloadBytes holds data embedded directly in the dir archive, read
	// ahead of any side-archive chunk.
	PreloadBytes []byte
	// Chunks is the ordered list of side-archive payload ranges following
	// the preload bytes.
	Chunks []Chunk
}

// TotalUncompressedLength returns the entry's full logical size: preload
// bytes plus every chunk's uncompressed length.
func (e Entry) TotalUncompressedLength() uint64 {
	total := uint64(len(e.PreloadBytes))
	for _, c := range e.Chunks {
		total += c.UncompressedLength
	}
	return total
}

// IsInlineOnly reports whether the entry's entire payload lives in the
// preload bytes with no side-archive chunks.
func (e Entry) IsInlineOnly() bool {
	return len(e.Chunks) == 0
}

// ManifestEntry is one BuildManifest entry: the per-path build settings
// that override the packer's extension-inferred defaults, keyed by
// normalized archive path.
type ManifestEntry struct {
	Path           string
	PreloadSize    uint16
	LoadFlags      LoadFlag
	TextureFlags   TextureFlag
	UseCompression bool
	DeDuplicate    bool
}

// CAMRecord is the 32-byte sidecar playback record accompanying a WAV
// entry, stored alongside the dir archive in a combined "<archive>.cam"
// file, one record per WAV entry in dir-tree emission order.
type CAMRecord struct {
	// OriginalSize is the WAV file's uncompressed byte size.
	OriginalSize uint32
	// CompressedSize is the WAV file's stored (possibly LZHAM-compressed)
	// byte size.
	CompressedSize uint32
	// SampleRate is the WAV's sample rate, a 24-bit quantity on disk.
	SampleRate uint32
	// Channels is the WAV's channel count.
	Channels uint8
	// SampleCount is the number of audio samples in the WAV's data chunk.
	SampleCount uint32
	// VPKContentOffset is the absolute offset of the entry's first chunk
	// within its side archive.
	VPKContentOffset uint64
}

// ReaderOptions configures Open and OpenWithOptions.
type ReaderOptions struct {
	// ArchiveDir overrides the directory side archives are resolved from. By
	// default side archives are looked up next to the dir archive.
	ArchiveDir string
	// StrictChunkTerminator rejects archives whose chunk lists end in the
	// loose 0x0000 terminator instead of silently tolerating it.
	StrictChunkTerminator bool
}

// applyDefaults returns o unchanged: no ReaderOptions field has a non-zero
// default.
func (o ReaderOptions) applyDefaults() ReaderOptions {
	return o
}

// PackOptions configures Pack and OpenEditor.
type PackOptions struct {
	// Workers bounds the number of goroutines used for the parallel
	// per-file build stage. Zero selects runtime.GOMAXPROCS(0).
	Workers int
	// CompressMinSize is the smallest file size eligible for LZHAM
	// compression; smaller files are always stored raw. The threshold is
	// compared against the whole file's size, not against each chunk's, so
	// the last, shorter chunk of an eligible file is still compressed.
	CompressMinSize int64
	// MaxPartSize bounds how large a single chunk's logical (uncompressed)
	// payload is allowed to be; larger files are split into multiple
	// chunks of at most this many bytes each.
	MaxPartSize int64
	// ArchiveIndex is the starting numbered side-archive index a fresh pack
	// writes into, rolling forward as MaxSideArchiveSize is reached.
	ArchiveIndex uint16
	// CompressExtensions, when non-empty, restricts compression to entries
	// whose extension appears in the set (case-insensitive, no leading dot).
	CompressExtensions map[string]bool
	// MaxSideArchiveSize bounds how large a single numbered side archive is
	// allowed to grow before the packer rolls over to the next index.
	MaxSideArchiveSize int64
	// Manifest, when non-nil, supplies per-path preload size, load flags,
	// texture flags and compression choice, overriding the
	// extension-inferred defaults for matching entries. When nil, Pack loads
	// the manifest found next to the output path, if any. The DeDuplicate
	// field of its entries is not consulted: deduplication is always on.
	Manifest []ManifestEntry
	// Deterministic is set to true by applyDefaults. No code reads it:
	// emission is always sorted by (extension, directory, filename)
	// regardless of its value.
	Deterministic bool
}

const defaultCompressMinSize = 4096 // 4 KiB, matches the reference packer's compression_threshold
const defaultMaxPartSize = 1 << 20 // 1 MiB, matches the reference packer's max_part_size
const defaultMaxSideArchiveSize = 1 << 30 // 1 GiB, matches shipped respawn archives

// applyDefaults returns o with zero-value fields replaced by their defaults.
func (o PackOptions) applyDefaults() PackOptions {
	if o.CompressMinSize == 0 {
		o.CompressMinSize = defaultCompressMinSize
	}
	if o.MaxPartSize == 0 {
		o.MaxPartSize = defaultMaxPartSize
	}
	if o.MaxSideArchiveSize == 0 {
		o.MaxSideArchiveSize = defaultMaxSideArchiveSize
	}
	o.Deterministic = true
	return o
}

// PackResult summarizes a completed pack operation.
type PackResult struct {
	DirArchivePath   string
	SideArchivePaths []string
	EntryCount       int
	DedupedChunks    int
	TotalBytesIn     int64
	TotalBytesOut    int64
}

// PackEntryProgress describes one file's build-stage outcome. Nothing in
// this package produces it; PackOptions has no progress callback.
type PackEntryProgress struct {
	Path  string
	Index int
	Total int
	Err   error
}
