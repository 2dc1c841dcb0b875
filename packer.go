// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Packer: enumerate -> load manifest -> parallel per-file build -> sort
// (ext,dir,base) -> emit deduplicated side archive -> emit dir tree and
// header -> invariant-validate -> emit .cam sidecars -> refresh manifest.
//
// The sequential emission stages run on a single coordinator goroutine that
// owns the destination file throughout, while the parallel per-file build
// stage is a bounded worker pool built on golang.org/x/sync's errgroup
// rather than a hand-rolled channel and sync.WaitGroup pair.

package vpk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ReGlitched/reVPKEdit/vpk/lzham"
)

// buildResult is the outcome of building one source file into an Entry,
// produced by the parallel build stage and consumed by the sequential
// emission stage.
type buildResult struct {
	entryPath    string
	sourcePath   string
	data         []byte
	crc          uint32
	compress     bool
	preloadSize  uint16
	loadFlags    LoadFlag
	textureFlags TextureFlag
	camDraft     *CAMRecord
}

// Pack builds a new dir archive (and its numbered side archives) at
// outPath from every regular file under srcDir.
func Pack(ctx context.Context, srcDir, outPath string, opts PackOptions) (PackResult, error) {
	opts = opts.applyDefaults()

	if !SuffixEqualFold(outPath, "_dir.vpk") {
		return PackResult{}, fmt.Errorf("%w: %q", ErrInvalidOutputPath, outPath)
	}

	if opts.ArchiveIndex == 0 {
		opts.ArchiveIndex = InferArchiveIndexFromDirPath(outPath, 0)
	}

	if opts.Manifest == nil {
		loaded, err := LoadManifestEntries(outPath)
		if err != nil {
			return PackResult{}, err
		}
		opts.Manifest = loaded
	}

	sources, err := enumerateSourceFiles(srcDir)
	if err != nil {
		return PackResult{}, err
	}
	if len(sources) == 0 {
		return PackResult{}, ErrEmptySourceDir
	}

	built, err := buildAll(ctx, sources, opts)
	if err != nil {
		return PackResult{}, err
	}

	return emit(outPath, built, opts, true)
}

// sourceFile is one file discovered under the pack source directory.
type sourceFile struct {
	absPath   string
	entryPath string
}

// enumerateSourceFiles walks srcDir, normalizing every regular file's path
// relative to srcDir into an archive entry path.
func enumerateSourceFiles(srcDir string) ([]sourceFile, error) {
	var out []sourceFile

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		clean, err := CleanEntryPath(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		out = append(out, sourceFile{absPath: path, entryPath: clean})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	seen := make(map[string]bool, len(out))
	for _, s := range out {
		if seen[s.entryPath] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntryPath, s.entryPath)
		}
		seen[s.entryPath] = true
	}

	return out, nil
}

// buildAll reads and checksums every source file concurrently, bounded by
// opts.Workers (or GOMAXPROCS if unset).
func buildAll(ctx context.Context, sources []sourceFile, opts PackOptions) ([]buildResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]buildResult, len(sources))
	manifestByPath := manifestIndex(opts.Manifest)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			data, err := os.ReadFile(src.absPath)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
			}

			// A WAV entry's CAM draft must be built from the original header
			// before it's scrubbed: sample_count and the rest of the playback
			// fields come from bytes that won't survive the strip below.
			var camDraft *CAMRecord
			if ExtensionLower(src.entryPath) == "wav" {
				if rec, ok := BuildCAMRecord(data, 0, 0); ok {
					camDraft = &rec
					for j := 0; j < int(camHeaderSize) && j < len(data); j++ {
						data[j] = camStripByte
					}
				}
			}

			manifestEntry, hasManifest := manifestByPath[src.entryPath]
			loadFlags, textureFlags, preloadSize := resolveEntrySettings(src.entryPath, manifestEntry, hasManifest)

			results[i] = buildResult{
				entryPath:    src.entryPath,
				sourcePath:   src.absPath,
				data:         data,
				crc:          crc32IEEE(data),
				compress:     shouldCompress(src.entryPath, int64(len(data)), manifestEntry, hasManifest, opts),
				preloadSize:  preloadSize,
				loadFlags:    loadFlags,
				textureFlags: textureFlags,
				camDraft:     camDraft,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// manifestIndex builds a lookup table from a manifest's entries, keyed by
// normalized archive path.
func manifestIndex(entries []ManifestEntry) map[string]ManifestEntry {
	idx := make(map[string]ManifestEntry, len(entries))
	for _, e := range entries {
		idx[e.Path] = e
	}
	return idx
}

// resolveEntrySettings computes a file's load_flags, texture_flags and
// preload size: the manifest's values when present, otherwise the
// extension-inferred defaults: VISIBLE|CACHE (plus ACACHE_UNK0 for
// ".acache"), texture_flags 0 (or TextureFlagDefault for ".vtf"), and a
// zero preload size.
func resolveEntrySettings(entryPath string, m ManifestEntry, hasManifest bool) (LoadFlag, TextureFlag, uint16) {
	if hasManifest {
		return m.LoadFlags, m.TextureFlags, m.PreloadSize
	}

	loadFlags := LoadFlagVisible | LoadFlagCache
	var textureFlags TextureFlag

	switch ExtensionLower(entryPath) {
	case "acache":
		loadFlags |= LoadFlagACacheUnk0
	case "vtf":
		textureFlags = TextureFlagDefault
	}

	return loadFlags, textureFlags, 0
}

// shouldCompress reports whether a file of the given size and archive path
// is eligible for LZHAM compression. A manifest entry's use_compression
// flag, when present, replaces the size/extension heuristic entirely.
func shouldCompress(entryPath string, size int64, m ManifestEntry, hasManifest bool, opts PackOptions) bool {
	if hasManifest {
		return m.UseCompression
	}

	if size < opts.CompressMinSize {
		return false
	}
	switch ExtensionLower(entryPath) {
	case "wav", "vtf":
		return false
	}
	if len(opts.CompressExtensions) == 0 {
		return true
	}
	return opts.CompressExtensions[ExtensionLower(entryPath)]
}

// emit runs the single-coordinator sequential stages: sort, dedup-emit into
// side archives, write the dir tree and header, validate, and emit CAM
// sidecars. refreshManifestFile is false for an Editor.Commit bake, which
// writes to a temporary path that never keeps its own manifest.
func emit(outPath string, built []buildResult, opts PackOptions, refreshManifestFile bool) (PackResult, error) {
	sort.Slice(built, func(i, j int) bool {
		extI, dirI, baseI := splitEntryPath(built[i].entryPath)
		extJ, dirJ, baseJ := splitEntryPath(built[j].entryPath)
		if extI != extJ {
			return extI < extJ
		}
		if dirI != dirJ {
			return dirI < dirJ
		}
		return baseI < baseJ
	})

	dedup := newDedupTable()

	var (
		entries           []Entry
		sideArchivePaths  []string
		totalIn, totalOut int64
		dedupedChunks     int
		camByArchive      = make(map[uint16][]CAMRecord)
	)

	archiveIndex := opts.ArchiveIndex
	sideWriter, sidePath, err := openSideArchive(outPath, archiveIndex)
	if err != nil {
		return PackResult{}, err
	}
	sideArchivePaths = append(sideArchivePaths, sidePath)
	var sideOffset int64

	for _, b := range built {
		totalIn += int64(len(b.data))

		preload, rest := splitPreload(b.data, b.preloadSize)

		if len(rest) == 0 {
			entries = append(entries, Entry{
				Path:         b.entryPath,
				CRC32:        b.crc,
				PreloadBytes: preload,
			})
			continue
		}

		var chunks []Chunk

		for _, part := range splitIntoParts(rest, opts.MaxPartSize) {
			payload := part
			if b.compress {
				c, err := lzham.Compress(part)
				if err == nil && len(c) < len(part) {
					payload = c
				}
			}
			partCRC := crc32IEEE(payload)

			if existing, ok := dedup.find(payload, partCRC); ok {
				reused := existing
				reused.LoadFlags = b.loadFlags
				reused.TextureFlags = b.textureFlags
				chunks = append(chunks, reused)
				dedupedChunks++
				continue
			}

			if sideOffset+int64(len(payload)) > opts.MaxSideArchiveSize {
				if err := sideWriter.Close(); err != nil {
					return PackResult{}, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
				}
				archiveIndex++
				sideWriter, sidePath, err = openSideArchive(outPath, archiveIndex)
				if err != nil {
					return PackResult{}, err
				}
				sideArchivePaths = append(sideArchivePaths, sidePath)
				sideOffset = 0
			}

			if _, err := sideWriter.Write(payload); err != nil {
				return PackResult{}, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
			}

			chunk := Chunk{
				ArchiveIndex:       archiveIndex,
				LoadFlags:          b.loadFlags,
				TextureFlags:       b.textureFlags,
				Offset:             uint64(sideOffset),
				CompressedLength:   uint64(len(payload)),
				UncompressedLength: uint64(len(part)),
			}
			sideOffset += int64(len(payload))
			totalOut += int64(len(payload))

			dedup.insert(payload, partCRC, chunk)
			chunks = append(chunks, chunk)
		}

		entries = append(entries, Entry{
			Path:         b.entryPath,
			CRC32:        b.crc,
			PreloadBytes: preload,
			Chunks:       chunks,
		})
		attachCAMRecord(camByArchive, b.camDraft, chunks[0])
	}

	if err := sideWriter.Close(); err != nil {
		return PackResult{}, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	if err := writeDirArchive(outPath, entries); err != nil {
		return PackResult{}, err
	}

	if err := ValidateDirArchive(outPath, entries); err != nil {
		return PackResult{}, err
	}

	for idx, records := range camByArchive {
		sidePath, err := DeriveSideArchivePath(outPath, idx)
		if err != nil {
			return PackResult{}, err
		}
		if err := os.WriteFile(CAMPathFor(sidePath), EncodeCAMFile(records), 0o644); err != nil {
			return PackResult{}, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
		}
	}

	if refreshManifestFile {
		if err := refreshManifest(outPath, entries); err != nil {
			return PackResult{}, err
		}
	}

	return PackResult{
		DirArchivePath:   outPath,
		SideArchivePaths: sideArchivePaths,
		EntryCount:       len(entries),
		DedupedChunks:    dedupedChunks,
		TotalBytesIn:     totalIn,
		TotalBytesOut:    totalOut,
	}, nil
}

// splitPreload divides data into its inline preload prefix (stored directly
// in the directory tree) and the remainder (stored as side-archive chunk
// payload), clamping preloadSize to len(data).
func splitPreload(data []byte, preloadSize uint16) (preload, rest []byte) {
	n := int(preloadSize)
	if n > len(data) {
		n = len(data)
	}
	return data[:n], data[n:]
}

// splitIntoParts divides data into successive chunks of at most maxPartSize
// bytes each. data is assumed non-empty; a non-positive maxPartSize yields a
// single part covering all of data.
func splitIntoParts(data []byte, maxPartSize int64) [][]byte {
	if maxPartSize <= 0 || int64(len(data)) <= maxPartSize {
		return [][]byte{data}
	}

	var parts [][]byte
	for len(data) > 0 {
		n := int64(len(data))
		if n > maxPartSize {
			n = maxPartSize
		}
		parts = append(parts, data[:n])
		data = data[n:]
	}
	return parts
}

// attachCAMRecord finishes a WAV entry's CAM draft with the placement
// fields that are only known once its first chunk has actually been
// written -- the draft's header-derived fields (sample_count, channels,
// sample_rate) were already captured in buildAll before the header was
// scrubbed.
func attachCAMRecord(camByArchive map[uint16][]CAMRecord, draft *CAMRecord, chunk Chunk) {
	if draft == nil {
		return
	}

	rec := *draft
	rec.CompressedSize = uint32(chunk.CompressedLength)
	rec.VPKContentOffset = chunk.Offset
	camByArchive[chunk.ArchiveIndex] = append(camByArchive[chunk.ArchiveIndex], rec)
}

// openSideArchive creates (truncating) the numbered side archive file for
// archiveIndex next to outPath.
func openSideArchive(dirPath string, archiveIndex uint16) (*os.File, string, error) {
	sidePath, err := DeriveSideArchivePath(dirPath, archiveIndex)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Create(sidePath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}
	return f, sidePath, nil
}

// writeDirArchive writes the header and directory tree for entries to a
// freshly created dir archive at path.
func writeDirArchive(path string, entries []Entry) error {
	tree := newArchiveWriter()
	if err := emitDirTree(tree, entries); err != nil {
		return err
	}

	if tree.Len() > int(^uint32(0)) {
		return fmt.Errorf("%w: directory tree", ErrSizeOverflow)
	}

	out := newArchiveWriter()
	writeDirHeader(out, dirHeader{
		Signature:     dirSignature,
		VersionMajor:  dirVersionMajor,
		VersionMinor:  dirVersionMinor,
		TreeLength:    uint32(tree.Len()),
		FileDataStart: 0,
	})
	out.writeBytes(tree.Bytes())

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}
	defer f.Close()

	if _, err := f.Write(out.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	return nil
}
