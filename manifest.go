// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Manifest bridge: derives find_manifest's stem/locale-fallback candidates
// from a dir archive path and translates between the on-disk BuildManifest
// KV1 tree (package vpk/manifest) and the in-memory ManifestEntry schema
// the packer consumes.

package vpk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ReGlitched/reVPKEdit/vpk/manifest"
)

// manifestDir returns the "manifest" subdirectory a dir archive's own
// manifest files live under.
func manifestDir(dirPath string) string {
	return filepath.Join(filepath.Dir(dirPath), "manifest")
}

// manifestStem derives a dir archive's manifest stem: its base filename
// with the "_dir.vpk" suffix removed.
func manifestStem(dirPath string) string {
	const suffix = "_dir.vpk"
	base := filepath.Base(dirPath)
	if SuffixEqualFold(base, suffix) {
		return base[:len(base)-len(suffix)]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// manifestStems lists, in find_manifest lookup order, the stem derived
// from dirPath and (only if different) the same stem with its locale
// prefix stripped.
func manifestStems(dirPath string) []string {
	stem := manifestStem(dirPath)
	stems := []string{stem}
	if stripped, changed := StripLocaleFilenamePrefix(stem); changed && stripped != stem {
		stems = append(stems, stripped)
	}
	return stems
}

// normalizeManifestPath replaces backslashes with slashes, collapses
// duplicate slashes, strips a leading "./", and lowercases -- used on both
// read and write so manifest lookups are symmetric regardless of which
// separator style produced the key.
func normalizeManifestPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.TrimPrefix(p, "./")
	return strings.ToLower(p)
}

// LoadManifestEntries loads and decodes the BuildManifest adjacent to
// dirArchivePath, if one exists. A missing manifest is not an error --
// the packer falls back to extension-inferred defaults for every entry --
// but a manifest that exists and fails to parse is.
func LoadManifestEntries(dirArchivePath string) ([]ManifestEntry, error) {
	root, _, err := manifest.FindManifest(manifestDir(dirArchivePath), manifestStems(dirArchivePath))
	if err != nil {
		if errors.Is(err, manifest.ErrManifestNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	nodes := manifest.EntryNodes(root)
	entries := make([]ManifestEntry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, ManifestEntry{
			Path:           normalizeManifestPath(n.Key),
			PreloadSize:    uint16(manifest.ParseInt64(manifestNodeValue(n, "preloadSize"))),
			LoadFlags:      LoadFlag(manifest.ParseInt64(manifestNodeValue(n, "loadFlags"))),
			TextureFlags:   TextureFlag(manifest.ParseInt64(manifestNodeValue(n, "textureFlags"))),
			UseCompression: manifest.ParseBool(manifestNodeValue(n, "useCompression")),
			DeDuplicate:    manifest.ParseBool(manifestNodeValue(n, "deDuplicate")),
		})
	}
	return entries, nil
}

// manifestNodeValue returns the value of node's direct child named key, or
// "" if absent.
func manifestNodeValue(node *manifest.Node, key string) string {
	if c := node.Get(key); c != nil {
		return c.Value
	}
	return ""
}

// refreshManifest rewrites the BuildManifest describing entries so a later
// incremental Pack run can rediscover this run's per-entry settings. It
// writes every stem find_manifest would try for outPath, so either lookup
// name resolves.
func refreshManifest(outPath string, entries []Entry) error {
	dir := manifestDir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	build := &manifest.Node{Key: manifest.RootBlockName}
	for _, e := range sorted {
		build.Children = append(build.Children, manifestEntryNode(e))
	}
	root := &manifest.Node{Children: []*manifest.Node{build}}

	for _, stem := range manifestStems(outPath) {
		path := filepath.Join(dir, stem+".txt")
		if err := writeManifestFile(path, root); err != nil {
			return err
		}
	}
	return nil
}

func writeManifestFile(path string, root *manifest.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}
	writeErr := manifest.Write(f, root)
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, closeErr)
	}
	return nil
}

// manifestEntryNode builds one BuildManifest entry node for e, deriving
// load_flags, texture_flags and use_compression from its first chunk (per
// spec §4.5's manifest-refresh rule) since those are stored per-chunk, not
// per-entry.
func manifestEntryNode(e Entry) *manifest.Node {
	var loadFlags LoadFlag
	var textureFlags TextureFlag
	var useCompression bool
	if len(e.Chunks) > 0 {
		c := e.Chunks[0]
		loadFlags = c.LoadFlags
		textureFlags = c.TextureFlags
		useCompression = c.CompressedLength != c.UncompressedLength
	}

	return &manifest.Node{
		Key: strings.ReplaceAll(e.Path, "/", `\`),
		Children: []*manifest.Node{
			{Key: "preloadSize", Value: strconv.Itoa(len(e.PreloadBytes))},
			{Key: "loadFlags", Value: strconv.FormatUint(uint64(loadFlags), 10)},
			{Key: "textureFlags", Value: strconv.FormatUint(uint64(textureFlags), 10)},
			{Key: "useCompression", Value: strconv.FormatBool(useCompression)},
			{Key: "deDuplicate", Value: "true"},
		},
	}
}
