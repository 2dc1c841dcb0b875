// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import (
	"fmt"
	"path"
	"strings"
)

// CleanEntryPath normalizes a slash-separated archive path: it lowercases the
// path, converts backslashes to forward slashes, collapses "." and ".."
// segments, and strips any leading slash. It returns ErrInvalidEntryPath if
// the result is empty or still escapes the archive root.
func CleanEntryPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ToLower(p)
	p = strings.TrimPrefix(p, "/")

	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidEntryPath)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("%w: %q escapes archive root", ErrInvalidEntryPath, p)
	}

	return cleaned, nil
}

// splitEntryPath breaks a cleaned archive path into its extension,
// directory and base filename components, substituting sentinelComponent
// for any component that would otherwise be empty -- mirroring the on-disk
// directory-tree grammar.
func splitEntryPath(cleaned string) (ext, dir, base string) {
	slash := strings.LastIndexByte(cleaned, '/')
	var name string
	if slash < 0 {
		dir = sentinelComponent
		name = cleaned
	} else {
		dir = cleaned[:slash]
		name = cleaned[slash+1:]
	}

	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		ext = name[dot+1:]
		base = name[:dot]
	} else {
		ext = sentinelComponent
		base = name
	}

	if base == "" {
		base = sentinelComponent
	}
	if ext == "" {
		ext = sentinelComponent
	}

	return ext, dir, base
}

// joinEntryPath reassembles the extension/directory/filename components read
// from the directory tree into a single archive-relative path, undoing
// splitEntryPath's sentinel substitutions.
func joinEntryPath(ext, dir, base string) string {
	name := base
	if ext != sentinelComponent && ext != "" {
		name = base + "." + ext
	}
	if dir == sentinelComponent || dir == "" {
		return name
	}
	return dir + "/" + name
}

// localeFilenamePrefixes lists known language-locale filename prefixes the
// engine strips before falling back to the unlocalized asset when a
// localized variant is absent from the archive. "portugese" is the
// original's misspelling, preserved here to match on-disk filenames.
var localeFilenamePrefixes = []string{
	"english", "french", "german", "italian", "japanese", "korean",
	"polish", "portugese", "russian", "spanish", "tchinese", "schinese",
}

// StripLocaleFilenamePrefix removes a known locale prefix from an entry's
// base filename, returning the unlocalized name and true if one was
// present. Used by the reader's locale-retry lookup.
func StripLocaleFilenamePrefix(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, prefix := range localeFilenamePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return name[len(prefix):], true
		}
	}
	return name, false
}

// DeriveSideArchivePath builds the path to a numbered (or patch) side
// archive given the dir archive's own path and the desired archive index.
// dirPath must end in "_dir.vpk" (case-insensitive), or already be a
// numbered side archive path ("_DDD.vpk") whose three trailing digits are
// replaced with archiveIndex.
func DeriveSideArchivePath(dirPath string, archiveIndex uint16) (string, error) {
	const dirSuffix = "_dir.vpk"
	if SuffixEqualFold(dirPath, dirSuffix) {
		prefix := dirPath[:len(dirPath)-len(dirSuffix)]
		return fmt.Sprintf("%s_%03d.vpk", prefix, archiveIndex), nil
	}

	if prefix, ok := trimNumberedSuffix(dirPath); ok {
		return fmt.Sprintf("%s_%03d.vpk", prefix, archiveIndex), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidOutputPath, dirPath)
}

// trimNumberedSuffix reports whether path ends in "_DDD.vpk" (three ASCII
// digits, case-insensitive extension) and, if so, returns the prefix
// preceding the underscore.
func trimNumberedSuffix(p string) (string, bool) {
	const suffixLen = len("_000.vpk")
	if len(p) < suffixLen || !strings.EqualFold(p[len(p)-4:], ".vpk") || p[len(p)-8] != '_' {
		return "", false
	}
	digits := p[len(p)-7 : len(p)-4]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return p[:len(p)-8], true
}

// InferArchiveIndexFromDirPath extracts the digit triplet following the
// literal token "pak" (case-insensitive) in a dir archive filename, e.g.
// "client_mp_rr_box.bsp.pak003_dir.vpk" -> 3. Returns fallback if no such
// token is present.
func InferArchiveIndexFromDirPath(dirPath string, fallback uint16) uint16 {
	base := path.Base(strings.ReplaceAll(dirPath, "\\", "/"))
	lower := strings.ToLower(base)
	for i := 0; i+3 <= len(lower); i++ {
		if lower[i:i+3] != "pak" {
			continue
		}
		digits := lower[i+3:]
		if len(digits) < 3 {
			continue
		}
		var n uint16
		ok := true
		for _, r := range digits[:3] {
			if r < '0' || r > '9' {
				ok = false
				break
			}
			n = n*10 + uint16(r-'0')
		}
		if ok {
			return n
		}
	}
	return fallback
}

// SuffixEqualFold reports whether s ends with suffix, ignoring case.
func SuffixEqualFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// ExtensionLower returns the lowercase extension (without the leading dot)
// of a filesystem or archive path, or "" if there is none.
func ExtensionLower(p string) string {
	base := p
	if slash := strings.LastIndexByte(base, '/'); slash >= 0 {
		base = base[slash+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return ""
	}
	return strings.ToLower(base[dot+1:])
}
