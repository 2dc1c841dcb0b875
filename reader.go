// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ReGlitched/reVPKEdit/vpk/lzham"
)

// Reader provides random-access and streaming reads over a Respawn VPK
// archive split across a dir archive and zero or more numbered side
// archives, lazily opening side archives on first use.
type Reader struct {
	mu   sync.Mutex
	opts ReaderOptions

	dirPath string
	dir     *os.File
	header  dirHeader
	entries map[string]Entry

	archives map[uint16]*os.File

	lastErr error
	closed  bool
}

// Open opens the dir archive at path with default ReaderOptions.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens the dir archive at path, applying opts.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	opts = opts.applyDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	r := &Reader{
		opts:     opts,
		dirPath:  path,
		dir:      f,
		archives: make(map[uint16]*os.File),
	}

	if err := r.parse(); err != nil {
		f.Close()
		return nil, err
	}

	return r, nil
}

// parse reads the header and directory tree, populating r.entries.
func (r *Reader) parse() error {
	fi, err := r.dir.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	cr := newCursorReader(r.dir, fi.Size())

	header, err := parseDirHeader(cr)
	if err != nil {
		return err
	}
	r.header = header

	treeEnd := cr.tell() + int64(header.TreeLength)
	if treeEnd > fi.Size() {
		return fmt.Errorf("%w: tree length %d exceeds file size", ErrCorruptTree, header.TreeLength)
	}

	treeReader := newCursorReader(r.dir, treeEnd)
	treeReader.seekTo(cr.tell())

	entries, err := parseDirTree(treeReader, r.opts.StrictChunkTerminator)
	if err != nil {
		return err
	}

	r.entries = make(map[string]Entry, len(entries))
	for _, e := range entries {
		r.entries[e.Path] = e
	}

	return nil
}

// Entries returns every entry in the archive, sorted by path.
func (r *Reader) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Stat returns the entry for path without reading its data, trying the
// variant with the locale prefix stripped from the filename if the exact
// path is absent.
func (r *Reader) Stat(path string) (Entry, error) {
	clean, err := CleanEntryPath(path)
	if err != nil {
		return Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[clean]; ok {
		r.lastErr = nil
		return e, nil
	}

	if fallback, changed := localeFallbackPath(clean); changed {
		if e, ok := r.entries[fallback]; ok {
			r.lastErr = nil
			return e, nil
		}
	}

	err = fmt.Errorf("%w: %q", ErrEntryNotFound, path)
	r.lastErr = err
	return Entry{}, err
}

// localeFallbackPath strips a locale prefix from a cleaned path's final
// filename component, returning the retry path and whether one was applied.
func localeFallbackPath(cleaned string) (string, bool) {
	ext, dir, base := splitEntryPath(cleaned)
	stripped, ok := StripLocaleFilenamePrefix(base)
	if !ok {
		return cleaned, false
	}
	return joinEntryPath(ext, dir, stripped), true
}

// Read returns the full uncompressed contents of the entry at path.
func (r *Reader) Read(path string) ([]byte, error) {
	e, err := r.Stat(path)
	if err != nil {
		r.setLastError(err)
		return nil, err
	}

	total := e.TotalUncompressedLength()
	if int64(total) > maxEntryLogicalSize {
		err := fmt.Errorf("%w: %q", ErrEntryTooLarge, path)
		r.setLastError(err)
		return nil, err
	}

	out := make([]byte, 0, total)
	out = append(out, e.PreloadBytes...)

	for _, c := range e.Chunks {
		data, err := r.readChunk(c)
		if err != nil {
			r.setLastError(err)
			return nil, err
		}
		out = append(out, data...)
	}

	r.setLastError(nil)
	return out, nil
}

// readChunk fetches and, if necessary, decompresses one chunk's payload.
func (r *Reader) readChunk(c Chunk) ([]byte, error) {
	f, err := r.archiveFor(c.ArchiveIndex)
	if err != nil {
		return nil, err
	}

	if int64(c.CompressedLength) > maxChunkStoredSize || int64(c.UncompressedLength) > maxChunkLogicalSize {
		return nil, fmt.Errorf("%w", ErrArchivePartTooLarge)
	}

	raw := make([]byte, c.CompressedLength)
	if _, err := f.ReadAt(raw, int64(c.Offset)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveRangeOutOfBounds, err)
	}

	if !c.IsCompressed() {
		return raw, nil
	}

	out, err := lzham.Decompress(raw, int(c.UncompressedLength))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompressFailed, err)
	}
	return out, nil
}

// archiveFor returns (opening and caching if necessary) the *os.File for
// the numbered side archive holding chunks with the given archive index.
// Every index, including PatchArchiveIndex, resolves to a side archive
// file; chunk data is never read from the dir archive itself. If the
// derived side archive cannot be opened and the dir archive's filename
// carries a locale prefix, the side archive derived from the stripped name
// is tried instead.
func (r *Reader) archiveFor(archiveIndex uint16) (*os.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	if f, ok := r.archives[archiveIndex]; ok {
		return f, nil
	}

	archiveDir := r.opts.ArchiveDir
	if archiveDir == "" {
		archiveDir = filepath.Dir(r.dirPath)
	}

	sidePath, err := DeriveSideArchivePath(r.dirPath, archiveIndex)
	if err != nil {
		return nil, err
	}
	sidePath = filepath.Join(archiveDir, filepath.Base(sidePath))

	f, err := os.Open(sidePath)
	if err != nil {
		if strippedBase, changed := StripLocaleFilenamePrefix(filepath.Base(r.dirPath)); changed {
			fallbackDirPath := filepath.Join(filepath.Dir(r.dirPath), strippedBase)
			if fallbackSidePath, derr := DeriveSideArchivePath(fallbackDirPath, archiveIndex); derr == nil {
				fallbackSidePath = filepath.Join(archiveDir, filepath.Base(fallbackSidePath))
				if f2, err2 := os.Open(fallbackSidePath); err2 == nil {
					r.archives[archiveIndex] = f2
					return f2, nil
				}
			}
		}
		return nil, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	r.archives[archiveIndex] = f
	return f, nil
}

// ExtractTo writes every entry's decompressed contents under destDir,
// preserving the archive's directory structure. Extraction runs
// concurrently across a bounded worker pool.
func (r *Reader) ExtractTo(destDir string, workers int) error {
	entries := r.Entries()
	if workers <= 0 {
		workers = defaultExtractWorkers
	}

	jobs := make(chan Entry)
	errs := make(chan error, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				if err := r.extractOne(destDir, e); err != nil {
					errs <- err
				}
			}
		}()
	}

	for _, e := range entries {
		jobs <- e
	}
	close(jobs)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			r.setLastError(err)
			return err
		}
	}

	r.setLastError(nil)
	return nil
}

const defaultExtractWorkers = 8

// extractOne reads one entry and writes it to its destination path under
// destDir, creating parent directories as needed.
func (r *Reader) extractOne(destDir string, e Entry) error {
	data, err := r.Read(e.Path)
	if err != nil {
		return err
	}

	dest := filepath.Join(destDir, filepath.FromSlash(e.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	return nil
}

// setLastError records err as the reader's most recent failure (or clears
// it to nil after a successful call), readable via LastError without
// threading an extra return value through every call site.
func (r *Reader) setLastError(err error) {
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
}

// LastError returns the error recorded by the most recent Read, Stat or
// ExtractTo call, or nil if that call succeeded or none has been made yet.
func (r *Reader) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Close releases the dir archive and every lazily opened side archive.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	if err := r.dir.Close(); err != nil {
		firstErr = err
	}
	for _, f := range r.archives {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
