// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Editor implements the unbaked edit overlay and bake operation: edits
// accumulate in memory against an open Reader and are only materialized to
// disk on Commit, which rewrites the dir archive and writes every entry's
// payload, changed or not, into a freshly created patch side archive, as a
// single backup-rename-rollback transaction.

package vpk

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type editOperationKind int

const (
	editAdd editOperationKind = iota
	editReplace
	editRename
	editRemove
	editRemoveDir
)

// editOperation is one queued, not-yet-baked change against an Editor's
// base Reader.
type editOperation struct {
	kind    editOperationKind
	path    string
	newPath string // editRename target
	data    []byte // editAdd, editReplace
}

// Editor accumulates Add/Replace/Rename/Remove/RemoveDir operations
// against a base archive and materializes them with Commit ("bake").
type Editor struct {
	base *Reader
	ops  []editOperation
	opts PackOptions
}

// OpenEditor opens the dir archive at path for editing.
func OpenEditor(path string, opts PackOptions) (*Editor, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	opts = opts.applyDefaults()
	// Baked edits always land in the reserved patch archive: Commit never
	// overwrites the numbered side archives that the original Pack produced.
	opts.ArchiveIndex = PatchArchiveIndex
	return &Editor{base: r, opts: opts}, nil
}

// Add queues a new entry. It is an error for path to already exist in the
// base archive or in a prior queued operation; use Replace for that.
func (e *Editor) Add(path string, data []byte) error {
	clean, err := CleanEntryPath(path)
	if err != nil {
		return err
	}
	if _, statErr := e.base.Stat(clean); statErr == nil {
		return fmt.Errorf("%w: %q", ErrDuplicateEntryPath, clean)
	}
	for _, op := range e.ops {
		if op.kind == editAdd && op.path == clean {
			return fmt.Errorf("%w: %q", ErrDuplicateEntryPath, clean)
		}
	}
	e.ops = append(e.ops, editOperation{kind: editAdd, path: clean, data: data})
	return nil
}

// Replace queues new data for an existing entry.
func (e *Editor) Replace(path string, data []byte) error {
	clean, err := CleanEntryPath(path)
	if err != nil {
		return err
	}
	e.ops = append(e.ops, editOperation{kind: editReplace, path: clean, data: data})
	return nil
}

// Rename queues a path change for an existing entry.
func (e *Editor) Rename(oldPath, newPath string) error {
	oldClean, err := CleanEntryPath(oldPath)
	if err != nil {
		return err
	}
	newClean, err := CleanEntryPath(newPath)
	if err != nil {
		return err
	}
	e.ops = append(e.ops, editOperation{kind: editRename, path: oldClean, newPath: newClean})
	return nil
}

// Remove queues deletion of a single entry.
func (e *Editor) Remove(path string) error {
	clean, err := CleanEntryPath(path)
	if err != nil {
		return err
	}
	e.ops = append(e.ops, editOperation{kind: editRemove, path: clean})
	return nil
}

// RemoveDir queues deletion of every entry whose path lies under dir.
func (e *Editor) RemoveDir(dir string) error {
	clean, err := CleanEntryPath(dir)
	if err != nil {
		return err
	}
	e.ops = append(e.ops, editOperation{kind: editRemoveDir, path: clean})
	return nil
}

// buildEditPlan applies the queued operations, in order, over the base
// archive's entry set, returning the resulting build results ready for the
// packer's emission stage.
func (e *Editor) buildEditPlan() ([]buildResult, error) {
	byPath := make(map[string]buildResult)
	for _, entry := range e.base.Entries() {
		data, err := e.base.Read(entry.Path)
		if err != nil {
			return nil, err
		}
		br := buildResult{
			entryPath:   entry.Path,
			data:        data,
			crc:         entry.CRC32,
			preloadSize: uint16(len(entry.PreloadBytes)),
		}
		if len(entry.Chunks) > 0 {
			br.compress = entry.Chunks[0].IsCompressed()
			br.loadFlags = entry.Chunks[0].LoadFlags
			br.textureFlags = entry.Chunks[0].TextureFlags
		}
		byPath[entry.Path] = br
	}

	manifestByPath := manifestIndex(e.opts.Manifest)

	for _, op := range e.ops {
		switch op.kind {
		case editAdd, editReplace:
			m, hasManifest := manifestByPath[op.path]
			loadFlags, textureFlags, preloadSize := resolveEntrySettings(op.path, m, hasManifest)
			byPath[op.path] = buildResult{
				entryPath:    op.path,
				data:         op.data,
				crc:          crc32IEEE(op.data),
				compress:     shouldCompress(op.path, int64(len(op.data)), m, hasManifest, e.opts),
				preloadSize:  preloadSize,
				loadFlags:    loadFlags,
				textureFlags: textureFlags,
			}
		case editRename:
			br, ok := byPath[op.path]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrEntryNotFound, op.path)
			}
			delete(byPath, op.path)
			br.entryPath = op.newPath
			byPath[op.newPath] = br
		case editRemove:
			delete(byPath, op.path)
		case editRemoveDir:
			prefix := op.path + "/"
			for p := range byPath {
				if len(p) > len(prefix) && p[:len(prefix)] == prefix {
					delete(byPath, p)
				}
			}
		}
	}

	out := make([]buildResult, 0, len(byPath))
	for _, br := range byPath {
		out = append(out, br)
	}
	return out, nil
}

// Commit ("bake") applies every queued operation and rewrites the dir
// archive in place, with all entry data in the patch side archive (index
// PatchArchiveIndex, rolling forward past it if that archive fills up;
// the other numbered side archives are left as they are): it builds the new archive
// under a temporary name, validates it, then swaps it in over the
// original, keeping a ".bak" copy until the swap succeeds so a failure
// midway leaves the original archive untouched.
func (e *Editor) Commit(ctx context.Context) (PackResult, error) {
	built, err := e.buildEditPlan()
	if err != nil {
		return PackResult{}, err
	}

	outPath := e.base.dirPath
	tmpPath := strings.TrimSuffix(outPath, "_dir.vpk") + "_tmpedit_dir.vpk"

	result, err := emit(tmpPath, built, e.opts, false)
	if err != nil {
		os.Remove(tmpPath)
		for _, p := range result.SideArchivePaths {
			os.Remove(p)
		}
		return PackResult{}, err
	}

	if err := e.base.Close(); err != nil {
		return PackResult{}, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}

	finalSidePaths := make([]string, len(result.SideArchivePaths))
	for i := range result.SideArchivePaths {
		finalSidePaths[i], err = DeriveSideArchivePath(outPath, e.opts.ArchiveIndex+uint16(i))
		if err != nil {
			return PackResult{}, err
		}
	}

	backups, err := backupExisting(outPath, finalSidePaths)
	if err != nil {
		return PackResult{}, err
	}

	if err := swapInto(tmpPath, outPath, result.SideArchivePaths, finalSidePaths); err != nil {
		rollback(backups)
		return PackResult{}, err
	}

	removeBackups(backups)
	result.DirArchivePath = outPath
	result.SideArchivePaths = finalSidePaths
	return result, nil
}

// backupExisting renames every path that currently exists among dirPath and
// sidePaths to a ".bak" sibling, returning the (original, backup) pairs
// actually created so a failed swap can be rolled back.
func backupExisting(dirPath string, sidePaths []string) ([][2]string, error) {
	var backups [][2]string
	for _, p := range append([]string{dirPath}, sidePaths...) {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		bak := p + ".bak"
		if err := os.Rename(p, bak); err != nil {
			rollback(backups)
			return nil, fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
		}
		backups = append(backups, [2]string{p, bak})
	}
	return backups, nil
}

// swapInto renames the freshly built tmp dir archive and side archives into
// their final names.
func swapInto(tmpDirPath, finalDirPath string, tmpSidePaths, finalSidePaths []string) error {
	for i, tmpSide := range tmpSidePaths {
		if err := os.Rename(tmpSide, finalSidePaths[i]); err != nil {
			return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
		}
	}
	if err := os.Rename(tmpDirPath, finalDirPath); err != nil {
		return fmt.Errorf("%w: %w", ErrOpenArchivePart, err)
	}
	return nil
}

// rollback restores every (original, backup) pair recorded by
// backupExisting, undoing a partially completed swapInto.
func rollback(backups [][2]string) {
	for _, pair := range backups {
		os.Rename(pair[1], pair[0])
	}
}

// removeBackups deletes the ".bak" siblings left by a successful commit.
func removeBackups(backups [][2]string) {
	for _, pair := range backups {
		os.Remove(pair[1])
	}
}
