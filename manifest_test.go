// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package vpk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestPackWritesAndReloadsManifestEntrySettings(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSourceFile(t, src, "scripts/vscripts/mp/foo.nut", []byte("print('hello')"))

	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "englishtest.bsp.pak000_dir.vpk")

	manifest := []ManifestEntry{
		{
			Path:           "scripts/vscripts/mp/foo.nut",
			PreloadSize:    4,
			LoadFlags:      LoadFlagVisible,
			TextureFlags:   7,
			UseCompression: false,
			DeDuplicate:    true,
		},
	}

	if _, err := Pack(context.Background(), src, outPath, PackOptions{Manifest: manifest}); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	manifestDir := filepath.Join(outDir, "manifest")
	for _, name := range []string{"englishtest.bsp.pak000.txt", "test.bsp.pak000.txt"} {
		if _, err := os.Stat(filepath.Join(manifestDir, name)); err != nil {
			t.Errorf("expected manifest file %q: %v", name, err)
		}
	}

	r, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entry, err := r.Stat("scripts/vscripts/mp/foo.nut")
	r.Close()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if len(entry.PreloadBytes) != 4 {
		t.Errorf("PreloadBytes length = %d, want 4", len(entry.PreloadBytes))
	}
	if len(entry.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(entry.Chunks))
	}
	if entry.Chunks[0].TextureFlags != 7 {
		t.Errorf("TextureFlags = %d, want 7", entry.Chunks[0].TextureFlags)
	}
	if entry.Chunks[0].IsCompressed() {
		t.Error("entry is compressed, want manifest's useCompression=false honored")
	}

	// Repack the same source without an explicit manifest: Pack must
	// rediscover scripts/vscripts/mp/foo.nut's settings from the manifest
	// file the first Pack call just wrote, not fall back to the
	// extension-inferred defaults (which would re-enable compression).
	if _, err := Pack(context.Background(), src, outPath, PackOptions{}); err != nil {
		t.Fatalf("second Pack: %v", err)
	}

	r, err = Open(outPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()

	entry, err = r.Stat("scripts/vscripts/mp/foo.nut")
	if err != nil {
		t.Fatalf("Stat after reload: %v", err)
	}
	if entry.Chunks[0].IsCompressed() {
		t.Error("entry compressed after manifest reload, want useCompression=false still honored")
	}
	if entry.Chunks[0].TextureFlags != 7 {
		t.Errorf("TextureFlags after reload = %d, want 7", entry.Chunks[0].TextureFlags)
	}
}

func TestManifestStemsStripsLocalePrefix(t *testing.T) {
	t.Parallel()

	stems := manifestStems(filepath.Join("x", "englishclient_mp_rr_box.bsp.pak000_dir.vpk"))
	if len(stems) != 2 {
		t.Fatalf("got %d stems, want 2: %v", len(stems), stems)
	}
	if stems[0] != "englishclient_mp_rr_box.bsp.pak000" {
		t.Errorf("stems[0] = %q, want the full locale-prefixed stem first", stems[0])
	}
	if stems[1] != "client_mp_rr_box.bsp.pak000" {
		t.Errorf("stems[1] = %q, want the locale-stripped stem second", stems[1])
	}
}

func TestManifestStemsNoLocalePrefix(t *testing.T) {
	t.Parallel()

	stems := manifestStems(filepath.Join("x", "client_mp_rr_box.bsp.pak000_dir.vpk"))
	if len(stems) != 1 {
		t.Errorf("got %d stems, want 1 when there is no locale prefix to strip: %v", len(stems), stems)
	}
}
