// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSimpleDocument(t *testing.T) {
	t.Parallel()

	doc := `
// top-level comment
"Files"
{
  "a/b.txt"
  {
    "Path" "a/b.txt"
    "PreloadSize" "128"
  }
}
`
	root, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	files := root.Get("Files")
	if files == nil {
		t.Fatal("missing Files block")
	}
	if len(files.Children) != 1 {
		t.Fatalf("Files has %d children, want 1", len(files.Children))
	}

	entry := files.Children[0]
	if entry.Key != "a/b.txt" {
		t.Errorf("entry key = %q, want %q", entry.Key, "a/b.txt")
	}
	path := entry.Get("Path")
	if path == nil || path.Value != "a/b.txt" {
		t.Errorf("Path leaf = %+v, want value %q", path, "a/b.txt")
	}
	if got := ParseInt64(entry.Get("PreloadSize").Value); got != 128 {
		t.Errorf("PreloadSize = %d, want 128", got)
	}
}

func TestParseBareAndQuotedTokensWithCommas(t *testing.T) {
	t.Parallel()

	doc := `Key1 Value1, Key2 "Value 2"`
	root, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(root.Children))
	}
	if root.Children[0].Value != "Value1" {
		t.Errorf("Key1 value = %q, want %q", root.Children[0].Value, "Value1")
	}
	if root.Children[1].Value != "Value 2" {
		t.Errorf("Key2 value = %q, want %q", root.Children[1].Value, "Value 2")
	}
}

func TestParseRejectsUnterminatedQuotedString(t *testing.T) {
	t.Parallel()

	if _, err := Parse(strings.NewReader(`Key "unterminated`)); err == nil {
		t.Error("expected a syntax error for an unterminated quoted string")
	}
}

func TestWriteThenParseRoundTrip(t *testing.T) {
	t.Parallel()

	root := &Node{
		Children: []*Node{
			{
				Key: RootBlockName,
				Children: []*Node{
					{
						Key: `materials\a\b.vmt`,
						Children: []*Node{
							{Key: "preloadSize", Value: "128"},
							{Key: "loadFlags", Value: "5"},
							{Key: "textureFlags", Value: "0"},
							{Key: "useCompression", Value: "true"},
							{Key: "deDuplicate", Value: "true"},
						},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, root); err != nil {
		t.Fatalf("Write: %v", err)
	}

	parsed, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse of written output: %v", err)
	}

	entries := EntryNodes(parsed)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Key != `materials\a\b.vmt` {
		t.Errorf("entry key = %q, want %q", entries[0].Key, `materials\a\b.vmt`)
	}
	if got := ParseInt64(entries[0].Get("preloadSize").Value); got != 128 {
		t.Errorf("preloadSize = %d, want 128", got)
	}
	if !ParseBool(entries[0].Get("useCompression").Value) {
		t.Error("useCompression = false, want true")
	}
}

func TestNormalizeManifestKey(t *testing.T) {
	t.Parallel()

	if got := NormalizeManifestKey("  PreloadSize  "); got != "preloadsize" {
		t.Errorf("NormalizeManifestKey = %q, want %q", got, "preloadsize")
	}
}

func TestParseInt64Malformed(t *testing.T) {
	t.Parallel()

	if got := ParseInt64("not-a-number"); got != 0 {
		t.Errorf("ParseInt64(malformed) = %d, want 0", got)
	}
}

func TestFindManifestNotFound(t *testing.T) {
	t.Parallel()

	if _, _, err := FindManifest(t.TempDir(), []string{"client_mp_rr_box.bsp.pak000"}); err == nil {
		t.Error("expected an error when no manifest candidate file exists")
	}
}

func TestFindManifestTriesStemsInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := writeFile(t, dir, "client_mp_rr_box.bsp.pak000.txt", fmt.Sprintf("%q\n{\n}\n", RootBlockName)); err != nil {
		t.Fatalf("writeFile: %v", err)
	}

	root, path, err := FindManifest(dir, []string{"englishclient_mp_rr_box.bsp.pak000", "client_mp_rr_box.bsp.pak000"})
	if err != nil {
		t.Fatalf("FindManifest: %v", err)
	}
	if root == nil {
		t.Fatal("FindManifest returned a nil root")
	}
	if want := filepath.Join(dir, "client_mp_rr_box.bsp.pak000.txt"); path != want {
		t.Errorf("FindManifest path = %q, want %q", path, want)
	}
}

func writeFile(t *testing.T, dir, name, contents string) error {
	t.Helper()
	return os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644)
}
