package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindNewName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := filepath.Join(dir, "fw.pak.replaced")

	got, err := findNewName(base)
	if err != nil {
		t.Fatalf("findNewName: %v", err)
	}
	if got != base {
		t.Fatalf("got %q, want %q", got, base)
	}

	for _, name := range []string{base, base + ".001"} {
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	got, err = findNewName(base)
	if err != nil {
		t.Fatalf("findNewName: %v", err)
	}
	if got != base+".002" {
		t.Fatalf("got %q, want %q", got, base+".002")
	}
}

func TestMakeOutputNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "fw.pak")

	out, err := makeOutputFileName(file)
	if err != nil {
		t.Fatalf("makeOutputFileName: %v", err)
	}
	if out != file+".replaced" {
		t.Fatalf("got %q", out)
	}

	if err := os.Mkdir(file+".extracted", 0o750); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	out, err = makeOutputDirName(file)
	if err != nil {
		t.Fatalf("makeOutputDirName: %v", err)
	}
	if out != file+".extracted.001" {
		t.Fatalf("got %q", out)
	}
}
