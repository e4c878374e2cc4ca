package pak

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEditorCommit_ReplaceTwoSections(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pakPath := filepath.Join(dir, "fw.pak")
	original := buildPAK(t, VariantPAK64, threeSections())
	if err := os.WriteFile(pakPath, original, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	kernel := patternPayload(33, 5)
	rootfs := patternPayload(7, 11)
	kernelPath := filepath.Join(dir, "kernel.bin")
	rootfsPath := filepath.Join(dir, "rootfs.bin")
	if err := os.WriteFile(kernelPath, kernel, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(rootfsPath, rootfs, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	editor, err := OpenEditor(pakPath, EditOptions{BackupKeep: 1})
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	if err := editor.Replace(2, rootfsPath); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := editor.Replace(1, kernelPath); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := editor.Staged(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("staged=%v", got)
	}

	if _, err := editor.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	secs := threeSections()
	secs[1].payload = kernel
	secs[2].payload = rootfs
	got, err := os.ReadFile(pakPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, buildPAK(t, VariantPAK64, secs)) {
		t.Fatal("committed PAK differs from freshly built container")
	}

	backup, err := os.ReadFile(pakPath + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Fatal("backup differs from original")
	}
}

func TestEditorCommit_RemovesBackupByDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pakPath := filepath.Join(dir, "fw.pak")
	if err := os.WriteFile(pakPath, buildPAK(t, VariantPAK32, threeSections()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	replPath := filepath.Join(dir, "uboot.bin")
	if err := os.WriteFile(replPath, []byte("new-uboot"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	editor, err := OpenEditor(pakPath, EditOptions{})
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	if err := editor.Replace(0, replPath); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, err := editor.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := os.Stat(pakPath + ".bak"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("backup must be removed, stat err=%v", err)
	}

	c, err := Open(pakPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = c.Close() }()

	payload, err := c.ReadSection(c.Sections()[0])
	if err != nil {
		t.Fatalf("ReadSection: %v", err)
	}
	if string(payload) != "new-uboot" {
		t.Fatalf("payload=%q", payload)
	}
}

func TestEditorCommit_RotatesBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pakPath := filepath.Join(dir, "fw.pak")
	if err := os.WriteFile(pakPath, buildPAK(t, VariantPAK32, threeSections()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for i, payload := range []string{"first", "second", "third"} {
		replPath := filepath.Join(dir, payload+".bin")
		if err := os.WriteFile(replPath, []byte(payload), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		editor, err := OpenEditor(pakPath, EditOptions{BackupKeep: 2})
		if err != nil {
			t.Fatalf("OpenEditor: %v", err)
		}
		if err := editor.Replace(0, replPath); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if _, err := editor.Commit(context.Background()); err != nil {
			t.Fatalf("Commit %d: %v", i, err)
		}
	}

	for _, name := range []string{"fw.pak.bak", "fw.pak.bak.1"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "fw.pak.bak.2")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("fw.pak.bak.2 must not exist, stat err=%v", err)
	}
}

func TestEditorCommit_ValidationLeavesSourceUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pakPath := filepath.Join(dir, "fw.pak")
	original := buildPAK(t, VariantPAK32, threeSections())
	if err := os.WriteFile(pakPath, original, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	replPath := filepath.Join(dir, "ok.bin")
	if err := os.WriteFile(replPath, []byte("ok"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	editor, err := OpenEditor(pakPath, EditOptions{})
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	if err := editor.Replace(0, replPath); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := editor.Replace(9, replPath); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if _, err := editor.Commit(context.Background()); !errors.Is(err, ErrInvalidSectionIndex) {
		t.Fatalf("expected ErrInvalidSectionIndex, got %v", err)
	}

	got, err := os.ReadFile(pakPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Fatal("source modified by failed commit")
	}
	if _, err := os.Stat(pakPath + ".bak"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("backup created by failed validation, stat err=%v", err)
	}
}

func TestEditorErrors(t *testing.T) {
	t.Parallel()

	if _, err := OpenEditor("  ", EditOptions{}); !errors.Is(err, ErrNotPakFile) {
		t.Fatalf("OpenEditor: expected ErrNotPakFile, got %v", err)
	}

	editor, err := OpenEditor(filepath.Join(t.TempDir(), "fw.pak"), EditOptions{BackupKeep: -3})
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}

	if _, err := editor.Commit(context.Background()); !errors.Is(err, ErrNothingToCommit) {
		t.Fatalf("Commit: expected ErrNothingToCommit, got %v", err)
	}
	if err := editor.Replace(-1, "x.bin"); !errors.Is(err, ErrInvalidSectionIndex) {
		t.Fatalf("Replace: expected ErrInvalidSectionIndex, got %v", err)
	}
	if err := editor.Replace(0, ""); !errors.Is(err, ErrReplacementSourceMissing) {
		t.Fatalf("Replace: expected ErrReplacementSourceMissing, got %v", err)
	}
}
