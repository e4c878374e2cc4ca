// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Editor accumulates section replacements for one PAK and applies them in place on Commit.
type Editor struct {
	staged map[int]string
	path   string
	opts   EditOptions
}

// OpenEditor creates a staged editor for an in-place PAK rewrite.
func OpenEditor(path string, opts EditOptions) (*Editor, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotPakFile)
	}

	opts.applyDefaults()

	return &Editor{
		path:   trimmedPath,
		opts:   opts,
		staged: make(map[int]string, 4),
	}, nil
}

// Replace schedules section index to be replaced by the file at replacementPath.
// Staging the same index again overrides the earlier path.
func (e *Editor) Replace(index int, replacementPath string) error {
	if e == nil {
		return ErrNilReader
	}
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSectionIndex, index)
	}

	replacementPath = strings.TrimSpace(replacementPath)
	if replacementPath == "" {
		return fmt.Errorf("%w: empty path for section %d", ErrReplacementSourceMissing, index)
	}

	e.staged[index] = replacementPath
	return nil
}

// Staged returns staged section indexes in ascending order.
func (e *Editor) Staged() []int {
	if e == nil {
		return nil
	}

	out := make([]int, 0, len(e.staged))
	for idx := range e.staged {
		out = append(out, idx)
	}
	sort.Ints(out)

	return out
}

// Commit applies all staged replacements in one rewrite transaction.
// The original file is moved to "<path>.bak" and restored when the rewrite fails.
func (e *Editor) Commit(ctx context.Context) (*ReplaceResult, error) {
	if e == nil {
		return nil, ErrNilReader
	}
	if len(e.staged) == 0 {
		return nil, ErrNothingToCommit
	}

	if ctx == nil {
		ctx = context.Background()
	}

	tracker := &replaceTracker{notify: e.opts.ReplaceOptions.OnStateChange}
	tracker.enter(ReplaceValidating)

	if err := e.validate(); err != nil {
		return nil, tracker.fail(err)
	}

	backupPath := e.path + ".bak"
	if err := prepareBackupSlot(backupPath, e.opts.BackupKeep); err != nil {
		return nil, tracker.fail(err)
	}

	if err := os.Rename(e.path, backupPath); err != nil {
		return nil, tracker.fail(fmt.Errorf("move PAK to backup: %w", err))
	}

	res, err := e.commitFromBackup(ctx, backupPath, tracker)
	if err != nil {
		rollbackErr := rollbackFromBackup(e.path, backupPath)
		if rollbackErr != nil {
			return nil, fmt.Errorf("%w (rollback failed: %w)", err, rollbackErr)
		}

		return nil, err
	}

	if e.opts.BackupKeep == 0 {
		if err := removeIfExists(backupPath); err != nil {
			return nil, fmt.Errorf("remove backup: %w", err)
		}
	}

	tracker.enter(ReplaceDone)
	return res, nil
}

// validate checks the source and every staged replacement before anything is moved.
func (e *Editor) validate() error {
	c, err := OpenWithOptions(e.path, e.opts.ReplaceOptions.ReaderOptions)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	for _, idx := range e.Staged() {
		if err := c.validateReplace(idx); err != nil {
			return err
		}

		f, _, err := openReplacement(e.staged[idx])
		if err != nil {
			return err
		}
		_ = f.Close()
	}

	return nil
}

// commitFromBackup writes the edited PAK to the original path from backup source.
func (e *Editor) commitFromBackup(ctx context.Context, backupPath string, tracker *replaceTracker) (*ReplaceResult, error) {
	c, err := OpenWithOptions(backupPath, e.opts.ReplaceOptions.ReaderOptions)
	if err != nil {
		return nil, tracker.fail(fmt.Errorf("parse backup: %w", err))
	}
	defer func() { _ = c.Close() }()

	subs := make(map[int]rewriteSource, len(e.staged))
	for _, idx := range e.Staged() {
		f, size, err := openReplacement(e.staged[idx])
		if err != nil {
			return nil, tracker.fail(err)
		}
		defer func() { _ = f.Close() }()

		subs[idx] = rewriteSource{reader: f, length: size}
	}

	return c.replaceToFile(ctx, e.path, subs, e.opts.ReplaceOptions, tracker)
}

// prepareBackupSlot rotates or removes existing backup generations before a new commit.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	switch keep {
	case 0, 1:
		return removeIfExists(backupPath)
	default:
		oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
		if err := removeIfExists(oldest); err != nil {
			return err
		}

		for i := keep - 2; i >= 1; i-- {
			from := fmt.Sprintf("%s.%d", backupPath, i)
			to := fmt.Sprintf("%s.%d", backupPath, i+1)
			if err := renameIfExists(from, to); err != nil {
				return err
			}
		}

		return renameIfExists(backupPath, backupPath+".1")
	}
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("remove %s: %w", path, err)
}

// rollbackFromBackup restores backup on failed commit.
func rollbackFromBackup(path string, backupPath string) error {
	_ = os.Remove(path)

	if err := os.Rename(backupPath, path); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	return nil
}
