// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"io"
	"os"
	"time"
)

// ReplaceState is one step of the section replace pipeline.
type ReplaceState uint8

// Replace pipeline states in transition order. ReplaceFailed is terminal and
// reachable from any other state.
const (
	// ReplaceIdle is the zero value before validation starts.
	ReplaceIdle ReplaceState = iota
	// ReplaceValidating checks variant, index and replacement source.
	ReplaceValidating
	// ReplaceCopying streams the placeholder header and section payloads.
	ReplaceCopying
	// ReplaceHeaderFinalized has the re-encoded header written over the placeholder.
	ReplaceHeaderFinalized
	// ReplaceChecksumUpdated has the output CRC computed and patched.
	ReplaceChecksumUpdated
	// ReplaceDone marks a complete output.
	ReplaceDone
	// ReplaceFailed marks an aborted replace.
	ReplaceFailed
)

// String returns the state name.
func (s ReplaceState) String() string {
	switch s {
	case ReplaceIdle:
		return "idle"
	case ReplaceValidating:
		return "validating"
	case ReplaceCopying:
		return "copying"
	case ReplaceHeaderFinalized:
		return "header_finalized"
	case ReplaceChecksumUpdated:
		return "checksum_updated"
	case ReplaceDone:
		return "done"
	case ReplaceFailed:
		return "failed"
	default:
		return fmt.Sprintf("ReplaceState(%d)", uint8(s))
	}
}

// OutputFile is the replace destination: written sequentially, truncated to the
// new container size, then patched in place and read back for the checksum.
// *os.File satisfies it.
type OutputFile interface {
	io.Writer
	io.Seeker
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
}

// replaceTracker reports state transitions to an optional callback.
type replaceTracker struct {
	notify func(ReplaceState)
	state  ReplaceState
}

// enter moves the tracker to state and notifies the callback.
func (t *replaceTracker) enter(state ReplaceState) {
	t.state = state
	if t.notify != nil {
		t.notify(state)
	}
}

// fail moves the tracker to ReplaceFailed and returns err unchanged.
func (t *replaceTracker) fail(err error) error {
	if t.state != ReplaceFailed {
		t.enter(ReplaceFailed)
	}

	return err
}

// ReplaceSection writes a copy of the PAK at srcPath to outPath with section index
// payload taken from the file at replacementPath, then updates the output CRC.
//
// No output is created when validation fails. outPath must not name srcPath or
// replacementPath (ErrOutputIsSource); use Editor to rewrite a file in place.
// A copy that fails midway returns ErrCopyIncomplete and leaves the partial
// output in place.
func ReplaceSection(
	ctx context.Context,
	srcPath string,
	index int,
	replacementPath string,
	outPath string,
	opts ReplaceOptions,
) (*ReplaceResult, error) {
	tracker := &replaceTracker{notify: opts.OnStateChange}
	tracker.enter(ReplaceValidating)

	c, err := OpenWithOptions(srcPath, opts.ReaderOptions)
	if err != nil {
		return nil, tracker.fail(err)
	}
	defer func() { _ = c.Close() }()

	if err := c.validateReplace(index); err != nil {
		return nil, tracker.fail(err)
	}

	repl, size, err := openReplacement(replacementPath)
	if err != nil {
		return nil, tracker.fail(err)
	}
	defer func() { _ = repl.Close() }()

	if err := checkOutputPath(outPath, srcPath, replacementPath); err != nil {
		return nil, tracker.fail(err)
	}

	subs := map[int]rewriteSource{index: {reader: repl, length: size}}
	result, err := c.replaceToFile(ctx, outPath, subs, opts, tracker)
	if err != nil {
		return nil, err
	}

	tracker.enter(ReplaceDone)
	return result, nil
}

// replaceToFile creates outPath and writes the substituted container into it.
func (c *Container) replaceToFile(
	ctx context.Context,
	outPath string,
	subs map[int]rewriteSource,
	opts ReplaceOptions,
	tracker *replaceTracker,
) (*ReplaceResult, error) {
	out, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, tracker.fail(fmt.Errorf("create output: %w", err))
	}

	result, err := c.replaceInto(ctx, out, subs, opts, tracker)
	if err != nil {
		_ = out.Close()
		return nil, err
	}

	if err := out.Sync(); err != nil {
		_ = out.Close()
		return nil, tracker.fail(fmt.Errorf("sync output: %w", err))
	}

	if err := out.Close(); err != nil {
		return nil, tracker.fail(fmt.Errorf("close output: %w", err))
	}

	return result, nil
}

// Replace writes c into out with section index payload read from replacement.
// Exactly replacementLen bytes are consumed from replacement.
func (c *Container) Replace(
	ctx context.Context,
	out OutputFile,
	index int,
	replacement io.Reader,
	replacementLen int64,
	opts ReplaceOptions,
) (*ReplaceResult, error) {
	tracker := &replaceTracker{notify: opts.OnStateChange}
	tracker.enter(ReplaceValidating)

	if out == nil {
		return nil, tracker.fail(ErrNilWriter)
	}
	if replacement == nil {
		return nil, tracker.fail(fmt.Errorf("%w: %w", ErrReplacementSourceMissing, ErrNilReader))
	}
	if replacementLen < 0 {
		return nil, tracker.fail(fmt.Errorf("%w: negative length %d", ErrReplacementSourceMissing, replacementLen))
	}
	if err := c.validateReplace(index); err != nil {
		return nil, tracker.fail(err)
	}

	subs := map[int]rewriteSource{index: {reader: replacement, length: replacementLen}}
	result, err := c.replaceInto(ctx, out, subs, opts, tracker)
	if err != nil {
		return nil, err
	}

	tracker.enter(ReplaceDone)
	return result, nil
}

// validateReplace checks that c supports replace and index addresses a section.
func (c *Container) validateReplace(index int) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.variant.SupportsReplace() {
		return fmt.Errorf("%w: replace in %s container", ErrUnsupportedOperation, c.variant)
	}
	if index < 0 || index >= len(c.sections) {
		return fmt.Errorf("%w: %d (have %d sections)", ErrInvalidSectionIndex, index, len(c.sections))
	}

	return nil
}

// replaceInto runs copy, header finalize and checksum steps on validated substitutions.
func (c *Container) replaceInto(
	ctx context.Context,
	out OutputFile,
	subs map[int]rewriteSource,
	opts ReplaceOptions,
	tracker *replaceTracker,
) (*ReplaceResult, error) {
	started := time.Now()

	tracker.enter(ReplaceCopying)
	rw, err := rewriteContainer(
		ctx,
		out,
		c,
		subs,
		opts.OnSectionDone,
		func() { tracker.enter(ReplaceHeaderFinalized) },
	)
	if err != nil {
		return nil, tracker.fail(err)
	}

	if err := out.Truncate(rw.size); err != nil {
		return nil, tracker.fail(fmt.Errorf("truncate output: %w", err))
	}

	crc, err := c.checksumOutput(out, rw.size)
	if err != nil {
		return nil, tracker.fail(err)
	}

	if err := patchCRC(out, c.variant, crc); err != nil {
		return nil, tracker.fail(err)
	}

	tracker.enter(ReplaceChecksumUpdated)

	header := rw.header
	header.CRC32 = uint64(crc)

	return &ReplaceResult{
		Header:   header,
		Sections: rw.sections,
		Size:     rw.size,
		Duration: time.Since(started),
		CRC32:    crc,
	}, nil
}

// checkOutputPath fails when outPath already exists and is the same file as any input.
func checkOutputPath(outPath string, inputs ...string) error {
	outInfo, err := os.Stat(outPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}

	for _, input := range inputs {
		inInfo, err := os.Stat(input)
		if err != nil {
			continue
		}
		if os.SameFile(outInfo, inInfo) {
			return fmt.Errorf("%w: %s is %s", ErrOutputIsSource, outPath, input)
		}
	}

	return nil
}

// openReplacement opens a regular replacement file and returns its size.
func openReplacement(path string) (*os.File, int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrReplacementSourceMissing, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, 0, fmt.Errorf("%w: %s is not a regular file", ErrReplacementSourceMissing, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrReplacementSourceMissing, err)
	}

	return f, fi.Size(), nil
}

// checksumOutput computes the CRC of a freshly written container of the same variant and count.
func (c *Container) checksumOutput(out io.ReaderAt, size int64) (uint32, error) {
	prefix := int64(c.variant.headerPrefixSize())
	table := make([]byte, len(c.sections)*c.variant.sectionRecordSize())
	if err := readFullAt(out, table, prefix); err != nil {
		return 0, fmt.Errorf("read back section table: %w", err)
	}

	buf, release := acquireCopyBuffer()
	defer release()

	return computeCRC(out, size, c.headerSize, table, buf)
}
