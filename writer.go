// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	// copyBufferPool reuses payload copy buffers between stream operations.
	copyBufferPool = sync.Pool{
		New: func() any {
			return new([ChunkSize]byte)
		},
	}
	// rewriteWriterPool reuses buffered writers between rewrites.
	rewriteWriterPool = sync.Pool{
		New: func() any {
			return bufio.NewWriterSize(io.Discard, ChunkSize)
		},
	}
)

// rewriteSource is one substituted section payload of exactly length bytes.
type rewriteSource struct {
	reader io.Reader
	length int64
}

// rewriteResult contains written metadata from the rewrite core.
type rewriteResult struct {
	header   Header
	sections []Section
	size     int64
}

// acquireCopyBuffer returns reusable ChunkSize buffer and release callback.
func acquireCopyBuffer() ([]byte, func()) {
	arr := copyBufferPool.Get().(*[ChunkSize]byte) //nolint:forcetypeassert // pool contains only fixed-size buffers
	return arr[:], func() {
		copyBufferPool.Put(arr)
	}
}

// acquireRewriteWriter returns a buffered writer bound to out and release callback.
func acquireRewriteWriter(out io.Writer) (*bufio.Writer, func()) {
	w := rewriteWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
	w.Reset(out)

	return w, func() {
		w.Reset(io.Discard)
		rewriteWriterPool.Put(w)
	}
}

// copyExact streams exactly n bytes from src to dst using buf-sized chunks.
// A source that ends early yields io.ErrUnexpectedEOF.
func copyExact(dst io.Writer, src io.Reader, n int64, buf []byte) (int64, error) {
	if dst == nil {
		return 0, ErrNilWriter
	}
	if src == nil {
		return 0, ErrNilReader
	}
	if len(buf) == 0 {
		buf = make([]byte, ChunkSize)
	}

	var written int64
	for written < n {
		chunk := int64(len(buf))
		if remaining := n - written; remaining < chunk {
			chunk = remaining
		}

		nr, readErr := io.ReadFull(src, buf[:chunk])
		if nr > 0 {
			nw, writeErr := dst.Write(buf[:nr])
			written += int64(nw)

			if writeErr != nil {
				return written, writeErr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				return written, fmt.Errorf("%w: got %d of %d bytes", io.ErrUnexpectedEOF, written, n)
			}

			return written, readErr
		}
	}

	return written, nil
}

// rewriteContainer writes c into out with section payloads from subs substituted by index.
//
// A zeroed placeholder reserves the header, payloads are streamed in table order
// while new offsets are recorded, then the header is re-encoded over the placeholder.
// Partition records are copied byte-identical from the source.
func rewriteContainer(
	ctx context.Context,
	out io.WriteSeeker,
	c *Container,
	subs map[int]rewriteSource,
	onSectionDone func(ReplaceProgress),
	onHeader func(),
) (*rewriteResult, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	w, releaseWriter := acquireRewriteWriter(out)
	defer releaseWriter()

	copyBuf, releaseCopyBuffer := acquireCopyBuffer()
	defer releaseCopyBuffer()

	if err := writeZeros(w, c.headerSize, copyBuf); err != nil {
		return nil, fmt.Errorf("write header placeholder: %w", err)
	}

	sections := c.Sections()
	current := c.headerSize
	for i := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		original := sections[i]
		sections[i].Start = uint64(current) //nolint:gosec // current is non-negative

		var (
			reader io.Reader
			length int64
		)
		sub, replace := subs[i]
		if replace {
			reader = sub.reader
			length = sub.length
		} else {
			start, n, err := sectionBounds(original)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCopyIncomplete, err)
			}

			reader = io.NewSectionReader(c.ra, start, n)
			length = n
		}

		written, err := copyExact(w, reader, length, copyBuf)
		if err != nil {
			if replace {
				return nil, fmt.Errorf("%w: replacement for section %d: %w", ErrCopyIncomplete, i, err)
			}

			return nil, fmt.Errorf("%w: section %d: %w", ErrCopyIncomplete, i, err)
		}

		sections[i].Len = uint64(written) //nolint:gosec // written is non-negative
		current += written

		if onSectionDone != nil {
			onSectionDone(ReplaceProgress{
				Section:     sections[i],
				OriginalLen: original.Len,
				Replaced:    replace,
			})
		}
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush payloads: %w", err)
	}

	header, err := c.encodeRewrittenHeader(sections)
	if err != nil {
		return nil, err
	}

	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to header: %w", err)
	}

	if _, err := out.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	if onHeader != nil {
		onHeader()
	}

	return &rewriteResult{
		header:   c.header,
		sections: sections,
		size:     current,
	}, nil
}

// encodeRewrittenHeader encodes prefix and sections and appends source partition bytes.
func (c *Container) encodeRewrittenHeader(sections []Section) ([]byte, error) {
	prefix, err := encodeHeaderPrefix(c.variant, c.header)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, c.headerSize)
	buf = append(buf, prefix...)
	for i := range sections {
		if sections[i].Index != i {
			return nil, fmt.Errorf("%w: section at %d has index %d", ErrSectionIndexOrder, i, sections[i].Index)
		}

		rec, err := encodeSection(c.variant, sections[i])
		if err != nil {
			return nil, err
		}

		buf = append(buf, rec...)
	}

	buf = append(buf, c.raw[len(buf):]...)
	if int64(len(buf)) != c.headerSize {
		return nil, fmt.Errorf("%w: encoded %d header bytes, want %d", ErrHeaderSizeMismatch, len(buf), c.headerSize)
	}

	return buf, nil
}

// writeZeros writes n zero bytes using buf as scratch.
func writeZeros(w io.Writer, n int64, buf []byte) error {
	clear(buf)
	for n > 0 {
		chunk := int64(len(buf))
		if n < chunk {
			chunk = n
		}

		if _, err := w.Write(buf[:chunk]); err != nil {
			return err
		}

		n -= chunk
	}

	return nil
}
