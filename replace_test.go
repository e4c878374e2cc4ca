package pak

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReplaceSection(t *testing.T) {
	t.Parallel()

	for _, v := range []Variant{VariantPAK32, VariantPAK64} {
		t.Run(v.String(), func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, "fw.pak")
			if err := os.WriteFile(src, buildPAK(t, v, threeSections()), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			replacement := patternPayload(77, 42)
			replPath := filepath.Join(dir, "kernel.bin")
			if err := os.WriteFile(replPath, replacement, 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			var states []ReplaceState
			var progress []ReplaceProgress
			out := filepath.Join(dir, "fw.replaced.pak")
			res, err := ReplaceSection(context.Background(), src, 1, replPath, out, ReplaceOptions{
				OnStateChange: func(s ReplaceState) { states = append(states, s) },
				OnSectionDone: func(p ReplaceProgress) { progress = append(progress, p) },
			})
			if err != nil {
				t.Fatalf("ReplaceSection: %v", err)
			}

			wantStates := []ReplaceState{
				ReplaceValidating, ReplaceCopying, ReplaceHeaderFinalized, ReplaceChecksumUpdated, ReplaceDone,
			}
			if !equalStates(states, wantStates) {
				t.Fatalf("states=%v, want %v", states, wantStates)
			}

			if len(progress) != 3 || !progress[1].Replaced || progress[0].Replaced || progress[1].OriginalLen != 0 {
				t.Fatalf("progress=%+v", progress)
			}

			expectedSecs := threeSections()
			expectedSecs[1].payload = replacement
			want := buildPAK(t, v, expectedSecs)

			got, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Fatal("output differs from freshly built container")
			}
			if res.Size != int64(len(want)) {
				t.Fatalf("result size=%d, want %d", res.Size, len(want))
			}

			c, err := Open(out)
			if err != nil {
				t.Fatalf("Open output: %v", err)
			}
			defer func() { _ = c.Close() }()

			check, err := c.CheckCRC()
			if err != nil {
				t.Fatalf("CheckCRC: %v", err)
			}
			if !check.OK || check.Computed != res.CRC32 || res.Header.CRC32 != uint64(res.CRC32) {
				t.Fatalf("check=%+v result crc=0x%08x", check, res.CRC32)
			}

			sections := c.Sections()
			if sections[1].Len != 77 || sections[2].Start != uint64(c.HeaderSize())+100+77 {
				t.Fatalf("sections=%+v", sections)
			}
			if sections[1] != res.Sections[1] {
				t.Fatalf("result section %+v, decoded %+v", res.Sections[1], sections[1])
			}
		})
	}
}

func TestReplaceSameBytesReproducesSource(t *testing.T) {
	t.Parallel()

	secs := threeSections()
	data := buildPAK(t, VariantPAK32, secs)
	c, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	out := &memFile{}
	if _, err := c.Replace(context.Background(), out, 2, bytes.NewReader(secs[2].payload), int64(len(secs[2].payload)), ReplaceOptions{}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !bytes.Equal(out.data, data) {
		t.Fatal("identity replace changed container bytes")
	}
}

func TestReplaceStreamShrinkToEmpty(t *testing.T) {
	t.Parallel()

	c, err := FromBytes(buildPAK(t, VariantPAK64, threeSections()))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	out := &memFile{}
	res, err := c.Replace(context.Background(), out, 0, bytes.NewReader(nil), 0, ReplaceOptions{})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	expectedSecs := threeSections()
	expectedSecs[0].payload = nil
	if want := buildPAK(t, VariantPAK64, expectedSecs); !bytes.Equal(out.data, want) {
		t.Fatal("output differs from freshly built container")
	}
	if res.Sections[0].Len != 0 || res.Sections[2].Start != uint64(c.HeaderSize()) {
		t.Fatalf("sections=%+v", res.Sections)
	}
}

func TestReplaceValidationFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "fw.pak")
	if err := os.WriteFile(src, buildPAK(t, VariantPAK32, threeSections()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	paks := filepath.Join(dir, "fw.paks")
	if err := os.WriteFile(paks, buildPAKS(t, threeSections()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	repl := filepath.Join(dir, "repl.bin")
	if err := os.WriteFile(repl, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cases := []struct {
		want        error
		name        string
		src         string
		replacement string
		index       int
	}{
		{name: "index out of range", src: src, index: 3, replacement: repl, want: ErrInvalidSectionIndex},
		{name: "negative index", src: src, index: -1, replacement: repl, want: ErrInvalidSectionIndex},
		{name: "missing replacement", src: src, index: 0, replacement: filepath.Join(dir, "nope.bin"), want: ErrReplacementSourceMissing},
		{name: "replacement is directory", src: src, index: 0, replacement: dir, want: ErrReplacementSourceMissing},
		{name: "paks", src: paks, index: 0, replacement: repl, want: ErrUnsupportedOperation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var states []ReplaceState
			out := filepath.Join(t.TempDir(), "out.pak")
			_, err := ReplaceSection(context.Background(), tc.src, tc.index, tc.replacement, out, ReplaceOptions{
				OnStateChange: func(s ReplaceState) { states = append(states, s) },
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
				t.Fatalf("output created on validation failure: %v", statErr)
			}
			if !equalStates(states, []ReplaceState{ReplaceValidating, ReplaceFailed}) {
				t.Fatalf("states=%v", states)
			}
		})
	}
}

func TestReplaceSectionOutputIsInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "fw.pak")
	original := buildPAK(t, VariantPAK32, threeSections())
	if err := os.WriteFile(src, original, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	repl := filepath.Join(dir, "repl.bin")
	replPayload := []byte("payload")
	if err := os.WriteFile(repl, replPayload, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for _, out := range []string{src, repl, filepath.Join(dir, ".", "fw.pak")} {
		var states []ReplaceState
		_, err := ReplaceSection(context.Background(), src, 1, repl, out, ReplaceOptions{
			OnStateChange: func(s ReplaceState) { states = append(states, s) },
		})
		if !errors.Is(err, ErrOutputIsSource) {
			t.Fatalf("out=%s: expected ErrOutputIsSource, got %v", out, err)
		}
		if !equalStates(states, []ReplaceState{ReplaceValidating, ReplaceFailed}) {
			t.Fatalf("out=%s: states=%v", out, states)
		}
	}

	got, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Fatalf("source changed: %d bytes, want %d", len(got), len(original))
	}

	gotRepl, err := os.ReadFile(repl)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(gotRepl, replPayload) {
		t.Fatal("replacement file changed")
	}
}

func TestReplaceTruncatesLongerOutput(t *testing.T) {
	t.Parallel()

	secs := threeSections()
	c, err := FromBytes(buildPAK(t, VariantPAK32, secs))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	expectedSecs := threeSections()
	expectedSecs[0].payload = []byte{0x7f}
	want := buildPAK(t, VariantPAK32, expectedSecs)

	t.Run("memory", func(t *testing.T) {
		out := &memFile{data: bytes.Repeat([]byte{0xee}, 4096)}
		res, err := c.Replace(context.Background(), out, 0, bytes.NewReader([]byte{0x7f}), 1, ReplaceOptions{})
		if err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if res.Size != int64(len(want)) || !bytes.Equal(out.data, want) {
			t.Fatalf("output %d bytes, result size %d, want %d", len(out.data), res.Size, len(want))
		}
	})

	t.Run("file", func(t *testing.T) {
		path := writeFixture(t, "out.pak", bytes.Repeat([]byte{0xee}, 4096))
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}

		_, err = c.Replace(context.Background(), f, 0, bytes.NewReader([]byte{0x7f}), 1, ReplaceOptions{})
		closeErr := f.Close()
		if err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if closeErr != nil {
			t.Fatalf("Close: %v", closeErr)
		}

		out, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer func() { _ = out.Close() }()

		if out.Size() != int64(len(want)) {
			t.Fatalf("file size=%d, want %d", out.Size(), len(want))
		}
		check, err := out.CheckCRC()
		if err != nil {
			t.Fatalf("CheckCRC: %v", err)
		}
		if !check.OK {
			t.Fatalf("output fails CRC check: %+v", check)
		}
	})
}

func TestReplaceShortReplacementStream(t *testing.T) {
	t.Parallel()

	c, err := FromBytes(buildPAK(t, VariantPAK32, threeSections()))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	var states []ReplaceState
	_, err = c.Replace(context.Background(), &memFile{}, 1, bytes.NewReader(make([]byte, 20)), 40, ReplaceOptions{
		OnStateChange: func(s ReplaceState) { states = append(states, s) },
	})
	if !errors.Is(err, ErrCopyIncomplete) {
		t.Fatalf("expected ErrCopyIncomplete, got %v", err)
	}
	if !equalStates(states, []ReplaceState{ReplaceValidating, ReplaceCopying, ReplaceFailed}) {
		t.Fatalf("states=%v", states)
	}
}

func TestReplaceCanceled(t *testing.T) {
	t.Parallel()

	c, err := FromBytes(buildPAK(t, VariantPAK32, threeSections()))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Replace(ctx, &memFile{}, 0, bytes.NewReader(nil), 0, ReplaceOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReplaceStateString(t *testing.T) {
	t.Parallel()

	if ReplaceHeaderFinalized.String() != "header_finalized" || ReplaceFailed.String() != "failed" {
		t.Fatalf("unexpected names %q %q", ReplaceHeaderFinalized, ReplaceFailed)
	}
	if ReplaceState(99).String() != "ReplaceState(99)" {
		t.Fatalf("unknown state name %q", ReplaceState(99))
	}
}

func equalStates(a []ReplaceState, b []ReplaceState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
