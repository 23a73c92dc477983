package wordhash_test

import (
	"bytes"
	"crypto/sha512"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creachadair/wordhash"
	gocmp "github.com/google/go-cmp/cmp"
)

func pfloat(v float64) *float64 { return &v }
func pint(v int) *int           { return &v }

// testData returns n bytes of deterministic non-repeating content.
func testData(n int) []byte {
	out := make([]byte, n)
	var s uint32 = 2463534242
	for i := range out {
		s ^= s << 13
		s ^= s >> 17
		s ^= s << 5
		out[i] = byte(s)
	}
	return out
}

func hashBytes(t *testing.T, data []byte, o wordhash.Options) *wordhash.Result {
	t.Helper()
	res, err := wordhash.Hash(bytes.NewReader(data), int64(len(data)), o)
	if err != nil {
		t.Fatalf("Hash: unexpected error: %v", err)
	}
	return res
}

func TestKnownValues(t *testing.T) {
	// These test vectors were computed independently from the built-in word
	// list, and must be updated if the word list or the encoding changes.
	tests := []struct {
		input string
		want  string
	}{
		{"", "slum crap chunky under relish sweaty ever lesson spring start London freer"},
		{"a", "basis acidic mince owner anti devote Nepal okay guide fate venom flick"},
		{"correct horse battery staple", "rose unity glade steady plush pint depart fried karate foil thorn leper"},
	}
	for _, tc := range tests {
		res := hashBytes(t, []byte(tc.input), wordhash.Options{})
		if got := res.String(); got != tc.want {
			t.Errorf("Hash(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}

	t.Run("AllWords", func(t *testing.T) {
		const want = "slum crap chunky under relish sweaty ever lesson spring start London freer " +
			"thank elicit falter float ledge dose belt claw tower thence snow alkali flight " +
			"focal pump weary artful box khaki scalp funny mink robe hire inside atomic cloud " +
			"both wheat juice cream"
		res := hashBytes(t, nil, wordhash.Options{Words: wordhash.NumWords})
		if got := res.String(); got != want {
			t.Errorf("Hash(empty, 43): got %q, want %q", got, want)
		}
	})
}

// Scenario: a two-block file hashed in full has the plain SHA-512 digest.
func TestFullFile(t *testing.T) {
	data := testData(1024)
	res := hashBytes(t, data, wordhash.Options{Words: wordhash.NumWords})

	if res.Plan.Total != 2 || res.Plan.Random {
		t.Errorf("Plan: got total=%d random=%v, want 2, false", res.Plan.Total, res.Plan.Random)
	}
	if diff := gocmp.Diff([]int{0, 1}, res.Plan.Selected()); diff != "" {
		t.Errorf("Selected blocks (-want, +got):\n%s", diff)
	}
	if want := wordhash.Digest(sha512.Sum512(data)); res.Digest != want {
		t.Errorf("Digest: got %v, want %v", res.Digest, want)
	}

	wl, err := wordhash.DefaultWordlist()
	if err != nil {
		t.Fatalf("DefaultWordlist: %v", err)
	}
	want := wl.Encode(wordhash.Digest(sha512.Sum512(data)).Indexes())
	got, err := res.Words(wordhash.NumWords)
	if err != nil {
		t.Fatalf("Words: unexpected error: %v", err)
	}
	if diff := gocmp.Diff(want, got); diff != "" {
		t.Errorf("Words (-want, +got):\n%s", diff)
	}
}

// Scenario: a file smaller than one block is hashed in full, whatever the
// sampling options say.
func TestSingleBlock(t *testing.T) {
	data := testData(300)
	want := wordhash.Digest(sha512.Sum512(data))
	for _, o := range []wordhash.SampleOptions{
		{},
		{Percent: pfloat(1)},
		{Percent: pfloat(100)},
		{Blocks: pint(50)},
		{Blocks: pint(3), MinBlocks: 5},
	} {
		res := hashBytes(t, data, wordhash.Options{SampleOptions: o})
		if diff := gocmp.Diff([]int{0}, res.Plan.Selected()); diff != "" {
			t.Errorf("Selected %+v (-want, +got):\n%s", o, diff)
		}
		if res.Digest != want {
			t.Errorf("Digest %+v: got %v, want %v", o, res.Digest, want)
		}
	}
}

func TestDeterminism(t *testing.T) {
	data := testData(100_000)
	for _, o := range []wordhash.Options{
		{},
		{Words: 20, SampleOptions: wordhash.SampleOptions{Percent: pfloat(10)}},
		{SampleOptions: wordhash.SampleOptions{Blocks: pint(17), BlockSize: 1000}},
	} {
		a := hashBytes(t, data, o)
		b := hashBytes(t, bytes.Clone(data), o)
		if diff := gocmp.Diff(a, b); diff != "" {
			t.Errorf("Repeated hash %+v (-first, +second):\n%s", o, diff)
		}
	}
}

func TestSensitivity(t *testing.T) {
	data := testData(64 * 1024)
	o := wordhash.Options{SampleOptions: wordhash.SampleOptions{Percent: pfloat(25)}}
	base := hashBytes(t, data, o)

	// Flip one byte in each selected block; every flip must change the digest.
	for _, b := range base.Plan.Selected() {
		off, size := base.Plan.Span(b)
		mod := bytes.Clone(data)
		mod[off+size/2] ^= 0x01

		got := hashBytes(t, mod, o)
		if diff := gocmp.Diff(base.Plan, got.Plan); diff != "" {
			t.Fatalf("Plan changed for content edit (-want, +got):\n%s", diff)
		}
		if got.Digest == base.Digest {
			t.Errorf("Flipping byte %d did not change the digest", off+size/2)
		}
		if got.String() == base.String() {
			t.Errorf("Flipping byte %d did not change the words", off+size/2)
		}
	}
}

func TestPrefixLaw(t *testing.T) {
	data := testData(50_000)
	for _, o := range []wordhash.SampleOptions{{}, {Percent: pfloat(40)}, {Blocks: pint(9)}} {
		res := hashBytes(t, data, wordhash.Options{SampleOptions: o})
		var prev []string
		for _, n := range []int{1, 4, 12, 30, 43} {
			got, err := res.Words(n)
			if err != nil {
				t.Fatalf("Words(%d): unexpected error: %v", n, err)
			}
			if len(got) != n {
				t.Errorf("Words(%d): got %d words", n, len(got))
			}
			if !slicesHasPrefix(got, prev) {
				t.Errorf("Words(%d) = %q does not extend %q", n, got, prev)
			}
			prev = got
		}

		// Separately hashed results must agree on the prefix too.
		short := hashBytes(t, data, wordhash.Options{Words: 4, SampleOptions: o})
		long := hashBytes(t, data, wordhash.Options{Words: 12, SampleOptions: o})
		if !strings.HasPrefix(long.String(), short.String()+" ") {
			t.Errorf("Hash(4) = %q is not a prefix of Hash(12) = %q", short, long)
		}
	}
}

func slicesHasPrefix(s, pfx []string) bool {
	return len(pfx) <= len(s) && gocmp.Equal(s[:len(pfx)], pfx)
}

func TestSelect(t *testing.T) {
	words := make([]string, wordhash.NumWords)
	for i := range words {
		words[i] = string(rune('a' + i%26))
	}
	for _, n := range []int{0, -1, 44, 100} {
		if got, err := wordhash.Select(words, n); !errors.Is(err, wordhash.ErrInvalidParameter) {
			t.Errorf("Select(%d): got (%q, %v), want %v", n, got, err, wordhash.ErrInvalidParameter)
		}
	}
	got, err := wordhash.Select(words, 3)
	if err != nil {
		t.Fatalf("Select(3): unexpected error: %v", err)
	}
	if diff := gocmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("Select(3) (-want, +got):\n%s", diff)
	}
	if _, err := wordhash.Select(words[:5], 6); !errors.Is(err, wordhash.ErrInvalidParameter) {
		t.Errorf("Select(5 words, 6): got %v, want %v", err, wordhash.ErrInvalidParameter)
	}
}

func TestOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opts wordhash.Options
	}{
		{"NegativeWords", wordhash.Options{Words: -1}},
		{"TooManyWords", wordhash.Options{Words: 44}},
		{"BothModes", wordhash.Options{SampleOptions: wordhash.SampleOptions{
			Percent: pfloat(10), Blocks: pint(10)}}},
		{"NegativePercent", wordhash.Options{SampleOptions: wordhash.SampleOptions{Percent: pfloat(-1)}}},
		{"LargePercent", wordhash.Options{SampleOptions: wordhash.SampleOptions{Percent: pfloat(100.5)}}},
		{"NegativeBlocks", wordhash.Options{SampleOptions: wordhash.SampleOptions{Blocks: pint(-3)}}},
		{"NegativeMin", wordhash.Options{SampleOptions: wordhash.SampleOptions{MinBlocks: -1}}},
		{"NegativeMax", wordhash.Options{SampleOptions: wordhash.SampleOptions{MaxBlocks: -1}}},
		{"MinOverMax", wordhash.Options{SampleOptions: wordhash.SampleOptions{MinBlocks: 10, MaxBlocks: 5}}},
		{"NegativeBlockSize", wordhash.Options{SampleOptions: wordhash.SampleOptions{BlockSize: -512}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.opts.Validate(); !errors.Is(err, wordhash.ErrInvalidParameter) {
				t.Errorf("Validate: got %v, want %v", err, wordhash.ErrInvalidParameter)
			}

			// Parameter errors are reported before the file is touched.
			res, err := wordhash.HashFile("/nonexistent/file", tc.opts)
			if !errors.Is(err, wordhash.ErrInvalidParameter) {
				t.Errorf("HashFile: got (%v, %v), want %v", res, err, wordhash.ErrInvalidParameter)
			}
		})
	}
}

type shortReader struct {
	data []byte
}

func (s shortReader) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(s.data).ReadAt(p, off)
}

func TestIOErrors(t *testing.T) {
	data := testData(4096)

	// The reader is shorter than the claimed size, so the last block cannot
	// be read in full. No partial result is reported.
	for _, o := range []wordhash.SampleOptions{{}, {Blocks: pint(3)}} {
		res, err := wordhash.Hash(shortReader{data[:4000]}, int64(len(data)), wordhash.Options{SampleOptions: o})
		if !errors.Is(err, wordhash.ErrIO) {
			t.Errorf("Hash %+v: got (%v, %v), want %v", o, res, err, wordhash.ErrIO)
		}
	}

	if res, err := wordhash.HashFile(filepath.Join(t.TempDir(), "missing"), wordhash.Options{}); !errors.Is(err, wordhash.ErrIO) {
		t.Errorf("HashFile missing: got (%v, %v), want %v", res, err, wordhash.ErrIO)
	}
	if res, err := wordhash.HashFile(t.TempDir(), wordhash.Options{}); !errors.Is(err, wordhash.ErrIO) {
		t.Errorf("HashFile directory: got (%v, %v), want %v", res, err, wordhash.ErrIO)
	}
}

func TestHashFile(t *testing.T) {
	data := testData(10_000)
	path := filepath.Join(t.TempDir(), "test.bin")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	o := wordhash.Options{Words: 8, SampleOptions: wordhash.SampleOptions{Percent: pfloat(30)}}
	got, err := wordhash.HashFile(path, o)
	if err != nil {
		t.Fatalf("HashFile: unexpected error: %v", err)
	}
	if got.Path != path {
		t.Errorf("Path: got %q, want %q", got.Path, path)
	}
	want := hashBytes(t, data, o)
	if got.String() != want.String() {
		t.Errorf("HashFile: got %q, want %q", got, want)
	}
	if n := len(strings.Fields(got.String())); n != 8 {
		t.Errorf("HashFile: got %d words, want 8", n)
	}

	fd, err := wordhash.FromDigest(path, got.Plan, got.Digest, 8)
	if err != nil {
		t.Fatalf("FromDigest: unexpected error: %v", err)
	}
	if diff := gocmp.Diff(got, fd); diff != "" {
		t.Errorf("FromDigest (-want, +got):\n%s", diff)
	}
}
