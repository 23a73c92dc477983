package manifest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creachadair/wordhash"
	"github.com/creachadair/wordhash/manifest"
	gocmp "github.com/google/go-cmp/cmp"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	if err := os.Mkdir(data, 0700); err != nil {
		t.Fatal(err)
	}

	pct := 25.0
	opts := wordhash.Options{Words: 6, SampleOptions: wordhash.SampleOptions{Percent: &pct}}
	m := manifest.New(opts)
	for _, name := range []string{"alpha.txt", "bravo.bin"} {
		path := filepath.Join(data, name)
		if err := os.WriteFile(path, []byte(strings.Repeat(name, 500)), 0600); err != nil {
			t.Fatal(err)
		}
		res, err := wordhash.HashFile(path, opts)
		if err != nil {
			t.Fatalf("HashFile: %v", err)
		}
		m.Add(res)
	}

	mpath := filepath.Join(dir, "SUMS.yaml")
	if err := m.Save(mpath); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}
	raw, err := os.ReadFile(mpath)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("Manifest:\n%s", raw)
	if !strings.Contains(string(raw), "path: data/alpha.txt") {
		t.Errorf("Saved manifest does not use a relative path:\n%s", raw)
	}

	got, err := manifest.Load(mpath)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if diff := gocmp.Diff(m, got); diff != "" {
		t.Errorf("Loaded manifest (-want, +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, input string
	}{
		{"Empty", ``},
		{"BadFormat", "format: wh9\noptions: {words: 1}\n"},
		{"UnknownField", "format: wh1\noptions: {words: 1}\nextra: true\n"},
		{"BadOptions", "format: wh1\noptions: {words: 1, percent: 10, blocks: 4}\n"},
		{"TooManyWords", "format: wh1\noptions: {words: 50}\n"},
		{"WordCount", "format: wh1\noptions: {words: 2}\nfiles:\n - path: a\n   words: [x]\n"},
		{"NoPath", "format: wh1\noptions: {words: 1}\nfiles:\n - words: [x]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := manifest.Parse(strings.NewReader(tc.input))
			if err == nil {
				t.Errorf("Parse: got %+v, want error", m)
			} else {
				t.Logf("Parse: got expected error: %v", err)
			}
		})
	}
}

func TestParseDefaultWords(t *testing.T) {
	const input = `format: wh1
options: {}
files:
   - path: a.bin
     words: [a, b, c, d, e, f, g, h, i, j, k, l]
`
	m, err := manifest.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if m.Options.Words != wordhash.DefaultWords {
		t.Errorf("Parse: got %d words, want %d", m.Options.Words, wordhash.DefaultWords)
	}
}
