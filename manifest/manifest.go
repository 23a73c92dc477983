// Package manifest reads and writes lists of file fingerprints.
//
// A manifest records the fingerprint options in effect when it was written,
// so that the same files can be checked later with the same sampling. On
// disk a manifest is a YAML document:
//
//	format: wh1
//	options:
//	   words: 12
//	   percent: 10
//	files:
//	   - path: photos/IMG_0001.jpg
//	     words: [slum, crap, chunky, ...]
//
// Relative paths are interpreted relative to the directory containing the
// manifest.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/creachadair/atomicfile"
	"github.com/creachadair/wordhash"
	yaml "gopkg.in/yaml.v3"
)

// Format is the format tag of the current manifest encoding.
const Format = "wh1"

// A Manifest is a collection of file fingerprints computed with the same
// options.
type Manifest struct {
	Format  string           `yaml:"format"`
	Options wordhash.Options `yaml:"options"`
	Files   []*Entry         `yaml:"files"`
}

// An Entry is the fingerprint of a single file.
type Entry struct {
	Path  string   `yaml:"path"`
	Words []string `yaml:"words,flow"`
}

// New constructs an empty manifest for the given options.
func New(opts wordhash.Options) *Manifest {
	if opts.Words == 0 {
		opts.Words = wordhash.DefaultWords
	}
	return &Manifest{Format: Format, Options: opts}
}

// Add adds an entry for res to m.
func (m *Manifest) Add(res *wordhash.Result) {
	words, _ := res.Words(res.N)
	m.Files = append(m.Files, &Entry{Path: res.Path, Words: words})
}

// Parse reads a manifest from r and checks that it is well-formed.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Format != Format {
		return nil, fmt.Errorf("unknown manifest format %q", m.Format)
	}
	if m.Options.Words == 0 {
		m.Options.Words = wordhash.DefaultWords
	}
	if err := m.Options.Validate(); err != nil {
		return nil, fmt.Errorf("manifest options: %w", err)
	}
	for i, e := range m.Files {
		if e == nil || e.Path == "" {
			return nil, fmt.Errorf("entry %d: missing path", i+1)
		} else if len(e.Words) != m.Options.Words {
			return nil, fmt.Errorf("entry %d (%s): got %d words, want %d",
				i+1, e.Path, len(e.Words), m.Options.Words)
		}
	}
	return &m, nil
}

// Load reads a manifest from the file at path. Relative entry paths are
// resolved against the directory containing path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for _, e := range m.Files {
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(dir, filepath.FromSlash(e.Path))
		}
	}
	return m, nil
}

// WriteTo encodes m as YAML to w.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(3)
	if err := enc.Encode(m); err != nil {
		return 0, fmt.Errorf("encode manifest: %w", err)
	}
	enc.Close()
	return buf.WriteTo(w)
}

// Save writes m to the file at path, replacing any existing file atomically.
// Entry paths are recorded relative to the directory containing path where
// possible.
func (m *Manifest) Save(path string) error {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return err
	}
	out := *m
	out.Files = make([]*Entry, len(m.Files))
	for i, e := range m.Files {
		out.Files[i] = &Entry{Path: relPath(dir, e.Path), Words: e.Words}
	}
	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return err
	}
	return atomicfile.WriteData(path, buf.Bytes(), 0644)
}

// relPath returns path relative to dir if path lies within dir, and path
// unmodified otherwise.
func relPath(dir, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
