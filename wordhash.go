// Package wordhash computes short, pronounceable fingerprints of files.
//
// A fingerprint is a sequence of common English words encoding the SHA-512
// digest of a file. It is meant to be read aloud, for example to confirm over
// the phone that two people have the same file, without transcribing hex.
//
// # Algorithm
//
// The file is divided into blocks (512 bytes by default). Normally every
// block is hashed; optionally a repeatable pseudo-random subset of the blocks
// is hashed instead, always including the first and last blocks (see
// [NewPlan]). The selected blocks are hashed with SHA-512 in file order.
//
// The 512-bit digest is extended with the first two bytes of the SHA-512 of
// the digest itself, giving 528 bits. The first 516 of those bits are split
// into 43 groups of 12 bits, most significant bit first, and each group
// selects one word from a fixed list of 4096 words.
//
// A fingerprint of n words is the first n of these 43 words, so a shorter
// fingerprint is always a prefix of a longer one for the same file.
package wordhash

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultWords is the number of words in a fingerprint when none is
// specified.
const DefaultWords = 12

// Options control the construction of a fingerprint.
type Options struct {
	// Words is the number of words to report, 1 to NumWords.
	// If zero, DefaultWords is used.
	Words int `json:"words,omitempty" yaml:"words,omitempty"`

	SampleOptions `yaml:",inline"`
}

func (o Options) words() int { return cmp.Or(o.Words, DefaultWords) }

// Validate reports an error wrapping ErrInvalidParameter if o is not valid.
func (o Options) Validate() error {
	if n := o.words(); n < 1 || n > NumWords {
		return fmt.Errorf("%w: word count %d is not in [1, %d]", ErrInvalidParameter, n, NumWords)
	}
	return o.SampleOptions.Validate()
}

// Select returns the first n of words. It reports an error wrapping
// ErrInvalidParameter if n is not between 1 and NumWords.
func Select(words []string, n int) ([]string, error) {
	if n < 1 || n > NumWords {
		return nil, fmt.Errorf("%w: word count %d is not in [1, %d]", ErrInvalidParameter, n, NumWords)
	} else if n > len(words) {
		return nil, fmt.Errorf("%w: word count %d exceeds %d available", ErrInvalidParameter, n, len(words))
	}
	return words[:n:n], nil
}

// A Result is the fingerprint of a single file.
type Result struct {
	Path    string   // the file path, if known
	Plan    *Plan    // the blocks that were hashed
	Digest  Digest   // the digest of the selected blocks
	Indexes Indexes  // the word indexes derived from the digest
	All     []string // all NumWords words of the fingerprint
	N       int      // the number of words requested
}

// Words returns the first n words of the fingerprint.
func (r *Result) Words(n int) ([]string, error) { return Select(r.All, n) }

// String returns the requested words of the fingerprint separated by spaces.
func (r *Result) String() string { return strings.Join(r.All[:r.N], " ") }

// Hash computes the fingerprint of the first size bytes of r.
func Hash(r io.ReaderAt, size int64, o Options) (*Result, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	wl, err := DefaultWordlist()
	if err != nil {
		return nil, err
	}
	plan, err := NewPlan(size, o.SampleOptions)
	if err != nil {
		return nil, err
	}
	d, err := Sum(r, plan)
	if err != nil {
		return nil, err
	}
	ix := d.Indexes()
	return &Result{Plan: plan, Digest: d, Indexes: ix, All: wl.Encode(ix), N: o.words()}, nil
}

// HashFile computes the fingerprint of the file at path. Errors opening or
// reading the file wrap ErrIO.
func HashFile(path string, o Options) (*Result, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	} else if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrIO, path)
	}
	res, err := Hash(f, fi.Size(), o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Path = path
	return res, nil
}

// FromDigest constructs the result for a previously computed digest, for
// example one recorded in a cache.
func FromDigest(path string, plan *Plan, d Digest, n int) (*Result, error) {
	if n < 1 || n > NumWords {
		return nil, fmt.Errorf("%w: word count %d is not in [1, %d]", ErrInvalidParameter, n, NumWords)
	}
	wl, err := DefaultWordlist()
	if err != nil {
		return nil, err
	}
	ix := d.Indexes()
	return &Result{Path: path, Plan: plan, Digest: d, Indexes: ix, All: wl.Encode(ix), N: n}, nil
}
