package wordhash

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	_ "embed"

	"github.com/creachadair/mds/mapset"
)

// WordlistSize is the number of entries in a valid word list. Each word
// encodes bitsPerWord bits.
const WordlistSize = 1 << bitsPerWord

// The word list is a versioned asset: any change to its order or content
// changes every fingerprint, and the test vectors must be updated with it.
//
//go:embed wordlist.txt
var wordlistText string

// DefaultWordlist returns the built-in word list. It is loaded and checked on
// first use, and shared thereafter.
var DefaultWordlist = sync.OnceValues(func() (*Wordlist, error) {
	return ParseWordlist(strings.NewReader(wordlistText))
})

// A Wordlist is an immutable ordered list of WordlistSize distinct words.
// It is safe for concurrent use.
type Wordlist struct {
	words []string
	index map[string]int // lowercase word → position
}

// ParseWordlist reads a word list from r. Words are separated by whitespace.
// It reports an error wrapping ErrInconsistent unless the input contains
// exactly WordlistSize words, none of which repeats another (ignoring case).
func ParseWordlist(r io.Reader) (*Wordlist, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	w := &Wordlist{index: make(map[string]int, WordlistSize)}
	dup := mapset.New[string]()
	for sc.Scan() {
		word := sc.Text()
		key := strings.ToLower(word)
		if _, ok := w.index[key]; ok {
			dup.Add(word)
			continue
		}
		w.index[key] = len(w.words)
		w.words = append(w.words, word)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	if !dup.IsEmpty() {
		d := dup.Slice()
		slices.Sort(d)
		return nil, fmt.Errorf("%w: %d duplicate words (%s)", ErrInconsistent, len(d),
			strings.Join(d[:min(len(d), 5)], ", "))
	} else if len(w.words) != WordlistSize {
		return nil, fmt.Errorf("%w: got %d words, want %d", ErrInconsistent, len(w.words), WordlistSize)
	}
	return w, nil
}

// Len reports the number of words in w.
func (w *Wordlist) Len() int { return len(w.words) }

// Word returns the word at index i of w. It panics if i is out of range.
func (w *Wordlist) Word(i int) string { return w.words[i] }

// Lookup reports the index of word in w, ignoring case.
func (w *Wordlist) Lookup(word string) (int, bool) {
	i, ok := w.index[strings.ToLower(word)]
	return i, ok
}

// Encode returns the words of w selected by ix, in order.
func (w *Wordlist) Encode(ix Indexes) []string {
	out := make([]string, len(ix))
	for i, v := range ix {
		out[i] = w.words[v]
	}
	return out
}
