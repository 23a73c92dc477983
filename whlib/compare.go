package whlib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creachadair/getpass"
	"github.com/creachadair/mds/mdiff"
	"github.com/creachadair/wordhash"
	"golang.org/x/term"
)

// A Comparison is the outcome of comparing a fingerprint with words reported
// by someone else.
type Comparison struct {
	Match   bool     // whether all the reported words match
	Checked int      // the number of words compared
	Unknown []string // reported words that are not in the word list
	Diff    string   // a word-by-word diff, empty if Match is true
}

// Compare compares the leading words of res with heard. Only as many words
// as were heard are compared, so a short fingerprint read aloud can be
// checked against a longer one. Case and surrounding punctuation are
// ignored.
func Compare(res *wordhash.Result, heard []string) (*Comparison, error) {
	if len(heard) == 0 {
		return nil, errors.New("no words to compare")
	}
	want, err := res.Words(min(len(heard), wordhash.NumWords))
	if err != nil {
		return nil, err
	}
	wl, err := wordhash.DefaultWordlist()
	if err != nil {
		return nil, err
	}

	c := &Comparison{Checked: len(heard), Match: len(heard) <= len(want)}
	got := make([]string, len(heard))
	for i, w := range heard {
		w = strings.Trim(w, ".,;:-\"'")
		if j, ok := wl.Lookup(w); ok {
			w = wl.Word(j) // canonical spelling
		} else {
			c.Unknown = append(c.Unknown, w)
		}
		got[i] = w
		if i >= len(want) || !strings.EqualFold(w, want[i]) {
			c.Match = false
		}
	}
	if !c.Match {
		var buf strings.Builder
		mdiff.New(want, got).AddContext(2).Unify().Format(&buf, mdiff.Unified, nil)
		c.Diff = buf.String()
	}
	return c, nil
}

// SplitWords splits s into words at spaces and common separators.
func SplitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ',' || r == '-'
	})
}

// ReadWords prompts for a line of words. If hide is true, the input is read
// from the terminal with echo disabled. Otherwise, if stdin is a terminal a
// line editor is used, and if not a single line is read from stdin.
func ReadWords(prompt string, hide bool) ([]string, error) {
	if hide {
		line, err := getpass.Prompt(prompt)
		if err != nil {
			return nil, fmt.Errorf("read words: %w", err)
		}
		return SplitWords(line), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}
	oldst, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	defer term.Restore(fd, oldst)

	vt := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stderr}, prompt)
	line, err := vt.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("read words: %w", err)
	}
	return SplitWords(line), nil
}

func readLine(r io.Reader) ([]string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, fmt.Errorf("read words: %w", err)
	}
	return SplitWords(line), nil
}
