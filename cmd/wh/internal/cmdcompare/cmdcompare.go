// Package cmdcompare implements the "compare" subcommand.
package cmdcompare

import (
	"errors"
	"fmt"
	"os"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/wordhash"
	"github.com/creachadair/wordhash/cmd/wh/config"
	"github.com/creachadair/wordhash/whlib"
)

var Command = &command.C{
	Name:  "compare",
	Usage: "<file> [word ...]",
	Help: `Compare the fingerprint of a file with words from someone else.

The words may be given as arguments, or if none are given, they are read
from a prompt at the terminal. Only as many words as are given are
compared, so a shorter fingerprint read aloud matches the start of a
longer one. Letter case and punctuation are ignored.

If the words do not match, a word-by-word diff is printed, and any words
that do not appear in the word list are reported, since they are likely
mistakes in transcription.

Use --hide to read words without echoing them to the terminal.`,
	SetFlags: command.Flags(flax.MustBind, &compareFlags),
	Run:      command.Adapt(runCompare),
}

var compareFlags struct {
	Hide bool `flag:"hide,Do not echo words typed at the prompt"`
}

// errMismatch is reported when the fingerprints differ.
var errMismatch = errors.New("fingerprints do not match")

func runCompare(env *command.Env, path string, words ...string) error {
	set, err := config.Load(env)
	if err != nil {
		return err
	}
	heard := words
	if len(heard) == 0 {
		heard, err = whlib.ReadWords("Words: ", compareFlags.Hide)
		if err != nil {
			return err
		}
		if len(heard) == 0 {
			return env.Usagef("no words to compare")
		}
	}
	if len(heard) > wordhash.NumWords {
		return env.Usagef("at most %d words can be compared, got %d", wordhash.NumWords, len(heard))
	}

	h, done, err := set.Hasher()
	if err != nil {
		return err
	}
	defer done()
	res, err := h.HashFile(path)
	if err != nil {
		return err
	}
	c, err := whlib.Compare(res, heard)
	if err != nil {
		return err
	}
	if c.Match {
		fmt.Printf("MATCH (%d words)\n", c.Checked)
		return nil
	}
	fmt.Print(c.Diff)
	for _, w := range c.Unknown {
		fmt.Fprintf(os.Stderr, "wh: %q is not in the word list\n", w)
	}
	return errMismatch
}
