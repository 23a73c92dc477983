// Package cmdinfo implements the "plan" and "words" subcommands.
package cmdinfo

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/mds/value"
	"github.com/creachadair/wordhash"
	"github.com/creachadair/wordhash/cmd/wh/config"
	"github.com/dustin/go-humanize"
)

var Commands = []*command.C{
	{
		Name:  "plan",
		Usage: "<file>",
		Help: `Print the sampling plan for a file.

The plan reports how many blocks of the file are hashed with the current
sampling options, and how many bytes that covers. With --list, the
indices of the selected blocks are also printed.`,
		SetFlags: command.Flags(flax.MustBind, &planFlags),
		Run:      command.Adapt(runPlan),
	},
	{
		Name:  "words",
		Usage: "[index|word ...]",
		Help: `Print entries from the word list.

Each argument is either a numeric index, for which the word is printed,
or a word, for which its index is printed. With no arguments, the word
list is checked for consistency and its size is printed.`,
		Run: command.Adapt(runWords),
	},
}

var planFlags struct {
	List bool `flag:"list,List the indices of the selected blocks"`
}

// runPlan implements the "plan" subcommand.
func runPlan(env *command.Env, path string) error {
	set, err := config.Load(env)
	if err != nil {
		return err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", wordhash.ErrIO, err)
	}
	p, err := wordhash.NewPlan(fi.Size(), set.Options.SampleOptions)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 4, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "file:\t%s\n", path)
	fmt.Fprintf(tw, "size:\t%s (%s bytes)\n", humanize.IBytes(uint64(p.Size)), humanize.Comma(p.Size))
	fmt.Fprintf(tw, "block size:\t%s\n", humanize.IBytes(uint64(p.BlockSize)))
	fmt.Fprintf(tw, "mode:\t%s\n", value.Cond(p.Random, "random sample", "full"))
	fmt.Fprintf(tw, "blocks:\t%s of %s\n", humanize.Comma(int64(p.Len())), humanize.Comma(int64(p.Total)))
	fmt.Fprintf(tw, "inspected:\t%s (%s)\n", humanize.IBytes(uint64(p.Bytes())), percent(p.Bytes(), p.Size))
	if err := tw.Flush(); err != nil {
		return err
	}
	if planFlags.List && p.Len() != 0 {
		var strs []string
		for _, b := range p.Selected() {
			strs = append(strs, strconv.Itoa(b))
		}
		for len(strs) != 0 {
			n := min(len(strs), 12)
			fmt.Println(strings.Join(strs[:n], " "))
			strs = strs[n:]
		}
	}
	return nil
}

func percent(n, total int64) string {
	if total == 0 {
		return "100%"
	}
	return humanize.FtoaWithDigits(100*float64(n)/float64(total), 2) + "%"
}

// runWords implements the "words" subcommand.
func runWords(env *command.Env, args ...string) error {
	wl, err := wordhash.DefaultWordlist()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Printf("%d words OK\n", wl.Len())
		return nil
	}
	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			if n < 0 || n >= wl.Len() {
				return env.Usagef("index %d is not in [0, %d)", n, wl.Len())
			}
			fmt.Printf("%d\t%s\n", n, wl.Word(n))
		} else if i, ok := wl.Lookup(arg); ok {
			fmt.Printf("%d\t%s\n", i, wl.Word(i))
		} else {
			return fmt.Errorf("%q is not in the word list", arg)
		}
	}
	return nil
}
