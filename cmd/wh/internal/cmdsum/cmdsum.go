// Package cmdsum implements the "sum" and "check" subcommands.
package cmdsum

import (
	"fmt"
	"os"
	"strings"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/wordhash"
	"github.com/creachadair/wordhash/clipboard"
	"github.com/creachadair/wordhash/cmd/wh/config"
	"github.com/creachadair/wordhash/manifest"
	"github.com/dustin/go-humanize"
)

var Commands = []*command.C{
	{
		Name:  "sum",
		Usage: "[file ...]",
		Help: `Print the fingerprint of each file.

Each line of output gives the words of one fingerprint. When more than one
file is given, each line also gives the path of the file. With no files,
the fingerprint of the wh program itself is printed.

Use --copy to also copy a single fingerprint to the clipboard.
Use --manifest to also write the fingerprints to a manifest file, which
can later be verified with "check".`,
		SetFlags: command.Flags(flax.MustBind, &sumFlags),
		Run:      command.Adapt(runSum),
	},
	{
		Name:  "check",
		Usage: "<manifest>",
		Help: `Verify the files listed in a manifest.

Each file is hashed again with the options recorded in the manifest,
and reported as OK or FAILED. The command fails if any file does not
match or cannot be read.`,
		Run: command.Adapt(runCheck),
	},
}

var sumFlags struct {
	Copy     bool   `flag:"copy,Copy the fingerprint to the clipboard"`
	Manifest string `flag:"manifest,Write fingerprints to this manifest file"`
}

// Run implements the root command, which behaves as "sum" with default
// flags.
func Run(env *command.Env, files ...string) error { return runSum(env, files...) }

// runSum implements the "sum" subcommand.
func runSum(env *command.Env, files ...string) error {
	set, err := config.Load(env)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate program: %w", err)
		}
		files = []string{self}
	}
	if sumFlags.Copy && len(files) != 1 {
		return env.Usagef("--copy requires exactly one file, got %d", len(files))
	}

	h, done, err := set.Hasher()
	if err != nil {
		return err
	}
	defer done()

	var m *manifest.Manifest
	if sumFlags.Manifest != "" {
		m = manifest.New(set.Options)
	}
	var nerr int
	for _, fr := range h.HashFiles(env.Context(), files, set.Jobs) {
		if fr.Err != nil {
			fmt.Fprintf(os.Stderr, "wh: %v\n", fr.Err)
			nerr++
			continue
		}
		logPlan(env, set, fr.Result)
		words, _ := fr.Result.Words(fr.Result.N)
		line := set.Join(words)
		if len(files) > 1 {
			line += "  " + fr.Path
		}
		fmt.Println(line)

		if sumFlags.Copy {
			if err := clipboard.WriteString(set.Join(words)); err != nil {
				return fmt.Errorf("copying fingerprint: %w", err)
			}
			fmt.Fprintln(env, "<copied>")
		}
		if m != nil {
			m.Add(fr.Result)
		}
	}
	if m != nil {
		if err := m.Save(sumFlags.Manifest); err != nil {
			return fmt.Errorf("save manifest: %w", err)
		}
		fmt.Fprintf(env, "Wrote %d entries to %q\n", len(m.Files), sumFlags.Manifest)
	}
	return failures(nerr, len(files))
}

// runCheck implements the "check" subcommand.
func runCheck(env *command.Env, path string) error {
	set, err := config.Load(env)
	if err != nil {
		return err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	set.Options = m.Options // the manifest determines the fingerprint
	h, done, err := set.Hasher()
	if err != nil {
		return err
	}
	defer done()

	paths := make([]string, len(m.Files))
	for i, e := range m.Files {
		paths[i] = e.Path
	}
	var nerr int
	for i, fr := range h.HashFiles(env.Context(), paths, set.Jobs) {
		if fr.Err != nil {
			fmt.Printf("%s: FAILED (%v)\n", fr.Path, fr.Err)
			nerr++
			continue
		}
		logPlan(env, set, fr.Result)
		got, _ := fr.Result.Words(m.Options.Words)
		if !sameWords(got, m.Files[i].Words) {
			fmt.Printf("%s: FAILED\n", fr.Path)
			if set.Verbose {
				fmt.Fprintf(env, "  want: %s\n  got:  %s\n", set.Join(m.Files[i].Words), set.Join(got))
			}
			nerr++
			continue
		}
		fmt.Printf("%s: OK\n", fr.Path)
	}
	return failures(nerr, len(paths))
}

func sameWords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func failures(n, total int) error {
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d files failed", n, total)
}

// logPlan reports the sampling plan for res, if verbose output is enabled.
func logPlan(env *command.Env, set *config.Settings, res *wordhash.Result) {
	if !set.Verbose {
		return
	}
	p := res.Plan
	mode := "full"
	if p.Random {
		mode = "sampled"
	}
	fmt.Fprintf(env, "%s: %s, %s of %s blocks, %s inspected\n", res.Path, mode,
		humanize.Comma(int64(p.Len())), humanize.Comma(int64(p.Total)), humanize.IBytes(uint64(p.Bytes())))
}
