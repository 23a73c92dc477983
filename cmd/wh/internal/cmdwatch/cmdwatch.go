// Package cmdwatch implements the "watch" subcommand.
package cmdwatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/wordhash/cmd/wh/config"
	"github.com/creachadair/wordhash/whlib"
)

var Command = &command.C{
	Name:  "watch",
	Usage: "<file> ...",
	Help: `Print fingerprints whenever files change.

The fingerprint of each file is printed at startup, and again each time
the file is modified, until the program is interrupted. Changes are
reported once the file has not been modified for --settle.`,
	SetFlags: command.Flags(flax.MustBind, &watchFlags),
	Run:      command.Adapt(runWatch),
}

var watchFlags struct {
	Settle time.Duration `flag:"settle,default=250ms,Wait this long after a change before hashing"`
}

func runWatch(env *command.Env, files ...string) error {
	if len(files) == 0 {
		return env.Usagef("no files to watch")
	}
	set, err := config.Load(env)
	if err != nil {
		return err
	}
	h, done, err := set.Hasher()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signal.NotifyContext(env.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w, err := whlib.NewWatcher(h, files, watchFlags.Settle)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	report := func(fr whlib.FileResult) {
		ts := time.Now().Format(time.TimeOnly)
		if fr.Err != nil {
			fmt.Fprintf(os.Stderr, "%s wh: %v\n", ts, fr.Err)
			return
		}
		words, _ := fr.Result.Words(fr.Result.N)
		fmt.Printf("%s %s  %s\n", ts, set.Join(words), fr.Path)
	}
	for _, fr := range h.HashFiles(ctx, w.Files(), set.Jobs) {
		report(fr)
	}
	if set.Verbose {
		fmt.Fprintf(env, "Watching %d files (interrupt to stop)\n", len(files))
	}
	if err := w.Run(ctx, report); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
