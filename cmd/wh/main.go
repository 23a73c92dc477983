// Program wh prints pronounceable word fingerprints of files.
package main

import (
	"flag"
	"os"
	"slices"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/wordhash/cmd/wh/config"

	"github.com/creachadair/wordhash/cmd/wh/internal/cmdcache"
	"github.com/creachadair/wordhash/cmd/wh/internal/cmdcompare"
	"github.com/creachadair/wordhash/cmd/wh/internal/cmdinfo"
	"github.com/creachadair/wordhash/cmd/wh/internal/cmdsum"
	"github.com/creachadair/wordhash/cmd/wh/internal/cmdwatch"
)

func main() {
	var flags config.Flags
	root := &command.C{
		Name:  command.ProgramName(),
		Usage: "[file ...]\n<command> [arguments]",
		Help: `🗣 Print pronounceable word fingerprints of files.

A fingerprint is a short sequence of common English words derived from
the SHA-512 digest of a file, meant to be read aloud to confirm that two
copies of a file are the same. With no command, the fingerprint of each
named file is printed as for "sum".

Large files may be fingerprinted quickly by hashing a repeatable random
sample of their blocks (--percent or --blocks). See "help sampling".

Settings may also be given in a YAML config file named by --config or
the WORDHASH_CONFIG environment variable. Flags override the file.`,

		SetFlags: func(env *command.Env, fs *flag.FlagSet) {
			flax.MustBind(fs, &flags)
			flags.Bind(fs)
		},

		Init: func(env *command.Env) error {
			env.Config = &flags
			return nil
		},

		Run: command.Adapt(cmdsum.Run),

		Commands: slices.Concat(cmdsum.Commands, cmdinfo.Commands, []*command.C{
			cmdcompare.Command,
			cmdwatch.Command,
			cmdcache.Command,
			command.HelpCommand([]command.HelpTopic{{
				Name: "sampling",
				Help: `How files are sampled.

A file is divided into blocks of --block-size bytes (default 512). By
default every block is hashed. With --percent p, round(p/100 * blocks)
blocks are hashed; with --blocks b, b blocks are hashed. The count is then
limited to [--min-blocks, --max-blocks] where those are set.

The first and last blocks are always included. The others are chosen by a
generator seeded from the file size and the sampling options, so the same
file hashed with the same options always gives the same fingerprint, on
any machine. Changing any sampling option changes the fingerprint.

Sampling does not detect changes to blocks that were not selected, so a
sampled fingerprint is a check against transfer damage, not tampering.`,
			}, {
				Name: "config",
				Help: `Format of the configuration file.

The configuration file is YAML, with any of these keys:

  nwords: 12        # number of words to print
  blockSize: 512    # sampling block size in bytes
  minBlocks: 0      # lower bound on sampled blocks
  maxBlocks: 0      # upper bound on sampled blocks (0 = none)
  jobs: 4           # files hashed concurrently
  sep: " "          # word separator
  cache: ~/.cache/wordhash   # fingerprint cache directory ("~" is $HOME)

If --config and WORDHASH_CONFIG are unset, the file config.yaml in the
wordhash directory of the user configuration directory is used if it exists.`,
			}}),
			command.VersionCommand(),
		}),
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}
