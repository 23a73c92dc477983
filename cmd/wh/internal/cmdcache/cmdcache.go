// Package cmdcache implements the "cache" subcommand.
package cmdcache

import (
	"fmt"

	"github.com/creachadair/command"
	"github.com/creachadair/wordhash/cache"
	"github.com/creachadair/wordhash/cmd/wh/config"
	"github.com/dustin/go-humanize"
)

var Command = &command.C{
	Name: "cache",
	Help: `Manage the fingerprint cache.

The cache records the digests of files that have been hashed, and is
consulted when a file with the same path, size, and modification time is
hashed again with the same sampling options. Use --cache or set the
WORDHASH_CACHE environment variable to enable it.`,

	Commands: []*command.C{
		{
			Name: "stats",
			Help: "Print statistics about the cache.",
			Run:  command.Adapt(runStats),
		},
		{
			Name: "clear",
			Help: "Remove all entries from the cache.",
			Run:  command.Adapt(runClear),
		},
	},
}

func openCache(env *command.Env) (*cache.Cache, error) {
	set, err := env.Config.(*config.Flags).Resolve()
	if err != nil {
		return nil, err
	}
	if set.CacheDir == "" {
		return nil, env.Usagef("no cache directory specified (provide --cache or set WORDHASH_CACHE)")
	}
	return cache.Open(set.CacheDir)
}

// runStats implements the "cache stats" subcommand.
func runStats(env *command.Env) error {
	c, err := openCache(env)
	if err != nil {
		return err
	}
	defer c.Close()
	st, err := c.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("entries: %s\n", humanize.Comma(int64(st.Entries)))
	fmt.Printf("index:   %s\n", humanize.IBytes(uint64(st.LSMSize)))
	fmt.Printf("values:  %s\n", humanize.IBytes(uint64(st.VLSize)))
	return nil
}

// runClear implements the "cache clear" subcommand.
func runClear(env *command.Env) error {
	c, err := openCache(env)
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintln(env, "<cleared>")
	return nil
}
