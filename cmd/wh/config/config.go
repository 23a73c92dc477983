// Package config contains shared configuration settings for wh subcommands.
//
// Settings come from three places, in decreasing order of precedence:
// flags given on the command line, a YAML configuration file, and built-in
// defaults.
package config

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/creachadair/command"
	"github.com/creachadair/wordhash"
	"github.com/creachadair/wordhash/cache"
	"github.com/creachadair/wordhash/whlib"
	yaml "gopkg.in/yaml.v3"
)

// Int is an integer flag that records whether it was set.
type Int struct {
	Value int
	IsSet bool
}

func (v *Int) String() string { return strconv.Itoa(v.Value) }

func (v *Int) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	v.Value, v.IsSet = n, true
	return nil
}

// Float is a floating-point flag that records whether it was set.
type Float struct {
	Value float64
	IsSet bool
}

func (v *Float) String() string { return strconv.FormatFloat(v.Value, 'g', -1, 64) }

func (v *Float) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	v.Value, v.IsSet = f, true
	return nil
}

// String is a string flag that records whether it was set.
type String struct {
	Value string
	IsSet bool
}

func (v *String) String() string { return v.Value }

func (v *String) Set(s string) error { v.Value, v.IsSet = s, true; return nil }

// Flags are the flag values shared by all wh subcommands.
type Flags struct {
	Words     Int
	Percent   Float
	Blocks    Int
	BlockSize Int
	MinBlocks Int
	MaxBlocks Int
	Jobs      Int
	Sep       String

	ConfigPath string `flag:"config,default=$WORDHASH_CONFIG,Configuration file path"`
	CacheDir   string `flag:"cache,default=$WORDHASH_CACHE,Fingerprint cache directory (optional)"`
	Verbose    bool   `flag:"v,Enable verbose logging"`
}

// Bind registers the fingerprint flags of f on fs. The remaining flags are
// bound separately via their struct tags.
func (f *Flags) Bind(fs *flag.FlagSet) {
	fs.Var(&f.Words, "nwords", fmt.Sprintf("Number of words to print, 1-%d (default %d)",
		wordhash.NumWords, wordhash.DefaultWords))
	fs.Var(&f.Percent, "percent", "Hash a random sample of this percentage of blocks")
	fs.Var(&f.Blocks, "blocks", "Hash a random sample of this many blocks")
	fs.Var(&f.BlockSize, "block-size", fmt.Sprintf("Sampling block size in bytes (default %d)",
		wordhash.DefaultBlockSize))
	fs.Var(&f.MinBlocks, "min-blocks", "Minimum number of blocks to sample")
	fs.Var(&f.MaxBlocks, "max-blocks", "Maximum number of blocks to sample")
	fs.Var(&f.Jobs, "jobs", "Number of files to hash concurrently (default GOMAXPROCS)")
	fs.Var(&f.Sep, "sep", `Word separator (default " ")`)
}

// File is the contents of a configuration file.
type File struct {
	Words     int     `yaml:"nwords,omitempty"`
	BlockSize int     `yaml:"blockSize,omitempty"`
	MinBlocks int     `yaml:"minBlocks,omitempty"`
	MaxBlocks int     `yaml:"maxBlocks,omitempty"`
	Jobs      int     `yaml:"jobs,omitempty"`
	Sep       *string `yaml:"sep,omitempty"`
	Cache     string  `yaml:"cache,omitempty"`
}

// LoadFile reads a configuration file from path.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if rest, ok := strings.CutPrefix(cfg.Cache, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Cache = filepath.Join(home, rest)
	}
	return &cfg, nil
}

// DefaultPath returns the path of the configuration file used when none is
// specified, or "" if it cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "wordhash", "config.yaml")
}

// Settings are the effective settings for a wh subcommand.
type Settings struct {
	Options  wordhash.Options
	Jobs     int
	Sep      string
	CacheDir string
	Verbose  bool
}

// Resolve combines the flags in f with the configuration file they name, if
// any. A configuration file named explicitly must exist; the default file is
// used only if present.
//
// Zero means "use the default" in wordhash.Options, so word counts and block
// sizes given explicitly as flags are checked here, before they are merged.
func (f *Flags) Resolve() (*Settings, error) {
	if f.Words.IsSet && (f.Words.Value < 1 || f.Words.Value > wordhash.NumWords) {
		return nil, fmt.Errorf("%w: word count %d is not in [1, %d]",
			wordhash.ErrInvalidParameter, f.Words.Value, wordhash.NumWords)
	}
	if f.BlockSize.IsSet && f.BlockSize.Value < 1 {
		return nil, fmt.Errorf("%w: block size %d is not positive",
			wordhash.ErrInvalidParameter, f.BlockSize.Value)
	}
	cfg := new(File)
	path := f.ConfigPath
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		c, err := LoadFile(path)
		if err == nil {
			cfg = c
		} else if f.ConfigPath != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	sep := " "
	if cfg.Sep != nil {
		sep = *cfg.Sep
	}

	s := &Settings{
		Options: wordhash.Options{
			Words: pick(f.Words, cfg.Words),
			SampleOptions: wordhash.SampleOptions{
				BlockSize: pick(f.BlockSize, cfg.BlockSize),
				MinBlocks: pick(f.MinBlocks, cfg.MinBlocks),
				MaxBlocks: pick(f.MaxBlocks, cfg.MaxBlocks),
			},
		},
		Jobs:     pick(f.Jobs, cfg.Jobs),
		Sep:      sep,
		CacheDir: cmp.Or(f.CacheDir, cfg.Cache),
		Verbose:  f.Verbose,
	}
	if f.Sep.IsSet {
		s.Sep = f.Sep.Value
	}
	if f.Percent.IsSet {
		p := f.Percent.Value
		s.Options.Percent = &p
	}
	if f.Blocks.IsSet {
		b := f.Blocks.Value
		s.Options.Blocks = &b
	}
	return s, nil
}

func pick(flag Int, file int) int {
	if flag.IsSet {
		return flag.Value
	}
	return file
}

// Load returns the effective settings for env. Invalid fingerprint options
// are reported as usage errors that also wrap wordhash.ErrInvalidParameter.
func Load(env *command.Env) (*Settings, error) {
	s, err := env.Config.(*Flags).Resolve()
	if err == nil {
		err = s.Options.Validate()
	}
	if errors.Is(err, wordhash.ErrInvalidParameter) {
		return nil, usageError{usage: env.Usagef("%v", err), err: err}
	} else if err != nil {
		return nil, err
	}
	return s, nil
}

// usageError is a usage error that preserves the error it reports.
type usageError struct {
	usage, err error
}

func (u usageError) Error() string   { return u.err.Error() }
func (u usageError) Unwrap() []error { return []error{u.usage, u.err} }

// Hasher returns a hasher for the settings in s. If a cache directory is
// configured, the cache is opened and the caller must call the returned
// close function when the hasher is no longer needed.
func (s *Settings) Hasher() (*whlib.Hasher, func(), error) {
	h := &whlib.Hasher{Options: s.Options}
	if s.CacheDir == "" {
		return h, func() {}, nil
	}
	c, err := cache.Open(s.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	h.Cache = c
	return h, func() { c.Close() }, nil
}

// Join joins words with the separator in s.
func (s *Settings) Join(words []string) string { return strings.Join(words, s.Sep) }
