// Package cache implements a persistent cache of file digests.
//
// A cached digest is keyed by the absolute path of the file and the sampling
// options used to compute it, and is valid only while the size and
// modification time of the file are unchanged. The cache is stored in a
// Badger database.
package cache

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/creachadair/wordhash"
	"github.com/dgraph-io/badger/v4"
)

// A Cache is a persistent map from file state to digest. It is safe for
// concurrent use by multiple goroutines.
type Cache struct {
	db *badger.DB
}

// Open opens or creates a cache in the specified directory.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("no cache directory specified")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(logger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// logger reports database errors and warnings to the standard logger, and
// discards other messages.
type logger struct{}

func (logger) Errorf(f string, args ...any)   { log.Printf("ERROR: cache: "+f, args...) }
func (logger) Warningf(f string, args ...any) { log.Printf("WARNING: cache: "+f, args...) }
func (logger) Infof(string, ...any)           {}
func (logger) Debugf(string, ...any)          {}

// Close closes the cache, after which it must not be used.
func (c *Cache) Close() error { return c.db.Close() }

// entry is the encoding of a cached digest.
type entry struct {
	Size    int64           `json:"size"`
	ModTime int64           `json:"mtime"` // Unix nanoseconds
	Digest  wordhash.Digest `json:"digest"`
}

// key returns the database key for the file at path hashed with opts.
// The options are folded into a 64-bit tag so that the key length depends
// only on the path.
func key(path string, opts wordhash.SampleOptions) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	// Normalize the block size so the default and an explicit 512 agree.
	if opts.BlockSize == 0 {
		opts.BlockSize = wordhash.DefaultBlockSize
	}
	tag, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(abs)+9)
	out = append(out, abs...)
	out = append(out, 0)
	return binary.BigEndian.AppendUint64(out, xxhash.Sum64(tag)), nil
}

// Get returns the cached digest for the file at path with the given state,
// and reports whether it was found. A digest recorded for a different size
// or modification time is not returned.
func (c *Cache) Get(path string, fi os.FileInfo, opts wordhash.SampleOptions) (wordhash.Digest, bool, error) {
	k, err := key(path, opts)
	if err != nil {
		return wordhash.Digest{}, false, err
	}
	var e entry
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return wordhash.Digest{}, false, nil
	} else if err != nil {
		return wordhash.Digest{}, false, fmt.Errorf("cache lookup: %w", err)
	}
	if e.Size != fi.Size() || e.ModTime != fi.ModTime().UnixNano() {
		return wordhash.Digest{}, false, nil
	}
	return e.Digest, true, nil
}

// Put records the digest of the file at path with the given state.
func (c *Cache) Put(path string, fi os.FileInfo, opts wordhash.SampleOptions, d wordhash.Digest) error {
	k, err := key(path, opts)
	if err != nil {
		return err
	}
	val, err := json.Marshal(entry{Size: fi.Size(), ModTime: fi.ModTime().UnixNano(), Digest: d})
	if err != nil {
		return err
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, val)
	}); err != nil {
		return fmt.Errorf("cache update: %w", err)
	}
	return nil
}

// Stats describe the contents of a cache.
type Stats struct {
	Entries int   // number of cached digests
	LSMSize int64 // bytes used by the key tree
	VLSize  int64 // bytes used by the value log
}

// Stats reports statistics about the contents of c.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			s.Entries++
		}
		return nil
	})
	s.LSMSize, s.VLSize = c.db.Size()
	return s, err
}

// Clear removes all entries from c.
func (c *Cache) Clear() error { return c.db.DropAll() }
