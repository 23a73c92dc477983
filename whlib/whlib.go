// Package whlib is a support library for the wh tool.
package whlib

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/creachadair/wordhash"
	"github.com/creachadair/wordhash/cache"
	"golang.org/x/sync/errgroup"
)

// A Hasher computes fingerprints of files with fixed options, consulting a
// cache of previous results if one is provided.
type Hasher struct {
	Options wordhash.Options
	Cache   *cache.Cache // optional
}

// HashFile computes the fingerprint of the file at path. Cache failures are
// logged and otherwise ignored; they never change the result.
func (h *Hasher) HashFile(path string) (*wordhash.Result, error) {
	if h.Cache == nil {
		return wordhash.HashFile(path, h.Options)
	}
	if err := h.Options.Validate(); err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", wordhash.ErrIO, err)
	}
	if d, ok, err := h.Cache.Get(path, fi, h.Options.SampleOptions); err != nil {
		log.Printf("WARNING: %s: %v (ignored)", path, err)
	} else if ok {
		plan, err := wordhash.NewPlan(fi.Size(), h.Options.SampleOptions)
		if err != nil {
			return nil, err
		}
		return wordhash.FromDigest(path, plan, d, h.words())
	}

	res, err := wordhash.HashFile(path, h.Options)
	if err != nil {
		return nil, err
	}
	// Record the state observed before hashing, so that a file modified while
	// it was being read is not cached under its new state.
	if err := h.Cache.Put(path, fi, h.Options.SampleOptions, res.Digest); err != nil {
		log.Printf("WARNING: %s: %v (ignored)", path, err)
	}
	return res, nil
}

func (h *Hasher) words() int {
	if h.Options.Words == 0 {
		return wordhash.DefaultWords
	}
	return h.Options.Words
}

// A FileResult is the outcome of hashing one file. Exactly one of Result and
// Err is non-nil.
type FileResult struct {
	Path   string
	Result *wordhash.Result
	Err    error
}

// HashFiles computes fingerprints for each of paths, running up to jobs
// hashes concurrently (if jobs <= 0, GOMAXPROCS is used). The results are
// returned in the same order as paths. A failure to hash one file does not
// affect the others. If ctx ends, files not yet started report its error.
func (h *Hasher) HashFiles(ctx context.Context, paths []string, jobs int) []FileResult {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	out := make([]FileResult, len(paths))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		out[i].Path = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Result, out[i].Err = h.HashFile(path)
			return nil
		})
	}
	g.Wait()
	return out
}
