package whlib

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"slices"
	"time"

	"github.com/creachadair/mds/mapset"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a Watcher waits after the last change to a file
// before hashing it again.
const DefaultSettle = 250 * time.Millisecond

// A Watcher reports a fresh fingerprint for a set of files whenever one of
// them is modified.
//
// The watcher observes the directories containing the files rather than the
// files themselves, so that a file replaced by rename (as editors and
// atomic writers do) continues to be watched.
type Watcher struct {
	h      *Hasher
	fw     *fsnotify.Watcher
	files  mapset.Set[string] // absolute paths
	settle time.Duration
}

// NewWatcher creates a watcher for the specified file paths, which use h to
// compute fingerprints. If settle <= 0, DefaultSettle is used.
func NewWatcher(h *Hasher, paths []string, settle time.Duration) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}
	files := mapset.New[string]()
	dirs := mapset.New[string]()
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		files.Add(abs)
		dirs.Add(filepath.Dir(abs))
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs.Slice() {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return nil, err
		}
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{h: h, fw: fw, files: files, settle: settle}, nil
}

// Files returns the absolute paths of the watched files in sorted order.
func (w *Watcher) Files() []string {
	out := w.files.Slice()
	slices.Sort(out)
	return out
}

// Run monitors for changes to the watched files until ctx ends or the
// watcher fails, calling report with the new fingerprint of each modified
// file once its changes have settled. Run closes the watcher before
// returning, so it can only be called once.
func (w *Watcher) Run(ctx context.Context, report func(FileResult)) error {
	defer w.fw.Close()

	pending := mapset.New[string]()
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case evt, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.files.Has(evt.Name) {
				continue // some other file in the same directory
			} else if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Chmod) {
				continue // removal or rename away; wait for a replacement
			}
			pending.Add(evt.Name)
			timer.Reset(w.settle)

		case <-timer.C:
			paths := pending.Slice()
			slices.Sort(paths)
			pending.Clear()
			for _, fr := range w.h.HashFiles(ctx, paths, 0) {
				report(fr)
			}

		case e, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("WARNING: Error watching files: %v", e)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
