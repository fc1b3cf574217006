// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package surface

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/convert-drop/pkg/types"
)

// Watcher turns file activity in a drop folder into drag signals on a
// Surface. The first new file starts a drag (DragEnter), further creates and
// writes continue it (DragOver), removing every pending file before it
// settles cancels it (DragLeave), and once the folder has been quiet for the
// settle window all pending files are dropped together, sorted by name.
//
// Files present before Run starts, hidden files, and partial-download
// suffixes are ignored.
type Watcher struct {
	dir     string
	settle  time.Duration
	surface *Surface
	log     *slog.Logger
}

// NewWatcher returns a Watcher feeding s from dir.
func NewWatcher(dir string, settle time.Duration, s *Surface, log *slog.Logger) *Watcher {
	if settle <= 0 {
		settle = types.DefaultSettle
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{dir: dir, settle: settle, surface: s, log: log}
}

// Run watches until ctx is done. It creates the drop folder if needed.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating drop folder: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.log.Info("watching drop folder", "dir", w.dir, "settle", w.settle)

	pending := make(map[string]struct{})
	var settled <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			switch w.observe(ctx, ev, pending) {
			case activity:
				settled = time.After(w.settle)
			case cancelled:
				settled = nil
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("drop folder watch error", "err", err)

		case <-settled:
			settled = nil
			w.drop(ctx, pending)
		}
	}
}

type effect int

const (
	unchanged effect = iota
	activity
	cancelled
)

// observe applies one filesystem event to the pending set.
func (w *Watcher) observe(ctx context.Context, ev fsnotify.Event, pending map[string]struct{}) effect {
	if ignored(filepath.Base(ev.Name)) {
		return unchanged
	}
	_, isPending := pending[ev.Name]

	switch {
	case ev.Has(fsnotify.Create):
		// A file already gone again still counts; its Remove follows.
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			return unchanged
		}
		kind := DragOver
		if len(pending) == 0 {
			kind = DragEnter
		}
		pending[ev.Name] = struct{}{}
		w.signal(ctx, &Event{Kind: kind})
		return activity

	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Chmod):
		if !isPending {
			return unchanged
		}
		w.signal(ctx, &Event{Kind: DragOver})
		return activity

	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if !isPending {
			return unchanged
		}
		delete(pending, ev.Name)
		if len(pending) > 0 {
			return activity
		}
		w.signal(ctx, &Event{Kind: DragLeave})
		return cancelled
	}
	return unchanged
}

// drop delivers every pending file that still exists and clears the set.
func (w *Watcher) drop(ctx context.Context, pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		delete(pending, p)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	files := make([]types.FileHandle, len(paths))
	for i, p := range paths {
		files[i] = types.LocalFile(p)
	}
	w.log.Debug("files dropped", "count", len(files))
	w.signal(ctx, &Event{Kind: Drop, Files: files})
}

func (w *Watcher) signal(ctx context.Context, ev *Event) {
	w.surface.Handle(ctx, ev)
	if !ev.DefaultPrevented() {
		w.log.Warn("drop folder event left unhandled", "event", ev.Kind)
	}
}

// ignored filters editor swap files, dotfiles, and in-progress downloads.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".part") ||
		strings.HasSuffix(name, ".crdownload") ||
		strings.HasSuffix(name, ".tmp")
}
