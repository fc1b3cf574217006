// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package save persists converted artifacts to the download directory.
//
// Each save creates a private temporary file holding the payload (the
// transient reference), reserves a final name that no other save can take,
// moves the payload into place, and releases the temporary file. Release
// happens exactly once per save on every exit path.
package save

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/convert-drop/pkg/types"
)

const (
	tempPattern = ".convert-drop-*.part"

	// maxCollisions bounds the "name (n).ext" search.
	maxCollisions = 10000
)

// ErrEmptyFilename is returned when neither the artifact nor the trigger
// supplies a usable filename.
var ErrEmptyFilename = errors.New("empty filename")

// Trigger saves artifacts into a directory.
type Trigger struct {
	dir      string
	fallback string

	// onRelease, when set, observes every released temp path.
	onRelease func(path string)
}

// NewTrigger returns a Trigger saving into dir. fallback names artifacts
// whose own filename is unusable.
func NewTrigger(dir, fallback string) *Trigger {
	return &Trigger{dir: dir, fallback: fallback}
}

// Dir returns the download directory.
func (t *Trigger) Dir() string { return t.dir }

// Save writes a into the download directory and returns the saved path.
// An existing file is never overwritten: the name gets a " (n)" suffix.
func (t *Trigger) Save(a types.Artifact) (string, error) {
	name := SafeName(a.Filename, t.fallback)
	if name == "" {
		return "", ErrEmptyFilename
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	h, err := t.newHandle(a.Payload)
	if err != nil {
		return "", err
	}
	defer h.release()

	dest, err := t.reserve(name)
	if err != nil {
		return "", err
	}
	if err := os.Rename(h.path, dest); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("moving artifact into place: %w", err)
	}
	return dest, nil
}

// handle is the transient reference to one payload.
type handle struct {
	path      string
	once      sync.Once
	onRelease func(string)
}

func (t *Trigger) newHandle(payload []byte) (*handle, error) {
	f, err := os.CreateTemp(t.dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	h := &handle{path: f.Name(), onRelease: t.onRelease}

	_, writeErr := f.Write(payload)
	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil {
		writeErr = os.Chmod(h.path, 0o644)
	}
	if writeErr != nil {
		h.release()
		return nil, fmt.Errorf("writing temp file: %w", writeErr)
	}
	return h, nil
}

// release removes the temp file if it is still there. Safe to call twice;
// only the first call has any effect.
func (h *handle) release() {
	h.once.Do(func() {
		// Gone already when the payload was moved into place.
		os.Remove(h.path)
		if h.onRelease != nil {
			h.onRelease(h.path)
		}
	})
}

// reserve atomically creates an empty placeholder for name, or for the
// first free "name (n).ext", and returns its path.
func (t *Trigger) reserve(name string) (string, error) {
	for i := 0; i < maxCollisions; i++ {
		p := filepath.Join(t.dir, Numbered(name, i))
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("reserving %s: %w", p, err)
		}
		f.Close()
		return p, nil
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", name, maxCollisions)
}

// Numbered returns name for n == 0 and "stem (n).ext" otherwise.
func Numbered(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

// SafeName reduces a server-supplied filename to a bare base name. Names
// that reduce to nothing usable become fallback (itself reduced the same way).
func SafeName(name, fallback string) string {
	if n := baseName(name); n != "" {
		return n
	}
	return baseName(fallback)
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(path.Base(name))
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}
