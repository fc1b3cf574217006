// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package surface

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/convert-drop/pkg/types"
)

// PathPicker selects files by path. The path "-" reads further paths from
// Stdin, one per line; blank lines are skipped.
type PathPicker struct {
	Paths []string
	Stdin io.Reader
}

// Pick returns a handle per path, in order. Paths are not checked: a missing
// file fails only its own upload job.
func (p PathPicker) Pick() ([]types.FileHandle, error) {
	var files []types.FileHandle
	for _, path := range p.Paths {
		if path != "-" {
			files = append(files, types.LocalFile(path))
			continue
		}
		if p.Stdin == nil {
			return nil, fmt.Errorf("path %q given but no stdin available", path)
		}
		sc := bufio.NewScanner(p.Stdin)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" {
				files = append(files, types.LocalFile(line))
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading paths from stdin: %w", err)
		}
	}
	return files, nil
}
