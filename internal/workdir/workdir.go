// Package workdir provides scoped scratch directories.
//
// Each caller acquires a uniquely named temporary directory and receives a
// release function that removes it. Callers defer the release so the
// directory is gone on every exit path, including errors. This replaces
// fixed shared directory names, which leak state between runs and race if
// two operations ever overlap.
package workdir

import (
	"fmt"
	"os"
)

// Acquire creates a uniquely named scratch directory.
//
// The returned release function removes the directory and everything under
// it. Release is safe to call multiple times.
func Acquire(prefix string) (dir string, release func(), err error) {
	dir, err = os.MkdirTemp("", prefix+"-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	release = func() {
		_ = os.RemoveAll(dir)
	}
	return dir, release, nil
}
