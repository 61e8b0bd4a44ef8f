// Package watch implements `eshc compile --watch`: a recompile loop driven
// by fsnotify, watching the input file's parent directory (fsnotify doesn't
// reliably track a bare-file watch across editor atomic-rename saves) and
// filtering events down to the one path of interest.
package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Run watches path and calls onChange once on startup and again after every
// write/create event on path, until ctx is canceled. onChange errors are
// forwarded to onError rather than stopping the loop, so a single bad edit
// doesn't kill the watch session.
func Run(ctx context.Context, path string, onChange func() error, onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := onChange(); err != nil {
		onError(err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, err := filepath.Abs(ev.Name)
			if err != nil || evAbs != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := onChange(); err != nil {
				onError(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}
