package fswatcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pynezz/threatdash/internal/util"
)

// settle is how long a burst of events must be quiet before onChange fires.
const settle = 150 * time.Millisecond

// Watch calls onChange whenever file is written, created or renamed into place.
// The parent directory is watched, so a file replaced by rename is still seen.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, file string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	relevant := fsnotify.Write | fsnotify.Create | fsnotify.Rename

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&relevant == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.PrintError("watcher: " + err.Error())
		}
	}
}
