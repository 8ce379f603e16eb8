package config

import (
	"context"

	"github.com/pynezz/threatdash/internal/fswatcher"
	"github.com/pynezz/threatdash/internal/util"
)

// Watch reloads the file at path on every change and hands valid results to
// apply. Invalid edits are reported and skipped, the previous config stays.
func Watch(ctx context.Context, path string, apply func(*Cfg)) error {
	return fswatcher.Watch(ctx, path, func() {
		cfg, err := LoadConfig(path)
		if err != nil {
			util.PrintWarning("Ignoring config change: " + err.Error())
			return
		}
		util.PrintInfo("Configuration reloaded")
		apply(cfg)
	})
}
