package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/actions"
	"github.com/auditforge/workspacefs/pkg/config"
	"github.com/auditforge/workspacefs/pkg/editor"
	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// workspace is a loaded filesystem plus the stores and actions around it.
type workspace struct {
	cfg       *config.Config
	stores    *config.Stores
	fs        *filesystem.FileSystem
	actions   *actions.Actions
	autosaver *filesystem.Autosaver
	style     styles
}

// openWorkspace opens the configured stores, hydrates the filesystem from
// its snapshot and runs first-start setup.
//
// A snapshot that cannot be loaded is fatal: continuing would overwrite it
// with the default tree on close.
func openWorkspace(ctx context.Context, cfg *config.Config, met *config.MetricsResult) (*workspace, error) {
	stores, err := config.OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fs := filesystem.New(filesystem.Options{Metrics: met.Filesystem})
	if err := fs.Hydrate(ctx, stores.Snapshot, cfg.Snapshot.Name); err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("hydrate: %w", err)
	}

	ws := &workspace{
		cfg:     cfg,
		stores:  stores,
		fs:      fs,
		actions: actions.New(fs, editor.NewOverlay(time.Now), stores.Content),
	}

	if !cfg.Workspace.SkipWelcome {
		if err := ws.actions.InitializeDefaultWorkspace(ctx); err != nil {
			logger.Warn("Default workspace setup failed: %v", err)
		}
	}

	if cfg.Autosave.Enabled {
		ws.autosaver = filesystem.NewAutosaver(fs, stores.Snapshot, filesystem.AutosaveConfig{
			Name:     cfg.Snapshot.Name,
			Interval: cfg.Autosave.Interval,
			Burst:    cfg.Autosave.Burst,
		})
		ws.autosaver.Start(ctx)
	}

	return ws, nil
}

// resolve turns a command-line path into an absolute tree path. Relative
// paths are joined to the current directory.
func (w *workspace) resolve(path string) string {
	if strings.HasPrefix(path, vfs.Separator) {
		return vfs.CleanPath(path)
	}
	return vfs.JoinPath(w.fs.Cwd(), path)
}

// ready reports whether the tree is hydrated and the content store opens.
func (w *workspace) ready(ctx context.Context) error {
	select {
	case <-w.fs.Hydrated():
	default:
		return errors.New("filesystem not hydrated")
	}
	return content.Open(ctx, w.stores.Content)
}

// Close saves the filesystem state and releases the stores.
func (w *workspace) Close(ctx context.Context) error {
	var saveErr error
	if w.autosaver != nil {
		saveErr = w.autosaver.Stop(ctx)
	} else {
		saveErr = w.fs.Persist(ctx, w.stores.Snapshot, w.cfg.Snapshot.Name)
	}
	return errors.Join(saveErr, w.stores.Close())
}
