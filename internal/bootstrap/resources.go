package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

// DefaultWorkspaceID is the session fed from the resources directory.
const DefaultWorkspaceID = "default"

// resourceSettle is how long a file must stay quiet before it is loaded.
var resourceSettle = 500 * time.Millisecond

// SyncResources loads the files already in dir into the default workspace
// and keeps following changes until ctx is done. The newest document and
// the newest CSV win; removing a file unloads it.
func (c *Container) SyncResources(ctx context.Context, dir string, watcher ports.FileWatcher) (*Workspace, error) {
	ws, err := c.OpenWorkspace(DefaultWorkspaceID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading resources dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			c.applyResource(ctx, ws, filepath.Join(dir, e.Name()))
		}
	}

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("watching resources dir: %w", err)
	}
	c.Logger.Info("watching resources", zap.String("dir", dir))

	go func() {
		defer watcher.Stop()
		timers := make(map[string]*time.Timer)
		for ev := range events {
			c.Logger.Debug("resource event", zap.String("path", ev.Path), zap.Stringer("op", ev.Operation))
			if ev.Operation == ports.FileDeleted {
				if t, ok := timers[ev.Path]; ok {
					t.Stop()
				}
				c.removeResource(ctx, ws, ev.Path)
				continue
			}
			if t, ok := timers[ev.Path]; ok {
				t.Reset(resourceSettle)
				continue
			}
			path := ev.Path
			timers[path] = time.AfterFunc(resourceSettle, func() {
				c.applyResource(ctx, ws, path)
			})
		}
		for _, t := range timers {
			t.Stop()
		}
	}()
	return ws, nil
}

func (c *Container) applyResource(ctx context.Context, ws *Workspace, path string) {
	if ctx.Err() != nil {
		return
	}
	var err error
	switch {
	case strings.EqualFold(filepath.Ext(path), ".csv"):
		err = ws.LoadDatasetFile(ctx, path)
	case c.Loader.Supports(path):
		err = ws.LoadDocumentFile(ctx, path)
	default:
		return
	}
	if err != nil {
		c.Logger.Warn("resource not loaded", zap.String("path", path), zap.Error(err))
		return
	}
	c.Logger.Info("resource loaded", zap.String("path", path))
}

func (c *Container) removeResource(ctx context.Context, ws *Workspace, path string) {
	name := filepath.Base(path)
	res := ws.Resources()
	switch name {
	case res.Document:
		if err := ws.UnloadDocument(ctx); err != nil {
			c.Logger.Warn("document not unloaded", zap.String("path", path), zap.Error(err))
			return
		}
	case res.Dataset:
		ws.UnloadDataset()
	default:
		return
	}
	c.Logger.Info("resource removed", zap.String("path", path))
}
