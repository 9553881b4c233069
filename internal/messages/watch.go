package messages

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads categories whose files change on disk until ctx is done.
// Each reload is reported on the returned channel, which is closed when
// watching stops. The catalog must be backed by the OS filesystem.
func (c *Catalog) Watch(ctx context.Context) (<-chan Category, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(c.dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", c.dir, err)
	}
	log.Info("fsnotify watching dir", "dir", c.dir)

	out := make(chan Category, NumCategories)
	go func() {
		defer close(out)
		defer func() { _ = w.Close() }()

		for {
			select {
			case <-ctx.Done():
				log.Debug("fsnotify dir unwatched", "dir", c.dir)
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				cat, ok := categoryForFile(event.Name)
				if !ok {
					continue
				}
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				c.Reload(cat)
				select {
				case out <- cat:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Debug("fsnotify error", "dir", c.dir, "error", err)
			}
		}
	}()
	return out, nil
}

func categoryForFile(path string) (Category, bool) {
	base := filepath.Base(path)
	for _, cat := range Categories() {
		if strings.EqualFold(base, cat.FileName()) {
			return cat, true
		}
	}
	return 0, false
}
