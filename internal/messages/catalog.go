package messages

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

var (
	// ErrEmpty is returned when saving a category with no messages.
	ErrEmpty = errors.New("at least one message is required")
	// ErrBlankMessage is returned when quick-adding a blank message.
	ErrBlankMessage = errors.New("message is blank")
)

// Catalog holds the messages of the four categories, backed by one file per
// category in a sounds directory.
type Catalog struct {
	fs  afero.Fs
	dir string

	mu       sync.RWMutex
	lists    [NumCategories][]string
	modTimes [NumCategories]time.Time
}

// NewCatalog returns an empty catalog over dir. Call Load to read the files.
func NewCatalog(fsys afero.Fs, dir string) *Catalog {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Catalog{fs: fsys, dir: dir}
}

// Dir returns the sounds directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Path returns the message file for cat.
func (c *Catalog) Path(cat Category) string {
	return filepath.Join(c.dir, cat.FileName())
}

// Load reads every category file. A missing or unreadable file leaves that
// category empty; Load never fails.
func (c *Catalog) Load() {
	for _, cat := range Categories() {
		c.Reload(cat)
	}
}

// Reload re-reads a single category file.
func (c *Catalog) Reload(cat Category) {
	if !cat.Valid() {
		return
	}
	msgs, mod, err := c.read(cat)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("message file missing", "category", cat, "path", c.Path(cat))
		} else {
			log.Warn("could not read message file", "category", cat, "error", err)
		}
	}

	c.mu.Lock()
	c.lists[cat-1] = msgs
	c.modTimes[cat-1] = mod
	c.mu.Unlock()

	log.Debug("messages loaded", "category", cat, "count", len(msgs))
}

func (c *Catalog) read(cat Category) ([]string, time.Time, error) {
	path := c.Path(cat)
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, time.Time{}, err
	}
	var mod time.Time
	if info, err := c.fs.Stat(path); err == nil {
		mod = info.ModTime()
	}
	return Parse(string(data)), mod, nil
}

// Messages returns a copy of the messages for cat.
func (c *Catalog) Messages(cat Category) []string {
	if !cat.Valid() {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.lists[cat-1]...)
}

// Len returns the number of messages in cat.
func (c *Catalog) Len(cat Category) int {
	if !cat.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lists[cat-1])
}

// ModTime returns when the category file was last modified, or the zero
// time if it was never read.
func (c *Catalog) ModTime(cat Category) time.Time {
	if !cat.Valid() {
		return time.Time{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modTimes[cat-1]
}

// Preview summarizes the messages of cat.
func (c *Catalog) Preview(cat Category) string {
	return Preview(c.Messages(cat))
}

// Save replaces the messages of cat and rewrites its file.
func (c *Catalog) Save(cat Category, msgs []string) error {
	if !cat.Valid() {
		return fmt.Errorf("%w: %d", ErrBadCategory, int(cat))
	}
	clean := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m = strings.TrimSpace(m); m != "" {
			clean = append(clean, m)
		}
	}
	if len(clean) == 0 {
		return ErrEmpty
	}

	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create sounds directory: %w", err)
	}
	path := c.Path(cat)
	if err := afero.WriteFile(c.fs, path, []byte(Format(cat, clean)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cat.FileName(), err)
	}

	c.mu.Lock()
	c.lists[cat-1] = clean
	c.modTimes[cat-1] = time.Now()
	c.mu.Unlock()

	log.Info("messages saved", "category", cat, "count", len(clean))
	return nil
}

// Add appends a single message to cat.
func (c *Catalog) Add(cat Category, msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ErrBlankMessage
	}
	return c.Save(cat, append(c.Messages(cat), msg))
}
