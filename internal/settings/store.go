package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// FileName is the settings file inside the data directory.
const FileName = "settings.json"

// Hook is run after a setting has changed and been persisted.
type Hook func(key string, s Settings)

// Store owns the live Settings. All mutations go through Update or Apply,
// which persist synchronously and then run the hooks registered for the
// changed keys.
type Store struct {
	fs   afero.Fs
	path string

	mu       sync.RWMutex
	current  Settings
	hooks    map[string][]Hook
	anyHooks []Hook
}

// NewStore returns a Store backed by path on fsys. Call Load to read the
// persisted values.
func NewStore(fsys afero.Fs, path string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{
		fs:      fsys,
		path:    path,
		current: Defaults(),
		hooks:   make(map[string][]Hook),
	}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file and merges the stored values over the
// defaults. A missing file yields defaults; a corrupt file also yields
// defaults and is reported through the returned error so the caller can log
// it. A stored value that cannot be coerced falls back on its own.
func (s *Store) Load() error {
	loaded, err := read(s.fs, s.path)

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	return err
}

func read(fsys afero.Fs, path string) (Settings, error) {
	defaults := Defaults()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("read settings file: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return defaults, fmt.Errorf("parse settings file: %w", err)
	}
	raw, ok := doc[StorageKey]
	if !ok {
		return defaults, nil
	}

	var stored map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		return defaults, fmt.Errorf("parse settings object: %w", err)
	}

	merged := defaults
	for _, key := range Keys() {
		v, ok := stored[key]
		if !ok {
			continue
		}
		if err := merged.set(key, v); err != nil {
			log.Warn("Ignoring stored setting", "key", key, "error", err)
		}
	}
	return merged, nil
}

// normalize clamps values assigned directly to a Settings the same way
// Update does, falling back to the default for values it rejects.
func normalize(st *Settings) {
	for _, key := range Keys() {
		v, _ := st.Value(key)
		if err := st.set(key, v); err != nil {
			d, _ := Defaults().Value(key)
			_ = st.set(key, d)
		}
	}
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update sets a single key, persists, and runs the hooks for that key. The
// in-memory value is kept even if persisting fails; the write error is
// returned.
func (s *Store) Update(key string, value any) error {
	s.mu.Lock()
	next := s.current
	if err := next.set(key, value); err != nil {
		s.mu.Unlock()
		return err
	}
	obj, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal settings: %w", err)
	}
	s.current = next
	writeErr := s.writeLocked(obj)
	hooks := append(append([]Hook(nil), s.hooks[key]...), s.anyHooks...)
	s.mu.Unlock()

	for _, h := range hooks {
		h(key, next)
	}
	return writeErr
}

// Toggle flips a boolean setting and returns its new value.
func (s *Store) Toggle(key string) (bool, error) {
	v, err := s.Get().Value(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is not a toggle", ErrInvalidValue, key)
	}
	return !b, s.Update(key, !b)
}

// Apply runs fn against a copy of the settings and commits every changed
// key as one write.
func (s *Store) Apply(fn func(*Settings)) error {
	s.mu.Lock()
	prev := s.current
	next := prev
	fn(&next)
	normalize(&next)
	obj, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal settings: %w", err)
	}
	s.current = next
	writeErr := s.writeLocked(obj)

	var hooks []Hook
	var keys []string
	for _, key := range Keys() {
		a, _ := prev.Value(key)
		b, _ := next.Value(key)
		if a == b {
			continue
		}
		for _, h := range s.hooks[key] {
			hooks = append(hooks, h)
			keys = append(keys, key)
		}
		for _, h := range s.anyHooks {
			hooks = append(hooks, h)
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	for i, h := range hooks {
		h(keys[i], next)
	}
	return writeErr
}

// Reset restores the defaults and persists them.
func (s *Store) Reset() error {
	return s.Apply(func(st *Settings) { *st = Defaults() })
}

// OnChange registers a hook for key. An empty key matches every key.
func (s *Store) OnChange(key string, h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "" {
		s.anyHooks = append(s.anyHooks, h)
		return
	}
	s.hooks[key] = append(s.hooks[key], h)
}

// writeLocked stores obj under StorageKey, keeping any other keys already
// present in the file.
func (s *Store) writeLocked(obj json.RawMessage) error {
	doc := map[string]json.RawMessage{}
	if data, err := afero.ReadFile(s.fs, s.path); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			log.Warn("Overwriting unreadable settings file", "path", s.path, "error", err)
			doc = map[string]json.RawMessage{}
		}
	}

	doc[StorageKey] = obj

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings file: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, out, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
