package messages

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Seed writes the example messages for every category whose file is missing
// in dir, and does the same for the archive directory so there is always
// something to restore from. Existing files are left alone.
func Seed(fsys afero.Fs, dir, archive string) error {
	for _, root := range []string{dir, archive} {
		if root == "" {
			continue
		}
		if err := fsys.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", root, err)
		}
		for _, cat := range Categories() {
			path := filepath.Join(root, cat.FileName())
			if _, err := fsys.Stat(path); err == nil || !errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err := afero.WriteFile(fsys, path, []byte(Format(cat, cat.Examples())+"\n"), 0o644); err != nil {
				return fmt.Errorf("seed %s: %w", path, err)
			}
			log.Debug("seeded message file", "path", path)
		}
	}
	return nil
}
