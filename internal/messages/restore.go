package messages

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// ArchiveDir is the name of the backup directory holding the original
// message and audio files.
const ArchiveDir = "Archive"

var (
	// ErrNoArchive is returned when there is no backup to restore from.
	ErrNoArchive = errors.New("archive directory not found")
	// ErrOverlap is returned when the archive and the restore target nest.
	ErrOverlap = errors.New("archive and target directories overlap")
)

// RestoreDir replaces dst with a recursive copy of src. dst is cleared
// first. A missing src, or a src and dst where one contains the other, fails
// before dst is touched.
func RestoreDir(fsys afero.Fs, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNoArchive, src)
	}
	if within(src, dst) || within(dst, src) {
		return fmt.Errorf("%w: %s and %s", ErrOverlap, src, dst)
	}

	if err := fsys.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear %s: %w", dst, err)
	}

	return afero.Walk(fsys, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fsys.MkdirAll(target, 0o755)
		}
		return copyFile(fsys, path, target, info.Mode().Perm())
	})
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func copyFile(fsys afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// Restore copies archive over the catalog's sounds directory and reloads
// every category.
func (c *Catalog) Restore(archive string) error {
	if err := RestoreDir(c.fs, archive, c.dir); err != nil {
		return err
	}
	log.Info("original messages restored", "from", archive, "to", c.dir)
	c.Load()
	return nil
}
