// Package resources manages the audio files that sit next to the message
// files: a single clip for the first category and file pools for the rest.
package resources

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	"github.com/spf13/afero"

	"github.com/dgnsrekt/nudge/internal/messages"
)

// AudioExtensions are the file patterns treated as audio resources.
var AudioExtensions = []string{"*.mp3", "*.wav", "*.ogg", "*.m4a", "*.flac"}

var (
	// ErrNotAudio is returned when saving a file with an unknown extension.
	ErrNotAudio = errors.New("not an audio file")
	// ErrNoOpener is returned when no folder opener exists for this OS.
	ErrNoOpener = errors.New("no folder opener available")
	// ErrSingleClip is returned when importing several clips into the
	// category that holds only one.
	ErrSingleClip = errors.New("category holds a single clip")
)

// sourceFs reads the files being imported. Scan walks the OS directly.
var sourceFs = afero.NewOsFs()

// File is an audio resource on disk.
type File struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Store reads and writes audio resources under the sounds directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(fsys afero.Fs, dir string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys, dir: dir}
}

// Dir returns the sounds directory.
func (s *Store) Dir() string {
	return s.dir
}

// IsAudio reports whether name matches one of AudioExtensions.
func IsAudio(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, pattern := range AudioExtensions {
		if ext == strings.TrimPrefix(pattern, "*") {
			return true
		}
	}
	return false
}

// Target returns where a resource named name is stored for cat. The first
// category holds a single clip named after the category; the others keep
// the original name inside their pool directory.
func (s *Store) Target(cat messages.Category, name string) string {
	if cat == messages.CheckIn {
		return filepath.Join(s.dir, "Audio1"+strings.ToLower(filepath.Ext(name)))
	}
	return filepath.Join(s.dir, cat.PoolDir(), filepath.Base(name))
}

// Save writes data as an audio resource for cat and returns its path.
func (s *Store) Save(cat messages.Category, name string, data []byte) (string, error) {
	if !cat.Valid() {
		return "", fmt.Errorf("%w: %d", messages.ErrBadCategory, int(cat))
	}
	if !IsAudio(name) {
		return "", fmt.Errorf("%w: %s", ErrNotAudio, name)
	}

	path := s.Target(cat, name)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	log.Info("audio resource saved", "category", cat, "path", path, "bytes", len(data))
	return path, nil
}

// Pool lists the audio files for cat, sorted by name.
func (s *Store) Pool(cat messages.Category) ([]File, error) {
	if cat == messages.CheckIn {
		var out []File
		for _, pattern := range AudioExtensions {
			matches, err := afero.Glob(s.fs, filepath.Join(s.dir, "Audio1"+strings.TrimPrefix(pattern, "*")))
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if f, ok := s.stat(m); ok {
					out = append(out, f)
				}
			}
		}
		return out, nil
	}

	dir := filepath.Join(s.dir, cat.PoolDir())
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read pool %s: %w", cat.PoolDir(), err)
	}
	var out []File
	for _, info := range infos {
		if info.IsDir() || !IsAudio(info.Name()) {
			continue
		}
		out = append(out, File{
			Path:    filepath.Join(dir, info.Name()),
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

func (s *Store) stat(path string) (File, bool) {
	info, err := s.fs.Stat(path)
	if err != nil || info.IsDir() {
		return File{}, false
	}
	return File{Path: path, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}, true
}

// Scan walks an OS directory for audio files, e.g. to import a folder of
// clips. It honours .gitignore files the way gitcha does.
func Scan(dir string) ([]File, error) {
	ch, err := gitcha.FindAllFilesExcept(dir, AudioExtensions, nil)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	var out []File
	for res := range ch {
		out = append(out, File{
			Path:    res.Path,
			Name:    filepath.Base(res.Path),
			Size:    res.Info.Size(),
			ModTime: res.Info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Import copies the audio files at src, a single file or a directory scanned
// with Scan, into the resources of cat and returns the stored paths. Nothing
// is written when src holds no audio, or several clips for the first
// category.
func (s *Store) Import(cat messages.Category, src string) ([]string, error) {
	info, err := sourceFs.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", src, err)
	}

	var files []File
	if info.IsDir() {
		if files, err = Scan(src); err != nil {
			return nil, err
		}
	} else {
		if !IsAudio(src) {
			return nil, fmt.Errorf("%w: %s", ErrNotAudio, src)
		}
		files = []File{{Path: src, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}}
	}

	switch {
	case len(files) == 0:
		return nil, fmt.Errorf("%w: nothing to import in %s", ErrNotAudio, src)
	case cat == messages.CheckIn && len(files) > 1:
		return nil, fmt.Errorf("%w: found %d files in %s", ErrSingleClip, len(files), src)
	}

	saved := make([]string, 0, len(files))
	for _, f := range files {
		data, err := afero.ReadFile(sourceFs, f.Path)
		if err != nil {
			return saved, fmt.Errorf("read %s: %w", f.Path, err)
		}
		path, err := s.Save(cat, f.Name, data)
		if err != nil {
			return saved, err
		}
		saved = append(saved, path)
	}
	return saved, nil
}

// OpenFolder opens dir in the platform file manager.
func OpenFolder(dir string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", dir)
	case "windows":
		cmd = exec.Command("explorer", dir)
	default:
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return ErrNoOpener
		}
		cmd = exec.Command("xdg-open", dir)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
