package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

const diskExt = ".pcm.zst"

// DiskCache stores zstd-compressed values as one file per key. The file
// modification time doubles as the LRU clock.
type DiskCache struct {
	fs       afero.Fs
	dir      string
	capacity int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	stats Stats
}

// NewDiskCache creates a disk cache in dir holding at most capacity
// compressed bytes.
func NewDiskCache(fsys afero.Fs, dir string, capacity int64, level int) (*DiskCache, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &DiskCache{
		fs:       fsys,
		dir:      dir,
		capacity: capacity,
		encoder:  enc,
		decoder:  dec,
	}, nil
}

func (dc *DiskCache) path(key string) string {
	return filepath.Join(dc.dir, key+diskExt)
}

// Get reads and decompresses a value. Corrupt entries are removed.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	p := dc.path(key)
	data, err := afero.ReadFile(dc.fs, p)
	if err != nil {
		dc.stats.Misses++
		return nil, false
	}
	out, err := dc.decoder.DecodeAll(data, nil)
	if err != nil {
		_ = dc.fs.Remove(p)
		dc.stats.Misses++
		return nil, false
	}

	now := timeNow()
	_ = dc.fs.Chtimes(p, now, now)
	dc.stats.Hits++
	return out, true
}

// Put compresses and writes a value, evicting the oldest files to fit.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data := dc.encoder.EncodeAll(value, nil)
	if int64(len(data)) > dc.capacity {
		return ErrItemTooLarge
	}

	p := dc.path(key)
	_ = dc.fs.Remove(p)
	if err := dc.evict(int64(len(data))); err != nil {
		return err
	}
	if err := afero.WriteFile(dc.fs, p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

type diskEntry struct {
	path string
	info os.FileInfo
}

func (dc *DiskCache) entries() ([]diskEntry, int64, error) {
	infos, err := afero.ReadDir(dc.fs, dc.dir)
	if err != nil {
		return nil, 0, fmt.Errorf("read cache directory: %w", err)
	}
	var out []diskEntry
	var total int64
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), diskExt) {
			continue
		}
		out = append(out, diskEntry{path: filepath.Join(dc.dir, info.Name()), info: info})
		total += info.Size()
	}
	return out, total, nil
}

// evict removes least recently used files until incoming more bytes fit.
func (dc *DiskCache) evict(incoming int64) error {
	entries, total, err := dc.entries()
	if err != nil {
		return err
	}
	if total+incoming <= dc.capacity {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].info.ModTime().Before(entries[j].info.ModTime())
	})
	for _, e := range entries {
		if total+incoming <= dc.capacity {
			break
		}
		if err := dc.fs.Remove(e.path); err == nil {
			total -= e.info.Size()
			dc.stats.Evictions++
		}
	}
	return nil
}

// Size returns the compressed bytes on disk.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, total, _ := dc.entries()
	return total
}

// Stats returns hit, miss and eviction counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	entries, total, _ := dc.entries()
	s := dc.stats
	s.Size = total
	s.Items = len(entries)
	return s
}

// Clear removes every cached file.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	entries, _, err := dc.entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := dc.fs.Remove(e.path); err != nil {
			return fmt.Errorf("remove %s: %w", e.path, err)
		}
	}
	return nil
}

// Close releases the zstd coders.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if dc.decoder != nil {
		dc.decoder.Close()
		dc.decoder = nil
	}
	if dc.encoder != nil {
		err := dc.encoder.Close()
		dc.encoder = nil
		return err
	}
	return nil
}
