package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// ErrItemTooLarge is returned when a value does not fit in the cache at all.
var ErrItemTooLarge = errors.New("item too large for cache")

// timeNow is replaced in tests.
var timeNow = time.Now

// Stats are the counters of one cache level.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
	Items     int
}

// Config sizes the two cache levels.
type Config struct {
	Dir              string
	MemoryCapacity   int64
	DiskCapacity     int64
	CompressionLevel int
}

// DefaultConfig returns a 16MB memory and 128MB disk cache in dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		MemoryCapacity:   16 << 20,
		DiskCapacity:     128 << 20,
		CompressionLevel: 3,
	}
}

// Cache checks memory first, then disk, promoting disk hits to memory.
type Cache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// New creates a two-level cache. An empty Dir disables the disk level.
func New(fsys afero.Fs, cfg Config) (*Cache, error) {
	c := &Cache{memory: NewMemoryCache(cfg.MemoryCapacity)}
	if cfg.Dir == "" {
		return c, nil
	}
	disk, err := NewDiskCache(fsys, cfg.Dir, cfg.DiskCapacity, cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}
	c.disk = disk
	return c, nil
}

// Get looks up key in memory, then on disk.
func (c *Cache) Get(key string) ([]byte, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}
	if c.disk == nil {
		return nil, false
	}
	v, ok := c.disk.Get(key)
	if ok {
		_ = c.memory.Put(key, v)
	}
	return v, ok
}

// Put stores value in both levels. Failures are logged, not returned, since
// a cache miss only costs a re-synthesis.
func (c *Cache) Put(key string, value []byte) {
	if err := c.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		log.Debug("memory cache put failed", "error", err)
	}
	if c.disk != nil {
		if err := c.disk.Put(key, value); err != nil {
			log.Debug("disk cache put failed", "error", err)
		}
	}
}

// Stats returns memory and disk stats; disk is zero when disabled.
func (c *Cache) Stats() (memory, disk Stats) {
	memory = c.memory.Stats()
	if c.disk != nil {
		disk = c.disk.Stats()
	}
	return memory, disk
}

// Close releases the disk level.
func (c *Cache) Close() error {
	if c.disk == nil {
		return nil
	}
	return c.disk.Close()
}

// Key derives a cache key from the text and everything that changes how it
// sounds.
func Key(engine, text, voice string, rate, pitch float64) string {
	data := fmt.Sprintf("%s|%s|%s|%.2f|%.2f", engine, text, voice, rate, pitch)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
