package driver

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"mcc/internal/diag"
	"mcc/internal/trace"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// CacheKey identifies a compiled unit on disk.
type CacheKey [32]byte

func (k CacheKey) String() string { return hex.EncodeToString(k[:]) }

// NewCacheKey hashes the schema, the target triple and the file content.
func NewCacheKey(triple, content string) CacheKey {
	h := sha256.New()
	var schema [2]byte
	binary.LittleEndian.PutUint16(schema[:], diskCacheSchemaVersion)
	_, _ = h.Write(schema[:])
	_, _ = h.Write([]byte(triple))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(content))
	var out CacheKey
	copy(out[:], h.Sum(nil))
	return out
}

// DiskCache stores rendered assembly of clean units between processes.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached unit. Only units without warnings or errors are
// stored, so no spans need to survive the round trip.
type DiskPayload struct {
	Schema   uint16
	Triple   string
	Assembly string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache uses dir as the cache root, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key CacheKey) string {
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key CacheKey, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// Already renamed on success.
		_ = os.Remove(tmp)
	}()

	payload.Schema = diskCacheSchemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads a payload. A missing entry or one written by another schema is a miss.
func (c *DiskCache) Get(key CacheKey, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Compile is Run behind the database's disk cache: a hit skips every stage
// and its hooks, and clean results are stored for later processes.
func Compile(ctx context.Context, db *Database, path string, cb Callbacks) (*Outcome, error) {
	cache := db.opts.Cache
	if cache == nil {
		return Run(ctx, db, path, cb)
	}
	tgt, err := db.target.Get(ctx, targetKey)
	if err != nil {
		return nil, err
	}
	content, err := db.sourceText.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	key := NewCacheKey(tgt.Triple(), content)
	var payload DiskPayload
	if ok, err := cache.Get(key, &payload); err == nil && ok && payload.Triple == tgt.Triple() {
		trace.Point(trace.WithUnit(ctx, path), trace.ScopeDriver, "disk-cache:hit", tgt.Triple())
		return &Outcome{Path: path, Target: tgt, Assembly: payload.Assembly, Cached: true}, nil
	}

	out, err := Run(ctx, db, path, cb)
	if err != nil {
		return nil, err
	}
	if errs, warns := diag.CountBySeverity(out.Diagnostics); out.Status == StatusOK && errs == 0 && warns == 0 {
		// Write failures are ignored.
		_ = cache.Put(key, &DiskPayload{Triple: tgt.Triple(), Assembly: out.Assembly})
	}
	return out, nil
}
