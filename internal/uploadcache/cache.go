// Package uploadcache provides a content-addressed cache of attachment
// payloads. Entries are keyed by the SHA-256 digest of the file content, so
// repeat runs can skip re-uploading unchanged attachments.
package uploadcache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"
)

// blobExt is the extension for stored payload copies, which are gzip-compressed.
const blobExt = ".gz"

// Cache stores compressed payload copies keyed by content digest.
type Cache struct {
	path   string
	logger *slog.Logger

	mu sync.RWMutex
}

// New creates a cache at the given path.
func New(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Join(path, "blobs", "sha256"), 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{path: path, logger: logger}, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string { return c.path }

// Put hashes the file at srcPath and stores a compressed copy if one is not
// already present. It returns the content digest and whether the entry was
// already cached.
func (c *Cache) Put(srcPath string) (digest.Digest, bool, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", false, fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	digester := digest.Canonical.Digester()
	if _, err := io.Copy(digester.Hash(), src); err != nil {
		return "", false, fmt.Errorf("hash %s: %w", srcPath, err)
	}
	dgst := digester.Digest()

	c.mu.Lock()
	defer c.mu.Unlock()

	blobPath := c.blobPath(dgst)
	if err := checkBlobFile(blobPath, true); err != nil {
		return "", false, err
	}
	if _, err := os.Stat(blobPath); err == nil {
		c.logger.Debug("cache hit", "digest", dgst, "path", srcPath)
		return dgst, true, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", false, fmt.Errorf("rewind %s: %w", srcPath, err)
	}
	if err := c.writeBlob(blobPath, src); err != nil {
		return "", false, err
	}
	c.logger.Debug("cache store", "digest", dgst, "path", srcPath)
	return dgst, false, nil
}

// Has reports whether a payload with the given digest is cached.
func (c *Cache) Has(dgst digest.Digest) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := checkBlobFile(c.blobPath(dgst), false); err != nil {
		return false
	}
	return true
}

// Open returns a reader for the decompressed cached payload.
// The caller must close the reader.
func (c *Cache) Open(dgst digest.Digest) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blobPath := c.blobPath(dgst)
	if err := checkBlobFile(blobPath, false); err != nil {
		return nil, err
	}
	f, err := os.Open(blobPath)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", dgst, err)
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decompress blob %s: %w", dgst, err)
	}
	return &blobReader{zr: zr, f: f}, nil
}

// Info summarizes the cache contents.
type Info struct {
	Entries   int
	TotalSize int64
}

// Stat returns entry count and total compressed size.
func (c *Cache) Stat() (Info, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var info Info
	entries, err := os.ReadDir(filepath.Join(c.path, "blobs", "sha256"))
	if err != nil {
		return Info{}, fmt.Errorf("read cache: %w", err)
	}
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info.Entries++
		info.TotalSize += fi.Size()
	}
	return info, nil
}

// Clear removes every cached payload.
func (c *Cache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.path, "blobs", "sha256")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read cache: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// blobPath returns the storage path for a digest.
func (c *Cache) blobPath(dgst digest.Digest) string {
	return filepath.Join(c.path, "blobs", dgst.Algorithm().String(), dgst.Encoded()+blobExt)
}

// writeBlob writes a compressed copy atomically: temp file, then rename.
func (c *Cache) writeBlob(blobPath string, src io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(blobPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if _, err := io.Copy(zw, src); err != nil {
		tmp.Close()
		return fmt.Errorf("compress blob: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), blobPath); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}
	return nil
}

// blobReader closes both the gzip layer and the underlying file.
type blobReader struct {
	zr *gzip.Reader
	f  *os.File
}

func (r *blobReader) Read(p []byte) (int, error) { return r.zr.Read(p) }

func (r *blobReader) Close() error {
	zerr := r.zr.Close()
	ferr := r.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
