package covers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	fetchTimeout     = 30 * time.Second
	defaultUserAgent = "NotebookSync/1.0"
)

// Cache handles local caching of book cover images.
type Cache struct {
	cacheDir string
	client   *resty.Client
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	client := resty.New().
		SetTimeout(fetchTimeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Cache{
		cacheDir: cacheDir,
		client:   client,
	}, nil
}

// GetCover returns the cached cover for an item, or fetches and caches it if not present.
// Returns the file path to the cached cover, or empty string if unavailable.
func (c *Cache) GetCover(ctx context.Context, itemID, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	cachePath := filepath.Join(c.cacheDir, c.coverFilename(itemID, coverURL))

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	if err := c.fetchAndCache(ctx, coverURL, cachePath); err != nil {
		return "", err
	}

	return cachePath, nil
}

// InvalidateCover removes every cached cover for an item.
func (c *Cache) InvalidateCover(itemID string) error {
	matches, err := filepath.Glob(filepath.Join(c.cacheDir, "cover_"+idHash(itemID)+"_*"))
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// coverFilename derives a filesystem-safe name from the item id and the URL.
func (c *Cache) coverFilename(itemID, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%s_%x.jpg", idHash(itemID), hash[:8])
}

func idHash(itemID string) string {
	hash := sha256.Sum256([]byte(itemID))
	return fmt.Sprintf("%x", hash[:8])
}

// fetchAndCache downloads a cover image and saves it to the cache.
func (c *Cache) fetchAndCache(ctx context.Context, url, cachePath string) error {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("fetch cover: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode())
	}

	// Write to a temp file in the same directory, then rename atomically.
	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(resp.Body()); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, cachePath)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
