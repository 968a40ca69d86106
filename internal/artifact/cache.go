// Package artifact downloads, verifies and caches the openapi-to-plantuml
// renderer jar.
//
// A jar is cached as <root>/openapi-to-plantuml-<version>.jar. The file only
// appears after its md5 checksum matched the published value and is trusted
// from then on. Cache hits never touch the network.
package artifact

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultVersion is the renderer release used when none is configured.
const DefaultVersion = "0.1.28"

const (
	filePrefix = "openapi-to-plantuml-"
	fileSuffix = ".jar"
)

// Cache manages renderer jars below a root directory.
type Cache struct {
	root    string
	baseURL string
	client  Doer
	logger  *slog.Logger
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithBaseURL overrides the Maven directory the jar is downloaded from.
func WithBaseURL(baseURL string) Option {
	return func(c *Cache) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient sets the client used for all downloads.
func WithHTTPClient(client Doer) Option {
	return func(c *Cache) { c.client = client }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a cache rooted at root, creating the directory if needed.
func New(root string, opts ...Option) (*Cache, error) {
	if root == "" {
		return nil, errors.New("cache root must not be empty")
	}
	c := &Cache{
		root:    root,
		baseURL: DefaultBaseURL,
		client:  http.DefaultClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "artifact")

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return c, nil
}

// Root returns the cache directory.
func (c *Cache) Root() string { return c.root }

// FileName returns the cache file name for version.
func FileName(version string) string {
	return filePrefix + version + fileSuffix
}

// Path returns the location of version in the cache, cached or not.
func (c *Cache) Path(version string) string {
	return filepath.Join(c.root, FileName(version))
}

// Has reports whether version is present in the cache.
func (c *Cache) Has(version string) bool {
	if checkVersion(version) != nil {
		return false
	}
	info, err := os.Stat(c.Path(version))
	return err == nil && info.Mode().IsRegular()
}

func checkVersion(version string) error {
	if version == "" || version == "." || strings.Contains(version, "..") ||
		strings.ContainsAny(version, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return nil
}

// Resolve returns the local path of the renderer jar for version, downloading
// and verifying it first when it is not cached. Concurrent calls for the same
// version share one download.
func (c *Cache) Resolve(ctx context.Context, version string) (string, error) {
	if err := checkVersion(version); err != nil {
		return "", err
	}
	path := c.Path(version)
	if c.Has(version) {
		c.logger.Debug("renderer found in cache", "version", version, "path", path)
		return path, nil
	}

	// The shared download outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := c.group.DoChan(version, func() (any, error) {
		if c.Has(version) {
			return nil, nil
		}
		return nil, c.download(context.WithoutCancel(ctx), version, path)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return path, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for renderer %s: %w", version, ctx.Err())
	}
}

func (c *Cache) download(ctx context.Context, version, path string) error {
	jarURL, err := c.DownloadURL(ctx, version)
	if err != nil {
		return err
	}
	c.logger.Info("downloading renderer", "version", version, "url", jarURL)

	var jar, checksum []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jar, err = c.get(gctx, jarURL)
		return err
	})
	g.Go(func() error {
		var err error
		checksum, err = c.get(gctx, jarURL+checksumExt)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := verify(jarURL, jar, checksum); err != nil {
		c.logger.Warn("discarding renderer download", "version", version, "error", err)
		return err
	}

	if err := atomicWriteFile(path, jar); err != nil {
		return err
	}
	c.logger.Info("renderer cached", "version", version, "path", path, "bytes", len(jar))
	return nil
}

// verify compares the md5 of data with the first token of the published
// checksum, ignoring case.
func verify(jarURL string, data, checksum []byte) error {
	sum := md5.Sum(data)
	actual := hex.EncodeToString(sum[:])

	var expected string
	if fields := strings.Fields(string(checksum)); len(fields) > 0 {
		expected = fields[0]
	}
	if !strings.EqualFold(actual, expected) {
		return &VerificationError{URL: jarURL, Expected: expected, Actual: actual}
	}
	return nil
}

// atomicWriteFile writes data next to path and renames it into place, so
// readers never see a partial jar.
func atomicWriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Entry is a cached renderer jar.
type Entry struct {
	Version string
	Path    string
}

// List returns the cached jars sorted by path.
func (c *Cache) List() ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(c.root, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}
	sort.Strings(matches)

	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		name := filepath.Base(m)
		entries = append(entries, Entry{
			Version: strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix),
			Path:    m,
		})
	}
	return entries, nil
}

// Remove deletes version from the cache and returns the removed path.
func (c *Cache) Remove(version string) (string, error) {
	if err := checkVersion(version); err != nil {
		return "", err
	}
	path := c.Path(version)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotCached, version)
		}
		return "", fmt.Errorf("removing %s: %w", path, err)
	}
	c.logger.Debug("renderer removed", "version", version, "path", path)
	return path, nil
}

// RemoveAll deletes every cached jar and returns the removed paths.
func (c *Cache) RemoveAll() ([]string, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", e.Path, err)
		}
		removed = append(removed, e.Path)
	}
	return removed, nil
}
