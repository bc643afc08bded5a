package xroute

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Factory returns a fresh router instance.
type Factory func() Routable

// Catalog maps source names to router factories. Go cannot load code from a
// directory at run time, so routers are linked in and listed here under the
// name of the file that declares them.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// DefaultCatalog is the catalog Provide registers with.
var DefaultCatalog = NewCatalog()

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Provide registers f in DefaultCatalog under name, typically the file stem
// of the router's source file.
func Provide(name string, f Factory) {
	DefaultCatalog.Provide(name, f)
}

// Provide registers f under name, replacing any previous factory.
func (c *Catalog) Provide(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// Lookup returns the factory registered under name.
func (c *Catalog) Lookup(name string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[name]
	return f, ok
}

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Discovered is a router found by a Loader.
type Discovered struct {
	// Source is the file the router was found through.
	Source string
	// Path is the mount path: the router's own Path, or "/" + the file stem.
	Path   string
	Router Routable
}

// Loader discovers routers in a directory.
type Loader interface {
	Load(ctx context.Context, dir string) ([]Discovered, error)
}

// CatalogLoader discovers routers by listing a directory of an fs.FS and
// instantiating the catalog factory named after each source file's stem.
// Files without a factory, and factories that fail, are skipped.
type CatalogLoader struct {
	fsys       fs.FS
	catalog    *Catalog
	extensions []string
	logger     *slog.Logger
}

// LoaderOption configures a CatalogLoader.
type LoaderOption func(*CatalogLoader)

// WithFileExtensions sets the source file extensions that are considered.
// Defaults to ".go".
func WithFileExtensions(exts ...string) LoaderOption {
	return func(l *CatalogLoader) {
		l.extensions = exts
	}
}

// WithLoaderLogger sets the logger skipped files are reported to.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *CatalogLoader) {
		l.logger = logger
	}
}

// NewCatalogLoader creates a loader over fsys backed by catalog. A nil
// catalog means DefaultCatalog.
func NewCatalogLoader(fsys fs.FS, catalog *Catalog, opts ...LoaderOption) *CatalogLoader {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	l := &CatalogLoader{
		fsys:       fsys,
		catalog:    catalog,
		extensions: []string{".go"},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load lists dir and returns the routers it yields, in file name order.
func (l *CatalogLoader) Load(ctx context.Context, dir string) ([]Discovered, error) {
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read router dir %s: %w", dir, err)
	}

	var found []Discovered
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		stem, ok := l.stem(name)
		if !ok {
			continue
		}
		source := path.Join(dir, name)

		factory, ok := l.catalog.Lookup(stem)
		if !ok {
			l.logger.Debug("no router registered for file", "file", source)
			continue
		}

		router, err := instantiate(factory)
		if err != nil {
			l.logger.Warn("cannot load router", "file", source, "error", err)
			continue
		}
		if router == nil {
			continue
		}

		mount := router.router().Path
		if mount == "" {
			mount = stem
		}
		if !strings.HasPrefix(mount, "/") {
			mount = "/" + mount
		}

		found = append(found, Discovered{Source: source, Path: mount, Router: router})
	}
	return found, nil
}

// stem strips a recognized extension. Test files and package doc files never
// declare routers.
func (l *CatalogLoader) stem(name string) (string, bool) {
	if strings.HasSuffix(name, "_test.go") || name == "doc.go" {
		return "", false
	}
	ext := path.Ext(name)
	if ext == "" || !slices.Contains(l.extensions, ext) {
		return "", false
	}
	return strings.TrimSuffix(name, ext), true
}

func instantiate(f Factory) (r Routable, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("factory panicked: %v", rec)
		}
	}()
	r = f()
	if isNilRouter(r) {
		return nil, nil
	}
	return r, nil
}

func isNilRouter(r Routable) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
