package dfsense

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jward/dfsense/internal/config"
	"github.com/jward/dfsense/internal/outline"
	"github.com/jward/dfsense/internal/resolve"
	"github.com/jward/dfsense/internal/store"
)

// ErrNoIndex is returned by index and query operations on an Engine created
// without a database path.
var ErrNoIndex = errors.New("dfsense: no library index configured")

// Engine ties together outline extraction, definition lookup and the
// library index.
type Engine struct {
	store    *store.Store // nil when created without a database path
	resolver *resolve.Resolver
	logger   *log.Logger

	languageID     string
	sourceExts     []string
	classExts      []string
	libraryPaths   []string
	ignorePatterns []string
	ignore         []glob.Glob
	cacheSize      int
	resolverFS     fs.FS

	// useParallel enables the parallel extraction pipeline.
	useParallel bool

	// progress, when set, is called once per file considered by IndexFiles.
	progress func(path string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguageID sets the editor language id whose open documents are
// searched for definitions. Defaults to "vdf".
func WithLanguageID(id string) Option {
	return func(e *Engine) {
		e.languageID = id
	}
}

// WithExtensions sets the source extensions (general reference search) and
// class extensions (superclass search). Empty slices keep the defaults.
func WithExtensions(source, class []string) Option {
	return func(e *Engine) {
		if len(source) > 0 {
			e.sourceExts = source
		}
		if len(class) > 0 {
			e.classExts = class
		}
	}
}

// WithLibraryPaths sets the external library directories, searched in order.
func WithLibraryPaths(paths ...string) Option {
	return func(e *Engine) {
		e.libraryPaths = paths
	}
}

// WithIgnore excludes library files whose base name matches any of the glob
// patterns from indexing.
func WithIgnore(patterns ...string) Option {
	return func(e *Engine) {
		e.ignorePatterns = patterns
	}
}

// WithParallel controls parallel extraction. When true (default), IndexFiles
// uses a worker pool for extraction, with a single writer committing each
// file's batch to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithLogger routes per-file warnings. Defaults to discarding them.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCacheSize bounds the number of library files the resolver keeps in
// memory.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithResolverFS makes definition lookup read library directories from fsys
// instead of the host filesystem.
func WithResolverFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.resolverFS = fsys
	}
}

// WithProgress registers a callback invoked once for every file IndexFiles
// considers, whether it was re-extracted, unchanged or failed.
func WithProgress(fn func(path string)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithConfig applies a loaded configuration. Library paths are the
// configured ones merged with the workspace config.ws entries found under
// rootDir.
func WithConfig(cfg *config.Config, rootDir string) Option {
	return func(e *Engine) {
		e.languageID = cfg.LanguageID
		WithExtensions(cfg.Extensions.Source, cfg.Extensions.Class)(e)
		e.libraryPaths = config.ExternalPaths(cfg, rootDir, e.logger)
		e.ignorePatterns = cfg.Library.Ignore
		e.useParallel = cfg.Index.Parallel
		e.cacheSize = cfg.Cache.MaxFiles
	}
}

// New creates an Engine. When dbPath is non-empty the library index is
// opened (and created if needed) there; with an empty dbPath only Outline
// and Definition are available.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		languageID:  resolve.DefaultLanguageID,
		sourceExts:  resolve.DefaultSourceExtensions,
		classExts:   resolve.DefaultClassExtensions,
		useParallel: true, // default to parallel extraction
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}

	for _, pattern := range e.ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("dfsense: ignore pattern %q: %w", pattern, err)
		}
		e.ignore = append(e.ignore, g)
	}

	r, err := resolve.New(resolve.Options{
		LanguageID:       e.languageID,
		SourceExtensions: e.sourceExts,
		ClassExtensions:  e.classExts,
		ExternalPaths:    e.libraryPaths,
		FS:               e.resolverFS,
		Logger:           e.logger,
		CacheSize:        e.cacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("dfsense: create resolver: %w", err)
	}
	e.resolver = r

	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			r.Close()
			return nil, fmt.Errorf("dfsense: create index dir: %w", err)
		}
		s, err := store.NewStore(dbPath)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("dfsense: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			r.Close()
			return nil, fmt.Errorf("dfsense: migrate: %w", err)
		}
		e.store = s
	}

	return e, nil
}

// Close releases the Engine's database and cache resources.
func (e *Engine) Close() error {
	e.resolver.Close()
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store for direct access, or nil.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// LanguageID returns the language id of documents the Engine handles.
func (e *Engine) LanguageID() string {
	return e.languageID
}

// LibraryPaths returns the external library directories in search order.
func (e *Engine) LibraryPaths() []string {
	return e.libraryPaths
}

// Outline extracts the symbol tree and nesting diagnostics of text. The
// context is consulted once, before the pass starts.
func (e *Engine) Outline(ctx context.Context, text string) (OutlineResult, error) {
	if err := ctx.Err(); err != nil {
		return OutlineResult{}, err
	}
	return outline.Extract(text), nil
}

// Definition resolves the token under the cursor. Once started, a lookup
// runs to completion; the context is consulted only before it begins.
func (e *Engine) Definition(ctx context.Context, req DefinitionRequest) (DefinitionOutcome, error) {
	if err := ctx.Err(); err != nil {
		return DefinitionOutcome{}, err
	}
	return e.resolver.Resolve(req), nil
}

// Indexable reports whether path has an indexed extension and is not
// ignored.
func (e *Engine) Indexable(path string) bool {
	name := filepath.Base(path)
	if !resolve.HasExtension(name, e.sourceExts) && !resolve.HasExtension(name, e.classExts) {
		return false
	}
	for _, g := range e.ignore {
		if g.Match(name) {
			return false
		}
	}
	return true
}

// LibraryFiles lists the indexable files directly inside each library
// directory. Unreadable directories are logged and skipped.
func (e *Engine) LibraryFiles() []string {
	var paths []string
	seen := make(map[string]bool)
	for _, dir := range e.libraryPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			e.logger.Printf("warning: read library path %s: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() || seen[path] || !e.Indexable(path) {
				continue
			}
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths
}

// IndexLibraries brings the index in line with the library directories:
// changed and new files are (re)extracted and files that are no longer
// present are removed.
func (e *Engine) IndexLibraries(ctx context.Context) error {
	if e.store == nil {
		return ErrNoIndex
	}
	paths := e.LibraryFiles()

	indexErr := e.IndexFiles(ctx, paths)

	current := make(map[string]bool, len(paths))
	for _, p := range paths {
		current[p] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("dfsense: list indexed files: %w", err)
	}
	var stale []string
	for _, f := range files {
		if !current[f.Path] {
			stale = append(stale, f.Path)
		}
	}
	if err := e.RemoveFiles(stale); err != nil {
		return err
	}

	if err := e.store.SetMetadata("library_paths", strings.Join(e.libraryPaths, string(os.PathListSeparator))); err != nil {
		return fmt.Errorf("dfsense: %w", err)
	}
	return indexErr
}

// IndexFiles indexes the given file paths. When WithParallel is enabled,
// uses a worker pool for concurrent extraction with batched SQLite writes.
// Otherwise falls back to the serial path.
//
// For each file:
// 1. Skip files that are not indexable
// 2. Skip unchanged files (same content hash)
// 3. Delete stale data, insert the file record
// 4. Extract the outline and store symbols and diagnostics
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.store == nil {
		return ErrNoIndex
	}
	if e.useParallel {
		return e.indexFilesParallel(ctx, paths)
	}
	return e.indexFilesSerial(ctx, paths)
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.indexFile(path); err != nil {
			e.logger.Printf("warning: index %s: %v", path, err)
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
		e.reportProgress(path)
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(path string) error {
	item, skip, err := e.prepareFile(path)
	if err != nil || skip {
		return err
	}
	res := outline.Extract(string(item.content))
	if err := writeOutline(e.store, item.fileID, res); err != nil {
		if derr := e.store.DeleteFile(item.fileID); derr != nil {
			e.logger.Printf("warning: drop %s: %v", path, derr)
		}
		return fmt.Errorf("store outline: %w", err)
	}
	return nil
}

func (e *Engine) reportProgress(path string) {
	if e.progress != nil {
		e.progress(path)
	}
}

// RemoveFiles drops the given paths from the index. Paths that were never
// indexed are ignored.
func (e *Engine) RemoveFiles(paths []string) error {
	if e.store == nil {
		return ErrNoIndex
	}
	for _, path := range paths {
		f, err := e.store.FileByPath(path)
		if err != nil {
			return fmt.Errorf("dfsense: remove %s: %w", path, err)
		}
		if f == nil {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return fmt.Errorf("dfsense: remove %s: %w", path, err)
		}
	}
	return nil
}

// writeOutline stores a file's symbol tree depth-first, so every parent is
// written before its children, followed by its diagnostics.
func writeOutline(ds store.DataStore, fileID int64, res outline.Result) error {
	var write func(syms []*outline.Symbol, parent *int64) error
	write = func(syms []*outline.Symbol, parent *int64) error {
		for _, sym := range syms {
			row := &store.Symbol{
				FileID:         fileID,
				Name:           sym.Name,
				Kind:           sym.Kind.String(),
				Detail:         sym.Detail,
				StartLine:      sym.Range.Start.Line,
				StartCol:       sym.Range.Start.Character,
				EndLine:        sym.Range.End.Line,
				EndCol:         sym.Range.End.Character,
				SelStartLine:   sym.SelectionRange.Start.Line,
				SelStartCol:    sym.SelectionRange.Start.Character,
				SelEndLine:     sym.SelectionRange.End.Line,
				SelEndCol:      sym.SelectionRange.End.Character,
				ParentSymbolID: parent,
			}
			id, err := ds.InsertSymbol(row)
			if err != nil {
				return err
			}
			if err := write(sym.Children, &id); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(res.Symbols, nil); err != nil {
		return err
	}

	for _, d := range res.Diagnostics {
		if _, err := ds.InsertDiagnostic(&store.Diagnostic{
			FileID:    fileID,
			Message:   d.Message,
			Severity:  int(d.Severity),
			StartLine: d.Range.Start.Line,
			StartCol:  d.Range.Start.Character,
			EndLine:   d.Range.End.Line,
			EndCol:    d.Range.End.Character,
		}); err != nil {
			return err
		}
	}
	return nil
}
