// Package resolve implements go-to-definition over open documents and
// external library directories, using the declaration vocabulary of the
// outline package.
package resolve

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/maypok86/otter"

	"github.com/jward/dfsense/internal/outline"
)

// Document is an open editor buffer.
type Document struct {
	URI        string
	LanguageID string
	Text       string
}

// Request asks for the definition of the token under the cursor.
type Request struct {
	Text      string     // text of the document holding the cursor
	Line, Col int        // zero-based; Col counts UTF-16 code units
	Documents []Document // every open document, including the current one
}

// Location is a resolved definition. URI is set for hits in open documents,
// Path for hits in external library files.
type Location struct {
	URI  string `json:"uri,omitempty"`
	Path string `json:"path,omitempty"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// Outcome is the result of a resolution. Exactly one of Location, Skipped or
// Message describes it: a found definition, a token that is itself being
// declared, or a user-facing not-found message. An empty token yields a zero
// Outcome.
type Outcome struct {
	Token    string    `json:"token"`
	Location *Location `json:"location,omitempty"`
	Skipped  bool      `json:"skipped,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Found reports whether a definition was located.
func (o Outcome) Found() bool {
	return o.Location != nil
}

// Options configures a Resolver.
type Options struct {
	// LanguageID selects which open documents are searched.
	LanguageID string
	// SourceExtensions are scanned by the general reference search.
	SourceExtensions []string
	// ClassExtensions are scanned by the superclass search.
	ClassExtensions []string
	// ExternalPaths are library directories, searched in order.
	ExternalPaths []string
	// FS is the filesystem ExternalPaths live on. Defaults to the host.
	FS fs.FS
	// Logger receives per-directory and per-file failures.
	Logger *log.Logger
	// CacheSize bounds the number of library files kept in memory.
	CacheSize int
}

// Defaults for Options fields left empty.
var (
	DefaultLanguageID       = "vdf"
	DefaultSourceExtensions = []string{".df"}
	DefaultClassExtensions  = []string{".dd", ".pkg", ".vw", ".bp"}
	DefaultCacheSize        = 512
)

type fileKey struct {
	path    string
	size    int64
	modTime int64
}

// Resolver answers definition requests. It is safe for concurrent use.
type Resolver struct {
	opts  Options
	fsys  fs.FS
	log   *log.Logger
	cache otter.Cache[fileKey, []string]
}

// New creates a Resolver.
func New(opts Options) (*Resolver, error) {
	if opts.LanguageID == "" {
		opts.LanguageID = DefaultLanguageID
	}
	if len(opts.SourceExtensions) == 0 {
		opts.SourceExtensions = DefaultSourceExtensions
	}
	if len(opts.ClassExtensions) == 0 {
		opts.ClassExtensions = DefaultClassExtensions
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	r := &Resolver{opts: opts, fsys: opts.FS, log: opts.Logger}
	if r.fsys == nil {
		r.fsys = hostFS{}
	}
	if r.log == nil {
		r.log = log.New(io.Discard, "", 0)
	}

	cache, err := otter.MustBuilder[fileKey, []string](opts.CacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("build file cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// Close releases the file cache.
func (r *Resolver) Close() {
	r.cache.Close()
}

// ExternalPaths returns the directories searched, in order.
func (r *Resolver) ExternalPaths() []string {
	return r.opts.ExternalPaths
}

// Resolve finds the declaration of the token under the cursor. The first
// match wins: open documents are searched before external directories.
// Failures to read a directory or file are logged and that location is
// skipped; Resolve never fails.
func (r *Resolver) Resolve(req Request) Outcome {
	lines := outline.SplitLines(req.Text)
	if req.Line < 0 || req.Line >= len(lines) {
		return Outcome{}
	}
	line := strings.TrimSpace(lines[req.Line])
	token := WordAt(lines[req.Line], req.Col)
	if token == "" {
		return Outcome{}
	}

	if h, ok := outline.MatchHeader(line); ok {
		if strings.EqualFold(token, h.Name) {
			return Outcome{Token: token, Skipped: true}
		}
		if strings.EqualFold(token, h.Superclass) {
			return r.resolveClass(token, req.Documents)
		}
	}
	if outline.DeclaresName(line, token) {
		return Outcome{Token: token, Skipped: true}
	}
	return r.resolveReference(token, req.Documents)
}

func (r *Resolver) resolveReference(token string, docs []Document) Outcome {
	match := func(line string) bool {
		if h, ok := outline.MatchObjectHeader(line); ok && strings.EqualFold(h.Name, token) {
			return true
		}
		return outline.DeclaresName(line, token)
	}

	if loc := r.searchDocuments(docs, match); loc != nil {
		return Outcome{Token: token, Location: loc}
	}
	if loc := r.searchExternal(r.opts.SourceExtensions, match); loc != nil {
		return Outcome{Token: token, Location: loc}
	}
	return Outcome{
		Token:   token,
		Message: fmt.Sprintf("No definition found for %q. Is it a built-in class?", token),
	}
}

// resolveClass looks for a superclass. Only Class declarations count; open
// documents are searched first, then class files in the external paths.
func (r *Resolver) resolveClass(token string, docs []Document) Outcome {
	match := func(line string) bool {
		return outline.DeclaresClass(line, token)
	}
	if loc := r.searchDocuments(docs, match); loc != nil {
		return Outcome{Token: token, Location: loc}
	}
	if loc := r.searchExternal(r.opts.ClassExtensions, match); loc != nil {
		return Outcome{Token: token, Location: loc}
	}
	return Outcome{
		Token:   token,
		Message: fmt.Sprintf("No class definition found for %q. Is it a built-in class?", token),
	}
}

// searchDocuments scans open documents of the resolver's language, in order,
// for the first line satisfying match.
func (r *Resolver) searchDocuments(docs []Document, match func(string) bool) *Location {
	for _, doc := range docs {
		if !strings.EqualFold(doc.LanguageID, r.opts.LanguageID) {
			continue
		}
		if i, ok := scan(outline.SplitLines(doc.Text), match); ok {
			return &Location{URI: doc.URI, Line: i}
		}
	}
	return nil
}

// searchExternal scans each external directory, non-recursively and in the
// order the listing returns, for the first line satisfying match.
func (r *Resolver) searchExternal(exts []string, match func(string) bool) *Location {
	for _, dir := range r.opts.ExternalPaths {
		entries, err := fs.ReadDir(r.fsys, dir)
		if err != nil {
			r.log.Printf("warning: read library path %s: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !HasExtension(entry.Name(), exts) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			lines, err := r.fileLines(path)
			if err != nil {
				r.log.Printf("warning: read %s: %v", path, err)
				continue
			}
			if i, ok := scan(lines, match); ok {
				return &Location{Path: path, Line: i}
			}
		}
	}
	return nil
}

// fileLines returns the physical lines of a library file, served from the
// cache while the file's size and modification time are unchanged.
func (r *Resolver) fileLines(path string) ([]string, error) {
	info, err := fs.Stat(r.fsys, path)
	if err != nil {
		return nil, err
	}
	key := fileKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if lines, ok := r.cache.Get(key); ok {
		return lines, nil
	}
	data, err := fs.ReadFile(r.fsys, path)
	if err != nil {
		return nil, err
	}
	lines := outline.SplitLines(string(data))
	r.cache.Set(key, lines)
	return lines, nil
}

func scan(lines []string, match func(string) bool) (int, bool) {
	for i, line := range lines {
		if match(strings.TrimSpace(line)) {
			return i, true
		}
	}
	return 0, false
}

// HasExtension reports whether name ends in one of exts, ignoring case.
func HasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
