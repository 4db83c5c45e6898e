package dfsense

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jward/dfsense/internal/outline"
	"github.com/jward/dfsense/internal/store"
)

// QueryBuilder provides read access to the library index.
type QueryBuilder struct {
	store *store.Store
}

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500

	// searchCandidates caps how many prefiltered rows Search ranks.
	searchCandidates = 2000
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// SymbolFilter specifies which symbols to include. All fields are optional.
type SymbolFilter struct {
	Kinds      []string // match any of these kinds ("class", "procedure", ...)
	File       string   // restrict to the file indexed at this path
	ParentID   *int64   // restrict to direct children of this symbol
	TopLevel   bool     // only symbols without a parent
	NamePrefix string   // case-insensitive name prefix
	PathPrefix string   // restrict to files under this directory
}

// normalizePathPrefix ensures a path prefix ends with "/" for correct LIKE matching.
// "lib/pkg" -> "lib/pkg/" to prevent matching "lib/pkg_old/".
func normalizePathPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}

func (q *QueryBuilder) fileID(path string) (*int64, bool, error) {
	if path == "" {
		return nil, true, nil
	}
	f, err := q.store.FileByPath(path)
	if err != nil {
		return nil, false, err
	}
	if f == nil {
		return nil, false, nil
	}
	return &f.ID, true, nil
}

// Symbols is the listing/filtering endpoint, ordered by name.
func (q *QueryBuilder) Symbols(filter SymbolFilter, page Pagination) (*PagedResult[SymbolRow], error) {
	if q.store == nil {
		return nil, ErrNoIndex
	}
	page = page.normalize()

	fileID, ok, err := q.fileID(filter.File)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	if !ok {
		return &PagedResult[SymbolRow]{Items: []SymbolRow{}}, nil
	}

	rows, total, err := q.store.FindSymbols(store.SymbolQuery{
		Kinds:      filter.Kinds,
		FileID:     fileID,
		ParentID:   filter.ParentID,
		TopLevel:   filter.TopLevel,
		NamePrefix: filter.NamePrefix,
		PathPrefix: normalizePathPrefix(filter.PathPrefix),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}

	items := make([]SymbolRow, 0, len(rows))
	for _, r := range rows {
		items = append(items, *r)
	}
	return &PagedResult[SymbolRow]{Items: items, TotalCount: total}, nil
}

// Search ranks indexed symbols against a fuzzy pattern: candidates whose
// name contains the pattern's characters in order are ranked by edit
// distance, best first. Parameters are not searched. An empty pattern
// returns nothing.
//
// At most searchCandidates matches are ranked. They are taken shortest name
// first; for a subsequence match the edit distance is the length difference,
// so the cap never drops a better-ranked name in favour of a worse one.
func (q *QueryBuilder) Search(pattern string, limit int) ([]SymbolRow, error) {
	if q.store == nil {
		return nil, ErrNoIndex
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return []SymbolRow{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, _, err := q.store.FindSymbols(store.SymbolQuery{
		Kinds:         declarationKinds(),
		NameChars:     pattern,
		ShortestFirst: true,
		Limit:         searchCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(pattern, names)
	sort.Stable(ranks)

	out := make([]SymbolRow, 0, min(limit, len(ranks)))
	for _, rank := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, *rows[rank.OriginalIndex])
	}
	return out, nil
}

// declarationKinds lists every symbol kind except parameters.
func declarationKinds() []string {
	return []string{
		outline.KindFile.String(),
		outline.KindClass.String(),
		outline.KindObject.String(),
		outline.KindMethod.String(),
		outline.KindFunction.String(),
		outline.KindProperty.String(),
	}
}

// Files lists every indexed file ordered by path.
func (q *QueryBuilder) Files() ([]*File, error) {
	if q.store == nil {
		return nil, ErrNoIndex
	}
	files, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return files, nil
}

// FileSymbols rebuilds the outline stored for path. Returns nil when the
// file is not indexed.
func (q *QueryBuilder) FileSymbols(path string) ([]*Symbol, error) {
	if q.store == nil {
		return nil, ErrNoIndex
	}
	f, err := q.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("file symbols: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	rows, err := q.store.SymbolsByFile(f.ID)
	if err != nil {
		return nil, fmt.Errorf("file symbols: %w", err)
	}

	// Rows come back in insertion order, which is depth-first, so a parent
	// is always seen before its children.
	byID := make(map[int64]*Symbol, len(rows))
	roots := []*Symbol{}
	for _, r := range rows {
		sym := symbolFromRow(r)
		byID[r.ID] = sym
		if r.ParentSymbolID == nil {
			roots = append(roots, sym)
			continue
		}
		parent, ok := byID[*r.ParentSymbolID]
		if !ok {
			return nil, fmt.Errorf("file symbols: symbol %d has unknown parent %d", r.ID, *r.ParentSymbolID)
		}
		parent.Children = append(parent.Children, sym)
	}
	return roots, nil
}

// Diagnostics returns the structural diagnostics recorded for path.
func (q *QueryBuilder) Diagnostics(path string) ([]Diagnostic, error) {
	if q.store == nil {
		return nil, ErrNoIndex
	}
	f, err := q.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	rows, err := q.store.DiagnosticsByFile(f.ID)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	diags := make([]Diagnostic, 0, len(rows))
	for _, d := range rows {
		diags = append(diags, Diagnostic{
			Range: Range{
				Start: Position{Line: d.StartLine, Character: d.StartCol},
				End:   Position{Line: d.EndLine, Character: d.EndCol},
			},
			Message:  d.Message,
			Severity: outline.Severity(d.Severity),
		})
	}
	return diags, nil
}

func symbolFromRow(r *store.Symbol) *Symbol {
	kind, _ := outline.ParseKind(r.Kind)
	return &Symbol{
		Name:   r.Name,
		Detail: r.Detail,
		Kind:   kind,
		Range: Range{
			Start: Position{Line: r.StartLine, Character: r.StartCol},
			End:   Position{Line: r.EndLine, Character: r.EndCol},
		},
		SelectionRange: Range{
			Start: Position{Line: r.SelStartLine, Character: r.SelStartCol},
			End:   Position{Line: r.SelEndLine, Character: r.SelEndCol},
		},
	}
}
