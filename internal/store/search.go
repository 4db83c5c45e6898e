package store

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// SymbolQuery selects symbols for listing and search. Zero fields do not
// filter.
type SymbolQuery struct {
	Kinds         []string // match any of these kinds
	FileID        *int64   // restrict to a single file
	ParentID      *int64   // restrict to direct children of this symbol
	TopLevel      bool     // only symbols without a parent
	NamePrefix    string   // case-insensitive prefix
	NameChars     string   // every character must appear, in order, case-insensitively
	PathPrefix    string   // restrict to files under this path
	ShortestFirst bool     // order by name length before name
	Limit         int
	Offset        int
}

// SymbolRow is a symbol joined with the path of its file.
type SymbolRow struct {
	Symbol
	FilePath string
}

func (q SymbolQuery) where() sq.And {
	conds := sq.And{}
	if len(q.Kinds) > 0 {
		conds = append(conds, sq.Eq{"s.kind": q.Kinds})
	}
	if q.FileID != nil {
		conds = append(conds, sq.Eq{"s.file_id": *q.FileID})
	}
	if q.ParentID != nil {
		conds = append(conds, sq.Eq{"s.parent_symbol_id": *q.ParentID})
	}
	if q.TopLevel {
		conds = append(conds, sq.Eq{"s.parent_symbol_id": nil})
	}
	if q.NamePrefix != "" {
		conds = append(conds, sq.Expr("s.name LIKE ? ESCAPE '\\'", escapeLike(q.NamePrefix)+"%"))
	}
	if q.NameChars != "" {
		conds = append(conds, sq.Expr("s.name LIKE ? ESCAPE '\\'", subsequencePattern(q.NameChars)))
	}
	if q.PathPrefix != "" {
		conds = append(conds, sq.Expr("f.path LIKE ? ESCAPE '\\'", escapeLike(q.PathPrefix)+"%"))
	}
	return conds
}

// FindSymbols returns one page of matching symbols ordered by name (or by
// length, then name, with ShortestFirst), plus
// the total number of matches.
func (s *Store) FindSymbols(q SymbolQuery) ([]*SymbolRow, int, error) {
	where := q.where()

	countSQL, countArgs, err := sq.Select("COUNT(*)").
		From("symbols s").
		Join("files f ON f.id = s.file_id").
		Where(where).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("find symbols: build count: %w", err)
	}
	var total int
	if err := s.db.QueryRow(countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("find symbols: count: %w", err)
	}

	cols := make([]string, 0, 15)
	for _, c := range strings.Split(SymbolCols, ",") {
		cols = append(cols, "s."+strings.TrimSpace(c))
	}
	cols = append(cols, "f.path")

	orderBy := []string{"s.name COLLATE NOCASE", "f.path", "s.id"}
	if q.ShortestFirst {
		orderBy = append([]string{"length(s.name)"}, orderBy...)
	}
	builder := sq.Select(cols...).
		From("symbols s").
		Join("files f ON f.id = s.file_id").
		Where(where).
		OrderBy(orderBy...)
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		builder = builder.Offset(uint64(q.Offset))
	}
	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("find symbols: build: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find symbols: %w", err)
	}
	defer rows.Close()

	var out []*SymbolRow
	for rows.Next() {
		r := &SymbolRow{}
		var path string
		sym, err := ScanSymbolRow(scanWithPath{rows, &path})
		if err != nil {
			return nil, 0, fmt.Errorf("find symbols: scan: %w", err)
		}
		r.Symbol = *sym
		r.FilePath = path
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// scanWithPath appends the trailing f.path column to a symbol scan.
type scanWithPath struct {
	scanner interface{ Scan(...any) error }
	path    *string
}

func (s scanWithPath) Scan(dest ...any) error {
	return s.scanner.Scan(append(dest, s.path)...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// subsequencePattern turns "cvw" into "%c%v%w%".
func subsequencePattern(chars string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range chars {
		b.WriteString(escapeLike(string(r)))
		b.WriteByte('%')
	}
	return b.String()
}
