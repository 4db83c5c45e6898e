package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// SymbolCols is the column list for symbol queries, exported for use by QueryBuilder.
const SymbolCols = `id, file_id, name, kind, detail,
	start_line, start_col, end_line, end_col,
	sel_start_line, sel_start_col, sel_end_line, sel_end_col, parent_symbol_id`

const insertSymbolSQL = `INSERT INTO symbols (file_id, name, kind, detail,
	start_line, start_col, end_line, end_col,
	sel_start_line, sel_start_col, sel_end_line, sel_end_col, parent_symbol_id)
 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func symbolArgs(sym *Symbol) []any {
	return []any{
		sym.FileID, sym.Name, sym.Kind, sym.Detail,
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
		sym.SelStartLine, sym.SelStartCol, sym.SelEndLine, sym.SelEndCol,
		sym.ParentSymbolID,
	}
}

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	res, err := s.db.Exec(insertSymbolSQL, symbolArgs(sym)...)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	sym.ID = id
	return id, nil
}

// ScanSymbolRow scans a single row into a Symbol. Exported for use by QueryBuilder.
func ScanSymbolRow(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var detail sql.NullString
	err := scanner.Scan(
		&sym.ID, &sym.FileID, &sym.Name, &sym.Kind, &detail,
		&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
		&sym.SelStartLine, &sym.SelStartCol, &sym.SelEndLine, &sym.SelEndCol,
		&sym.ParentSymbolID,
	)
	if err != nil {
		return nil, err
	}
	sym.Detail = detail.String
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := ScanSymbolRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolByID returns the symbol with the given id, or nil.
func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	sym, err := ScanSymbolRow(s.db.QueryRow("SELECT "+SymbolCols+" FROM symbols WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

// SymbolsByFile returns a file's symbols in insertion (document) order.
func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE file_id = ? ORDER BY id", fileID)
}

// SymbolsByName matches names case-insensitively, the way the language does.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE name = ? COLLATE NOCASE ORDER BY id", name)
}

func (s *Store) SymbolChildren(symbolID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE parent_symbol_id = ? ORDER BY id", symbolID)
}

// --- Diagnostic operations ---

const insertDiagnosticSQL = `INSERT INTO diagnostics (file_id, message, severity,
	start_line, start_col, end_line, end_col)
 VALUES (?, ?, ?, ?, ?, ?, ?)`

func diagnosticArgs(d *Diagnostic) []any {
	return []any{d.FileID, d.Message, d.Severity, d.StartLine, d.StartCol, d.EndLine, d.EndCol}
}

func (s *Store) InsertDiagnostic(d *Diagnostic) (int64, error) {
	res, err := s.db.Exec(insertDiagnosticSQL, diagnosticArgs(d)...)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

// DiagnosticsByFile returns a file's diagnostics in document order.
func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, message, severity, start_line, start_col, end_line, end_col
		 FROM diagnostics WHERE file_id = ? ORDER BY start_line, id`, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by file: %w", err)
	}
	defer rows.Close()
	var diags []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		if err := rows.Scan(&d.ID, &d.FileID, &d.Message, &d.Severity,
			&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}
