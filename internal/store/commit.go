package store

import (
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake parent IDs are remapped to the real IDs
// assigned on insert; parents always precede their children in the batch.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64, len(batch.Symbols))

	for _, sym := range batch.Symbols {
		if sym.ParentSymbolID != nil && *sym.ParentSymbolID < 0 {
			realID, ok := fakeToReal[*sym.ParentSymbolID]
			if !ok {
				return fmt.Errorf("commit batch: symbol %q has parent_symbol_id=%d not in batch", sym.Name, *sym.ParentSymbolID)
			}
			sym.ParentSymbolID = &realID
		}
		res, err := tx.Exec(insertSymbolSQL, symbolArgs(&sym)...)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		realID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	for _, d := range batch.Diagnostics {
		if _, err := tx.Exec(insertDiagnosticSQL, diagnosticArgs(&d)...); err != nil {
			return fmt.Errorf("commit batch: diagnostic %q: %w", d.Message, err)
		}
	}

	return tx.Commit()
}
