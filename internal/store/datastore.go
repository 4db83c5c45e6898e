package store

// DataStore is the write side used while storing an extracted outline. Both
// Store (direct SQLite) and BatchedStore (in-memory buffering for parallel
// indexing) implement it.
type DataStore interface {
	InsertSymbol(sym *Symbol) (int64, error)
	InsertDiagnostic(d *Diagnostic) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
