package dfsense

import (
	"github.com/jward/dfsense/internal/outline"
	"github.com/jward/dfsense/internal/resolve"
	"github.com/jward/dfsense/internal/store"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// API. External consumers use these names; no conversion is needed.

type Store = store.Store
type File = store.File
type SymbolRow = store.SymbolRow

type Symbol = outline.Symbol
type SymbolKind = outline.SymbolKind
type Diagnostic = outline.Diagnostic
type Range = outline.Range
type Position = outline.Position
type OutlineResult = outline.Result

type Document = resolve.Document
type DefinitionRequest = resolve.Request
type DefinitionOutcome = resolve.Outcome
type Location = resolve.Location
