package store

import "time"

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Symbol is one node of a file's outline. Kind is the lowercase symbol kind
// name ("class", "procedure", ...). The selection span covers the
// declaration line; the full span reaches the block terminator.
type Symbol struct {
	ID             int64
	FileID         int64
	Name           string
	Kind           string
	Detail         string
	StartLine      int
	StartCol       int
	EndLine        int
	EndCol         int
	SelStartLine   int
	SelStartCol    int
	SelEndLine     int
	SelEndCol      int
	ParentSymbolID *int64
}

// Diagnostic is a structural problem found while extracting a file.
type Diagnostic struct {
	ID        int64
	FileID    int64
	Message   string
	Severity  int
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}
