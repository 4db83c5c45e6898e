package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLISymbol is a JSON-friendly symbol representation. Children is only
// populated for outlines.
type CLISymbol struct {
	ID        int64       `json:"id,omitempty"`
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	Detail    string      `json:"detail,omitempty"`
	File      string      `json:"file,omitempty"`
	StartLine int         `json:"start_line"`
	StartCol  int         `json:"start_col"`
	EndLine   int         `json:"end_line"`
	EndCol    int         `json:"end_col"`
	Children  []CLISymbol `json:"children,omitempty"`
}

// CLIDiagnostic is a JSON-friendly diagnostic.
type CLIDiagnostic struct {
	File      string `json:"file,omitempty"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// CLIOutline is the result of the outline command.
type CLIOutline struct {
	File        string          `json:"file"`
	Symbols     []CLISymbol     `json:"symbols"`
	Diagnostics []CLIDiagnostic `json:"diagnostics"`
}

// CLILocation is a resolved definition.
type CLILocation struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// CLIDefinition is the result of the definition command.
type CLIDefinition struct {
	Token    string       `json:"token"`
	Location *CLILocation `json:"location,omitempty"`
	Skipped  bool         `json:"skipped,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// CLIFile is a JSON-friendly file representation.
type CLIFile struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Language    string `json:"language"`
	LineCount   int    `json:"line_count"`
	LastIndexed string `json:"last_indexed"`
}

// CLIIndexSummary reports what an index run covered.
type CLIIndexSummary struct {
	Database     string   `json:"database"`
	LibraryPaths []string `json:"library_paths"`
	Files        int      `json:"files"`
	Symbols      int      `json:"symbols"`
	DurationMS   int64    `json:"duration_ms"`
}
