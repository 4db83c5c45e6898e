package outline

// SymbolKind classifies an outline symbol. Values mirror the LSP SymbolKind
// enumeration so they convert without a lookup table.
type SymbolKind int

const (
	KindFile     SymbolKind = 1
	KindClass    SymbolKind = 5
	KindMethod   SymbolKind = 6
	KindProperty SymbolKind = 7
	KindFunction SymbolKind = 12
	KindVariable SymbolKind = 13
	KindObject   SymbolKind = 19
)

var kindNames = map[SymbolKind]string{
	KindFile:     "use",
	KindMethod:   "procedure",
	KindProperty: "property",
	KindFunction: "function",
	KindVariable: "parameter",
	KindObject:   "object",
	KindClass:    "class",
}

// String returns the lower-case name stored in the library index.
func (k SymbolKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind is the inverse of String. Returns (0, false) for unknown names.
func ParseKind(s string) (SymbolKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Position is a zero-based line/character pair. Character counts UTF-16
// code units, matching editor conventions.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LogicalLine is one statement reassembled from one or more physical lines.
type LogicalLine struct {
	Text      string
	StartLine int
	EndLine   int
}

// Parameter is a Procedure or Function parameter.
type Parameter struct {
	Name  string
	Type  string
	ByRef bool
}

// Detail renders the parameter type the way the outline displays it.
func (p Parameter) Detail() string {
	if p.ByRef {
		return p.Type + " <byref>"
	}
	return p.Type
}

// Symbol is a node of the outline tree. A symbol is owned by exactly one
// parent (or by the top-level list).
type Symbol struct {
	Name           string     `json:"name"`
	Detail         string     `json:"detail"`
	Kind           SymbolKind `json:"kind"`
	Range          Range      `json:"range"`
	SelectionRange Range      `json:"selection_range"`
	Children       []*Symbol  `json:"children,omitempty"`
}

// Severity of a diagnostic. Only errors are produced today.
type Severity int

const (
	SeverityError Severity = 1
)

// Diagnostic reports an illegal nesting attempt.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result is the output of one extraction pass.
type Result struct {
	Symbols     []*Symbol    `json:"symbols"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Walk visits every symbol depth-first in document order. parent is nil for
// top-level symbols.
func (r Result) Walk(fn func(sym, parent *Symbol)) {
	var visit func(syms []*Symbol, parent *Symbol)
	visit = func(syms []*Symbol, parent *Symbol) {
		for _, s := range syms {
			fn(s, parent)
			visit(s.Children, s)
		}
	}
	visit(r.Symbols, nil)
}
