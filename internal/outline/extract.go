package outline

import (
	"fmt"
	"unicode/utf16"
)

// ContainerKind is the kind of an open block on the container stack.
type ContainerKind int

const (
	ContainerClass ContainerKind = iota + 1
	ContainerObject
	ContainerProcedure
	ContainerFunction
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerClass:
		return "Class"
	case ContainerObject:
		return "Object"
	case ContainerProcedure:
		return "Procedure"
	case ContainerFunction:
		return "Function"
	}
	return "Unknown"
}

type frame struct {
	symbol *Symbol
	kind   ContainerKind
}

// builder holds the state of a single extraction pass.
type builder struct {
	lines       []string
	stack       []frame
	symbols     []*Symbol
	diagnostics []Diagnostic
}

// Extract builds the outline of a document and the nesting diagnostics found
// on the way. Every call starts from an empty stack; nothing is shared
// between calls.
func Extract(text string) Result {
	return ExtractLines(SplitLines(text))
}

// ExtractLines is Extract over pre-split physical lines.
func ExtractLines(lines []string) Result {
	b := &builder{lines: lines}
	for _, ll := range LogicalLines(lines) {
		decl, ok := Match(ll.Text)
		if !ok {
			continue
		}
		b.apply(decl, b.lineRange(ll))
	}
	// Frames still open here are unterminated blocks; they keep their
	// declaration-line range.
	return Result{Symbols: b.symbols, Diagnostics: b.diagnostics}
}

func (b *builder) apply(d Declaration, rng Range) {
	switch d.Kind {
	case DeclUse:
		b.attach(newSymbol(d.Name, "", KindFile, rng))

	case DeclProperty:
		b.attach(newSymbol(d.Name, d.Type, KindProperty, rng))

	case DeclClass:
		if top := b.top(); top != nil && top.kind == ContainerClass {
			b.report(rng, fmt.Sprintf("Class '%s' cannot be nested inside a %s", d.Name, top.kind))
			return
		}
		b.open(newSymbol(d.Name, d.Superclass, KindClass, rng), ContainerClass)

	case DeclObject:
		if top := b.top(); top != nil && top.kind == ContainerClass {
			b.report(rng, fmt.Sprintf("Object '%s' cannot be nested inside a Class", d.Name))
			return
		}
		b.open(newSymbol(d.Name, d.Superclass, KindObject, rng), ContainerObject)

	case DeclProcedure:
		if top := b.top(); top != nil && isRoutine(top.kind) {
			b.report(rng, fmt.Sprintf("Procedure '%s' cannot be declared inside a %s", d.Name, top.kind))
			return
		}
		sym := newSymbol(d.Name, "", KindMethod, rng)
		sym.Children = paramSymbols(d.Params, rng)
		b.open(sym, ContainerProcedure)

	case DeclFunction:
		if top := b.top(); top != nil && isRoutine(top.kind) {
			b.report(rng, fmt.Sprintf("Function '%s' cannot be declared inside a %s", d.Name, top.kind))
			return
		}
		sym := newSymbol(d.Name, d.Returns, KindFunction, rng)
		sym.Children = paramSymbols(d.Params, rng)
		b.open(sym, ContainerFunction)

	default:
		if d.Kind.IsTerminator() {
			b.close(rng)
		}
	}
}

func isRoutine(k ContainerKind) bool {
	return k == ContainerProcedure || k == ContainerFunction
}

func (b *builder) top() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return &b.stack[len(b.stack)-1]
}

// attach adds sym to the innermost open container, or to the top level.
func (b *builder) attach(sym *Symbol) {
	if top := b.top(); top != nil {
		top.symbol.Children = append(top.symbol.Children, sym)
		return
	}
	b.symbols = append(b.symbols, sym)
}

func (b *builder) open(sym *Symbol, kind ContainerKind) {
	b.attach(sym)
	b.stack = append(b.stack, frame{symbol: sym, kind: kind})
}

// close pops the innermost frame whatever its kind. An End_* with nothing
// open is ignored.
func (b *builder) close(terminator Range) {
	top := b.top()
	if top == nil {
		return
	}
	top.symbol.Range.End = terminator.End
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *builder) report(rng Range, msg string) {
	b.diagnostics = append(b.diagnostics, Diagnostic{
		Range:    rng,
		Message:  msg,
		Severity: SeverityError,
	})
}

// lineRange spans a logical line from column 0 of its first physical line to
// the end of its last one.
func (b *builder) lineRange(ll LogicalLine) Range {
	return Range{
		Start: Position{Line: ll.StartLine},
		End:   Position{Line: ll.EndLine, Character: utf16Len(b.lines[ll.EndLine])},
	}
}

func newSymbol(name, detail string, kind SymbolKind, rng Range) *Symbol {
	return &Symbol{
		Name:           name,
		Detail:         detail,
		Kind:           kind,
		Range:          rng,
		SelectionRange: rng,
	}
}

func paramSymbols(params []Parameter, rng Range) []*Symbol {
	if len(params) == 0 {
		return nil
	}
	syms := make([]*Symbol, 0, len(params))
	for _, p := range params {
		syms = append(syms, newSymbol(p.Name, p.Detail(), KindVariable, rng))
	}
	return syms
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
