package lsp

import (
	protocol "go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/jward/dfsense/internal/outline"
	"github.com/jward/dfsense/internal/resolve"
	"github.com/jward/dfsense/internal/store"
)

const diagnosticSource = "dfsense"

func toPosition(p outline.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func toRange(r outline.Range) protocol.Range {
	return protocol.Range{Start: toPosition(r.Start), End: toPosition(r.End)}
}

// toDocumentSymbols converts an outline tree. Symbol kinds share their
// numbering with the protocol.
func toDocumentSymbols(syms []*outline.Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(syms))
	for _, sym := range syms {
		ds := protocol.DocumentSymbol{
			Name:           sym.Name,
			Detail:         sym.Detail,
			Kind:           protocol.SymbolKind(sym.Kind),
			Range:          toRange(sym.Range),
			SelectionRange: toRange(sym.SelectionRange),
		}
		if len(sym.Children) > 0 {
			ds.Children = toDocumentSymbols(sym.Children)
		}
		out = append(out, ds)
	}
	return out
}

func toDiagnostics(diags []outline.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, protocol.Diagnostic{
			Range:    toRange(d.Range),
			Severity: protocol.DiagnosticSeverity(d.Severity),
			Source:   diagnosticSource,
			Message:  d.Message,
		})
	}
	return out
}

// toLocation points at column 0 of the declaration line. Hits in open
// documents keep the editor's URI; library hits are file paths.
func toLocation(loc *resolve.Location) protocol.Location {
	u := uri.URI(loc.URI)
	if loc.URI == "" {
		u = uri.File(loc.Path)
	}
	pos := protocol.Position{Line: uint32(loc.Line), Character: uint32(loc.Col)}
	return protocol.Location{URI: u, Range: protocol.Range{Start: pos, End: pos}}
}

func toSymbolInformation(row store.SymbolRow) protocol.SymbolInformation {
	kind, _ := outline.ParseKind(row.Kind)
	return protocol.SymbolInformation{
		Name: row.Name,
		Kind: protocol.SymbolKind(kind),
		Location: protocol.Location{
			URI: uri.File(row.FilePath),
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(row.SelStartLine), Character: uint32(row.SelStartCol)},
				End:   protocol.Position{Line: uint32(row.SelEndLine), Character: uint32(row.SelEndCol)},
			},
		},
	}
}
