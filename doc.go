// Package dfsense provides outline extraction, structural diagnostics and
// go-to-definition for DataFlex (VDF) source, plus a SQLite index of the
// external class libraries a workspace depends on.
//
// # Pipeline
//
// Outline extraction runs in three steps over a document's text:
//
//  1. Reassemble: physical lines become logical lines. Comment-only lines
//     are dropped, trailing // comments are stripped and a line ending in
//     ';' continues onto the next code-bearing line.
//
//  2. Match: each logical line is classified by an ordered list of
//     case-insensitive declaration patterns (Use, Property, Class, Object,
//     Procedure, Function, End_*). The first pattern that matches wins.
//
//  3. Nest: a container stack attaches declarations to their enclosing
//     Class, Object, Procedure or Function, widens a container's range to its
//     End_* terminator, and reports illegal nesting as diagnostics.
//
// Definition lookup does not use the outline. It scans raw lines of the open
// documents, then of the configured library directories, for the first
// declaration of the token under the cursor.
//
// # Usage
//
//	e, err := dfsense.New(".dfsense/index.db",
//		dfsense.WithLibraryPaths("/opt/dataflex/Pkg"),
//	)
//	if err != nil { ... }
//	defer e.Close()
//
//	res, err := e.Outline(ctx, text)
//	out, err := e.Definition(ctx, resolve.Request{Text: text, Line: 3, Col: 12})
//
//	err = e.IndexLibraries(ctx)
//	hits, err := e.Query().Search("custview", 20)
//
// # Library Index
//
// [Engine.IndexLibraries] lists every library directory (non-recursively),
// skips files whose content hash is unchanged, extracts the rest in a worker
// pool and commits each file's outline through a single writer. Files that
// disappeared from the directories are pruned. The [QueryBuilder] returned by
// [Engine.Query] lists, filters and fuzzy-searches the indexed symbols.
package dfsense
