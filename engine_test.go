package dfsense

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/liamg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/dfsense/internal/config"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index", "test.db")
	e, err := New(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// testFileHash computes the same SHA256 hex hash the engine uses.
func testFileHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

func writeLibFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const orderSource = `Use Windows.pkg

Class cOrderView is a dbView
    Property Integer piOrder 0

    Procedure Refresh Integer iMode
    End_Procedure
End_Class
`

const customerSource = `Object oCustomer is a cObject
    Function CustomerName Integer iID returns String
    End_Function
End_Object
`

func TestNew_CreatesIndexDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	e, err := New(dbPath)
	require.NoError(t, err)
	defer e.Close()

	require.NotNil(t, e.Store())
	_, err = os.Stat(dbPath)
	require.NoError(t, err)
}

func TestNew_WithoutIndex(t *testing.T) {
	e, err := New("")
	require.NoError(t, err)
	defer e.Close()

	assert.Nil(t, e.Store())
	assert.ErrorIs(t, e.IndexLibraries(context.Background()), ErrNoIndex)
	assert.ErrorIs(t, e.IndexFiles(context.Background(), []string{"a.df"}), ErrNoIndex)
	assert.ErrorIs(t, e.RemoveFiles([]string{"a.df"}), ErrNoIndex)

	_, err = e.Query().Files()
	assert.ErrorIs(t, err, ErrNoIndex)

	res, err := e.Outline(context.Background(), "Object oA is a View")
	require.NoError(t, err)
	require.Len(t, res.Symbols, 1)
}

func TestNew_InvalidIgnorePattern(t *testing.T) {
	_, err := New("", WithIgnore("[abc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignore pattern")
}

func TestClose(t *testing.T) {
	e, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestWithConfig(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib")
	ws := filepath.Join(root, "ws")
	require.NoError(t, os.MkdirAll(lib, 0o755))
	require.NoError(t, os.MkdirAll(ws, 0o755))
	writeLibFile(t, root, "config.ws", "[Workspace]\nAppSrcPath=ws\n")

	cfg := config.Default()
	cfg.LanguageID = "dataflex"
	cfg.Library.Paths = []string{lib}
	cfg.Library.ConfigWS = "config.ws"
	cfg.Index.Parallel = false

	e, err := New("", WithConfig(cfg, root))
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "dataflex", e.LanguageID())
	assert.Equal(t, []string{lib, ws}, e.LibraryPaths())
	assert.False(t, e.useParallel)
}

func TestOutline_CanceledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Outline(ctx, "Object oA is a View")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = e.Definition(ctx, DefinitionRequest{Text: "Send DoIt"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefinition_OpenDocumentAndLibrary(t *testing.T) {
	mfs := memoryfs.New()
	require.NoError(t, mfs.MkdirAll("lib", 0o700))
	require.NoError(t, mfs.WriteFile("lib/order.pkg", []byte(orderSource), 0o600))
	require.NoError(t, mfs.WriteFile("lib/customer.df", []byte(customerSource), 0o600))

	e := newTestEngine(t, WithLibraryPaths("lib"), WithResolverFS(mfs))
	ctx := context.Background()

	// Superclass lookups consult class files of the library.
	out, err := e.Definition(ctx, DefinitionRequest{Text: "Object oMain is a cOrderView", Col: 22})
	require.NoError(t, err)
	require.True(t, out.Found())
	assert.Equal(t, &Location{Path: "lib/order.pkg", Line: 2}, out.Location)

	// Open documents win over the library.
	docs := []Document{{URI: "file:///ws/main.df", LanguageID: "vdf", Text: "\nObject oCustomer is a View\nEnd_Object"}}
	out, err = e.Definition(ctx, DefinitionRequest{Text: "Send Activate of oCustomer", Col: 20, Documents: docs})
	require.NoError(t, err)
	require.True(t, out.Found())
	assert.Equal(t, &Location{URI: "file:///ws/main.df", Line: 1}, out.Location)

	out, err = e.Definition(ctx, DefinitionRequest{Text: "Get CustomerName 1 to sName", Col: 6})
	require.NoError(t, err)
	require.True(t, out.Found())
	assert.Equal(t, &Location{Path: "lib/customer.df", Line: 1}, out.Location)

	out, err = e.Definition(ctx, DefinitionRequest{Text: "Send Nothing", Col: 6})
	require.NoError(t, err)
	assert.False(t, out.Found())
	assert.Equal(t, `No definition found for "Nothing". Is it a built-in class?`, out.Message)
}

func TestIndexable(t *testing.T) {
	e := newTestEngine(t, WithIgnore("*_old.*", "scratch*"))

	assert.True(t, e.Indexable("/lib/Order.DF"))
	assert.True(t, e.Indexable("/lib/order.pkg"))
	assert.False(t, e.Indexable("/lib/readme.txt"))
	assert.False(t, e.Indexable("/lib/order_old.df"))
	assert.False(t, e.Indexable("/lib/scratch.pkg"))
}

func TestIndexFiles_SkipsUnsupportedExtensions(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := writeLibFile(t, dir, "notes.txt", "Object oA is a View")

	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

	f, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestIndexFiles_InsertsNewFile(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			e := newTestEngine(t, WithParallel(parallel))
			dir := t.TempDir()
			path := writeLibFile(t, dir, "order.pkg", orderSource)

			require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

			f, err := e.Store().FileByPath(path)
			require.NoError(t, err)
			require.NotNil(t, f)
			assert.Equal(t, "vdf", f.Language)
			assert.Equal(t, testFileHash([]byte(orderSource)), f.Hash)
			assert.Equal(t, 9, f.LineCount)

			syms, err := e.Store().SymbolsByFile(f.ID)
			require.NoError(t, err)
			names := make([]string, 0, len(syms))
			for _, s := range syms {
				names = append(names, s.Kind+":"+s.Name)
			}
			assert.Equal(t, []string{
				"use:Windows.pkg",
				"class:cOrderView",
				"property:piOrder",
				"procedure:Refresh",
				"parameter:iMode",
			}, names)
		})
	}
}

func TestIndexFiles_SkipsUnchangedFiles(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := writeLibFile(t, dir, "order.pkg", orderSource)
	ctx := context.Background()

	require.NoError(t, e.IndexFiles(ctx, []string{path}))
	f1, err := e.Store().FileByPath(path)
	require.NoError(t, err)

	require.NoError(t, e.IndexFiles(ctx, []string{path}))
	f2, err := e.Store().FileByPath(path)
	require.NoError(t, err)

	assert.Equal(t, f1.ID, f2.ID)
	assert.Equal(t, f1.LastIndexed, f2.LastIndexed)
}

func TestIndexFiles_ReindexesChangedFiles(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := writeLibFile(t, dir, "order.pkg", orderSource)
	ctx := context.Background()

	require.NoError(t, e.IndexFiles(ctx, []string{path}))
	writeLibFile(t, dir, "order.pkg", customerSource)
	require.NoError(t, e.IndexFiles(ctx, []string{path}))

	f, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, testFileHash([]byte(customerSource)), f.Hash)

	syms, err := e.Store().SymbolsByName("cOrderView")
	require.NoError(t, err)
	assert.Empty(t, syms)
	syms, err = e.Store().SymbolsByName("oCustomer")
	require.NoError(t, err)
	assert.Len(t, syms, 1)
}

func TestIndexFiles_StoresDiagnostics(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := writeLibFile(t, dir, "bad.pkg", "Class cA is a cB\n  Class cC is a cD\nEnd_Class\n")

	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

	diags, err := e.Query().Diagnostics(path)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "Class 'cC' cannot be nested inside a Class", diags[0].Message)
	assert.Equal(t, 1, diags[0].Range.Start.Line)
}

func TestIndexFiles_MissingFileIsReported(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEngine(t, WithLogger(log.New(&buf, "", 0)))
	dir := t.TempDir()
	good := writeLibFile(t, dir, "order.pkg", orderSource)
	missing := filepath.Join(dir, "gone.df")

	err := e.IndexFiles(context.Background(), []string{missing, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexing had 1 error(s)")
	assert.Contains(t, buf.String(), "warning: prepare "+missing)

	f, err := e.Store().FileByPath(good)
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func TestIndexFiles_ReportsProgress(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	e := newTestEngine(t, WithProgress(func(path string) {
		mu.Lock()
		seen = append(seen, filepath.Base(path))
		mu.Unlock()
	}))
	dir := t.TempDir()
	paths := []string{
		writeLibFile(t, dir, "order.pkg", orderSource),
		writeLibFile(t, dir, "customer.df", customerSource),
		writeLibFile(t, dir, "notes.txt", "x"),
	}

	require.NoError(t, e.IndexFiles(context.Background(), paths))
	assert.ElementsMatch(t, []string{"order.pkg", "customer.df", "notes.txt"}, seen)
}

func TestIndexFiles_CanceledContext(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := writeLibFile(t, dir, "order.pkg", orderSource)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, e.IndexFiles(ctx, []string{path}), context.Canceled)
}

func TestIndexLibraries_PrunesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	order := writeLibFile(t, dir, "order.pkg", orderSource)
	customer := writeLibFile(t, dir, "customer.df", customerSource)
	writeLibFile(t, dir, "order_old.pkg", orderSource)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writeLibFile(t, filepath.Join(dir, "sub"), "deep.df", customerSource)

	e := newTestEngine(t, WithLibraryPaths(dir, filepath.Join(dir, "missing")), WithIgnore("*_old.*"))
	ctx := context.Background()

	require.NoError(t, e.IndexLibraries(ctx))
	files, err := e.Query().Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, customer, files[0].Path)
	assert.Equal(t, order, files[1].Path)

	require.NoError(t, os.Remove(customer))
	require.NoError(t, e.IndexLibraries(ctx))
	files, err = e.Query().Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, order, files[0].Path)

	paths, err := e.Store().GetMetadata("library_paths")
	require.NoError(t, err)
	assert.Contains(t, paths, dir)
}

func TestRemoveFiles(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := writeLibFile(t, dir, "order.pkg", orderSource)
	ctx := context.Background()
	require.NoError(t, e.IndexFiles(ctx, []string{path}))

	require.NoError(t, e.RemoveFiles([]string{path, filepath.Join(dir, "never.df")}))

	f, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	assert.Nil(t, f)
	syms, err := e.Store().SymbolsByName("cOrderView")
	require.NoError(t, err)
	assert.Empty(t, syms)
}
