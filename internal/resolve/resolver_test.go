package resolve

import (
	"bytes"
	"log"
	"testing"

	"github.com/liamg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T, files map[string]string) *memoryfs.FS {
	t.Helper()
	mfs := memoryfs.New()
	for name, content := range files {
		require.NoError(t, mfs.MkdirAll(dirOf(name), 0o700))
		require.NoError(t, mfs.WriteFile(name, []byte(content), 0o600))
	}
	return mfs
}

func dirOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return "."
}

func newTestResolver(t *testing.T, mfs *memoryfs.FS, paths ...string) *Resolver {
	t.Helper()
	r, err := New(Options{FS: mfs, ExternalPaths: paths})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestWordAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		col  int
		want string
	}{
		{"Send DoIt of oMain", 0, "Send"},
		{"Send DoIt of oMain", 6, "DoIt"},
		{"Send DoIt of oMain", 9, "DoIt"},
		{"Send DoIt of oMain", 18, "oMain"},
		{"Send DoIt of oMain", 99, "oMain"},
		{"Move (x + y) to z", 5, ""},
		{"", 0, ""},
		{"Send  x", 5, ""},
		{"// Ü oFoo", 5, "oFoo"},
		{"x", -1, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WordAt(tt.line, tt.col), "%q at %d", tt.line, tt.col)
	}
}

func TestResolve_SelfDeclarationSkipped(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, newTestFS(t, nil))

	tests := []struct {
		text string
		col  int
	}{
		{"Class Foo is a Bar", 7},
		{"Object oMain is a View", 9},
		{"  Procedure DoIt Integer iA", 13},
		{"Function Total returns Integer", 10},
		{"Class cLegacy", 8},
	}
	for _, tt := range tests {
		out := r.Resolve(Request{Text: tt.text, Col: tt.col})
		assert.True(t, out.Skipped, tt.text)
		assert.False(t, out.Found(), tt.text)
		assert.Empty(t, out.Message, tt.text)
	}
}

func TestResolve_SuperclassSearchesClassFilesOnly(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"lib/bar.df":  "Procedure Bar\nEnd_Procedure\nObject Bar is a View\nEnd_Object",
		"lib/bar.pkg": "Use Windows.pkg\n\nClass Bar is a cObject\nEnd_Class",
	})
	r := newTestResolver(t, mfs, "lib")

	docs := []Document{
		{URI: "file:///ws/notes.txt", LanguageID: "plaintext", Text: "Class Bar is a cObject"},
		{URI: "file:///ws/a.df", LanguageID: "vdf", Text: "Procedure Bar\nObject Bar is a View"},
	}
	out := r.Resolve(Request{Text: "Class Foo is a Bar", Col: 16, Documents: docs})
	require.True(t, out.Found())
	assert.Equal(t, "Bar", out.Token)
	assert.Equal(t, &Location{Path: "lib/bar.pkg", Line: 2}, out.Location)
}

func TestResolve_SuperclassInOpenDocument(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"lib/view.pkg": "Class cMyView is a View\nEnd_Class",
	})
	r := newTestResolver(t, mfs, "lib")

	docs := []Document{
		{URI: "file:///ws/main.df", LanguageID: "vdf", Text: "Object oMain is a cMyView\nEnd_Object"},
		{URI: "file:///ws/views.pkg", LanguageID: "VDF", Text: "Use Windows.pkg\n\n  class cmyview is a View\nEnd_Class"},
	}
	out := r.Resolve(Request{Text: "Object oMain is a cMyView", Col: 20, Documents: docs})
	require.True(t, out.Found())
	assert.Equal(t, "cMyView", out.Token)
	assert.Equal(t, &Location{URI: "file:///ws/views.pkg", Line: 2}, out.Location)
}

func TestResolve_SuperclassOnlyInOpenDocument(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, newTestFS(t, nil))

	docs := []Document{{URI: "file:///ws/views.pkg", LanguageID: "vdf", Text: "Class cMyView is a View\nEnd_Class"}}
	out := r.Resolve(Request{Text: "Object oMain is a cMyView", Col: 20, Documents: docs})
	require.True(t, out.Found())
	assert.Empty(t, out.Message)
	assert.Equal(t, &Location{URI: "file:///ws/views.pkg", Line: 0}, out.Location)
}

func TestResolve_SuperclassNotFound(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"lib/view.df": "Class dbView is a View\nEnd_Class",
	})
	r := newTestResolver(t, mfs, "lib")

	out := r.Resolve(Request{Text: "Object oMain is a dbView", Col: 20})
	assert.False(t, out.Found())
	assert.False(t, out.Skipped)
	assert.Equal(t, `No class definition found for "dbView". Is it a built-in class?`, out.Message)
}

func TestResolve_OpenDocumentsBeforeExternal(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"lib/util.df": "Procedure DoIt\nEnd_Procedure",
	})
	r := newTestResolver(t, mfs, "lib")

	docs := []Document{
		{URI: "file:///ws/notes.txt", LanguageID: "plaintext", Text: "Procedure DoIt"},
		{URI: "file:///ws/main.df", LanguageID: "vdf", Text: "Use Windows.pkg\n\n  procedure doit\nEnd_Procedure"},
	}
	out := r.Resolve(Request{Text: "Send DoIt", Col: 6, Documents: docs})
	require.True(t, out.Found())
	assert.Equal(t, &Location{URI: "file:///ws/main.df", Line: 2}, out.Location)
}

func TestResolve_ExternalReference(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"lib/ignored.pkg": "Object oHelper is a cObject",
		"lib/sub/deep.df": "Object oHelper is a cObject",
		"lib/helper.df":   "// helpers\n  Object oHelper is a cObject\n  End_Object",
	})
	r := newTestResolver(t, mfs, "lib")

	out := r.Resolve(Request{Text: "Send Run of oHelper", Col: 15})
	require.True(t, out.Found())
	assert.Equal(t, &Location{Path: "lib/helper.df", Line: 1}, out.Location)
}

func TestResolve_ObjectNameMustMatchExactly(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"lib/a.df": "Object oHelperTwo is a cObject\nProcedure oHelperX",
	})
	r := newTestResolver(t, mfs, "lib")

	out := r.Resolve(Request{Text: "Send Run of oHelper", Col: 15})
	assert.False(t, out.Found())
	assert.Equal(t, `No definition found for "oHelper". Is it a built-in class?`, out.Message)
}

func TestResolve_ExternalPathsInOrder(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"first/a.df":  "Function Total returns Integer",
		"second/a.df": "Function Total returns Integer",
	})
	r := newTestResolver(t, mfs, "second", "first")

	out := r.Resolve(Request{Text: "Get Total to iX", Col: 5})
	require.True(t, out.Found())
	assert.Equal(t, "second/a.df", out.Location.Path)
}

func TestResolve_UnreadablePathIsSkipped(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"lib/a.df": "Procedure DoIt",
	})
	var buf bytes.Buffer
	r, err := New(Options{
		FS:            mfs,
		ExternalPaths: []string{"missing", "lib"},
		Logger:        log.New(&buf, "", 0),
	})
	require.NoError(t, err)
	defer r.Close()

	out := r.Resolve(Request{Text: "Send DoIt", Col: 5})
	require.True(t, out.Found())
	assert.Equal(t, "lib/a.df", out.Location.Path)
	assert.Contains(t, buf.String(), "warning: read library path missing")
}

func TestResolve_NoToken(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, newTestFS(t, nil))

	assert.Equal(t, Outcome{}, r.Resolve(Request{Text: "Move (1) to x", Col: 5}))
	assert.Equal(t, Outcome{}, r.Resolve(Request{Text: "x", Line: 3}))
}

func TestResolve_CacheFollowsFileChanges(t *testing.T) {
	t.Parallel()
	mfs := newTestFS(t, map[string]string{
		"lib/a.df": "Procedure DoIt",
	})
	r := newTestResolver(t, mfs, "lib")

	out := r.Resolve(Request{Text: "Send DoIt", Col: 5})
	require.True(t, out.Found())
	assert.Equal(t, 0, out.Location.Line)

	require.NoError(t, mfs.WriteFile("lib/a.df", []byte("// moved\n\nProcedure DoIt"), 0o600))
	out = r.Resolve(Request{Text: "Send DoIt", Col: 5})
	require.True(t, out.Found())
	assert.Equal(t, 2, out.Location.Line)
}

func TestHasExtension(t *testing.T) {
	t.Parallel()
	assert.True(t, HasExtension("Order.DF", DefaultSourceExtensions))
	assert.True(t, HasExtension("cust.dd", DefaultClassExtensions))
	assert.False(t, HasExtension("cust.dd.bak", DefaultClassExtensions))
	assert.False(t, HasExtension("README", DefaultSourceExtensions))
}
