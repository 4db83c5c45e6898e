package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/dfsense/internal/outline"
)

func TestFindWorkspaceRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findWorkspaceRoot(root))
}

func TestFindWorkspaceRoot_DfsenseDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".dfsense"), 0o755))

	assert.Equal(t, root, findWorkspaceRoot(root))
}

func TestFindWorkspaceRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "AppSrc", "Views")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findWorkspaceRoot(deep))
}

func TestFindWorkspaceRoot_MarkerFileIgnored(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	outer := filepath.Join(root, "outer")
	inner := filepath.Join(outer, "inner")
	require.NoError(t, os.MkdirAll(filepath.Join(outer, ".dfsense"), 0o755))
	require.NoError(t, os.MkdirAll(inner, 0o755))
	// A .git file (as in worktrees) is not a directory marker.
	require.NoError(t, os.WriteFile(filepath.Join(inner, ".git"), []byte("gitdir: x"), 0o644))

	assert.Equal(t, outer, findWorkspaceRoot(inner))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	err := validateFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestParseIntArg(t *testing.T) {
	t.Parallel()
	n, err := parseIntArg("12", "line")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseIntArg("-1", "line")
	assert.ErrorContains(t, err, "must be non-negative")
	_, err = parseIntArg("x", "col")
	assert.ErrorContains(t, err, `invalid col "x"`)
}

func TestOutlineToCLI(t *testing.T) {
	t.Parallel()
	res := outline.Extract("Class cView is a View\n  Procedure Show\n  End_Procedure\nEnd_Class")

	got := outlineToCLI(res.Symbols)
	require.Len(t, got, 1)
	assert.Equal(t, "cView", got[0].Name)
	assert.Equal(t, "class", got[0].Kind)
	assert.Equal(t, 0, got[0].StartLine)
	assert.Equal(t, 3, got[0].EndLine)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, "Show", got[0].Children[0].Name)
	assert.Equal(t, "procedure", got[0].Children[0].Kind)
}

func TestResultLen(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, resultLen(nil))
	assert.Equal(t, 2, resultLen([]CLISymbol{{}, {}}))
	assert.Equal(t, 1, resultLen([]CLIFile{{}}))
	assert.Equal(t, 1, resultLen(CLIDefinition{}))
}

func TestOutputResultText_Definition(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: CLIDefinition{
		Token:    "DoIt",
		Location: &CLILocation{File: "/lib/a.df", Line: 4},
	}})
	require.NoError(t, err)
	assert.Equal(t, "/lib/a.df:4:0\n", buf.String())

	buf.Reset()
	err = outputResultText(&buf, CLIResult{Results: CLIDefinition{Token: "x", Message: "No definition found"}})
	require.NoError(t, err)
	assert.Equal(t, "No definition found\n", buf.String())
}

func TestOutputResultText_PaginationFooter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	total := 5
	err := outputResultText(&buf, CLIResult{
		Results:    []CLISymbol{{Name: "a", Kind: "class"}, {Name: "b", Kind: "object"}},
		TotalCount: &total,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "Showing 2 of 5 results")
}

func TestOutputResultText_Diagnostics(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: []CLIDiagnostic{
		{File: "a.df", Message: "bad nesting", Severity: "error", StartLine: 1, StartCol: 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, "a.df:1:2: error: bad nesting\n", buf.String())
}

func TestOutputResultText_UnsupportedType(t *testing.T) {
	t.Parallel()
	err := outputResultText(&bytes.Buffer{}, CLIResult{Results: 42})
	assert.ErrorContains(t, err, "unsupported result type")
}
