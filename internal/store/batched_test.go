package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_AssignsNegativeIDs(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore()

	id1, err := batch.InsertSymbol(&Symbol{FileID: 1, Name: "cA", Kind: "class"})
	require.NoError(t, err)
	id2, err := batch.InsertDiagnostic(&Diagnostic{FileID: 1, Message: "m", Severity: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(-1), id1)
	assert.Equal(t, int64(-2), id2)
	assert.Len(t, batch.Symbols, 1)
	assert.Len(t, batch.Diagnostics, 1)
}

func TestCommitBatch_RemapsParents(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/lib/a.df")

	batch := NewBatchedStore()
	objID, err := batch.InsertSymbol(&Symbol{FileID: f.ID, Name: "oMain", Kind: "object"})
	require.NoError(t, err)
	procID, err := batch.InsertSymbol(&Symbol{FileID: f.ID, Name: "OnClick", Kind: "procedure", ParentSymbolID: ptr(objID)})
	require.NoError(t, err)
	_, err = batch.InsertSymbol(&Symbol{FileID: f.ID, Name: "iX", Kind: "parameter", ParentSymbolID: ptr(procID)})
	require.NoError(t, err)
	_, err = batch.InsertDiagnostic(&Diagnostic{FileID: f.ID, Message: "Class 'c' cannot be nested inside a Class", Severity: 1})
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(batch))

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 3)
	for _, sym := range syms {
		assert.Positive(t, sym.ID)
	}
	assert.Nil(t, syms[0].ParentSymbolID)
	require.NotNil(t, syms[1].ParentSymbolID)
	assert.Equal(t, syms[0].ID, *syms[1].ParentSymbolID)
	require.NotNil(t, syms[2].ParentSymbolID)
	assert.Equal(t, syms[1].ID, *syms[2].ParentSymbolID)

	diags, err := s.DiagnosticsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
}

func TestCommitBatch_UnknownParentFails(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/lib/a.df")

	batch := NewBatchedStore()
	_, err := batch.InsertSymbol(&Symbol{FileID: f.ID, Name: "orphan", Kind: "procedure", ParentSymbolID: ptr(int64(-42))})
	require.NoError(t, err)

	err = s.CommitBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orphan")

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, syms)
}
