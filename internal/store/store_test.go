package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestFileInfoRoundTrip(t *testing.T) {
	st := openTestStore(t)

	info, err := st.GetFileInfo("main.go")
	require.NoError(t, err)
	assert.Nil(t, info)

	require.NoError(t, st.StoreFileInfo(1, "main.go", "hash1", 100))
	info, err = st.GetFileInfo("main.go")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, symbol.FileID(1), info.ID)
	assert.Equal(t, "hash1", info.Hash)

	path, ok, err := st.GetFilePath(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "main.go", path)
}

func TestIndexSymbolAndFindByName(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.StartBatch())

	sym := symbol.Symbol{
		ID:       1,
		FileID:   1,
		Name:     "DoThing",
		Kind:     symbol.KindFunction,
		Language: symbol.LangGo,
	}
	require.NoError(t, st.IndexSymbol(sym))
	require.NoError(t, st.CommitBatch())

	found, err := st.FindSymbolsByName("DoThing", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, sym.Name, found[0].Name)

	byID, err := st.FindSymbolByID(1)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, sym.Name, byID.Name)

	none, err := st.FindSymbolsByName("DoThing", symbol.LangPython)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDiscardBatchRollsBack(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.StartBatch())
	require.NoError(t, st.IndexSymbol(symbol.Symbol{ID: 1, FileID: 1, Name: "Ghost", Kind: symbol.KindFunction, Language: symbol.LangGo}))
	require.NoError(t, st.DiscardBatch())

	count, err := st.CountSymbols()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRemoveFileDocumentsDeletesSymbolsAndRelationships(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.StartBatch())
	require.NoError(t, st.StoreFileInfo(1, "a.go", "h1", 1))
	require.NoError(t, st.IndexSymbol(symbol.Symbol{ID: 1, FileID: 1, Name: "A", Kind: symbol.KindFunction, Language: symbol.LangGo}))
	require.NoError(t, st.IndexSymbol(symbol.Symbol{ID: 2, FileID: 1, Name: "B", Kind: symbol.KindFunction, Language: symbol.LangGo}))
	require.NoError(t, st.StoreRelationship(symbol.Relationship{FromID: 1, ToID: 2, Kind: symbol.RelCalls}))
	require.NoError(t, st.CommitBatch())

	require.NoError(t, st.StartBatch())
	require.NoError(t, st.RemoveFileDocuments("a.go"))
	require.NoError(t, st.CommitBatch())

	symCount, err := st.CountSymbols()
	require.NoError(t, err)
	assert.Equal(t, 0, symCount)

	relCount, err := st.CountRelationships("")
	require.NoError(t, err)
	assert.Equal(t, 0, relCount)
}

func TestRelationshipLookups(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.StartBatch())
	require.NoError(t, st.StoreRelationship(symbol.Relationship{FromID: 1, ToID: 2, Kind: symbol.RelCalls}))
	require.NoError(t, st.StoreRelationship(symbol.Relationship{FromID: 3, ToID: 2, Kind: symbol.RelCalls}))
	require.NoError(t, st.CommitBatch())

	callers, err := st.GetRelationshipsTo(2, symbol.RelCalls)
	require.NoError(t, err)
	assert.Len(t, callers, 2)

	callees, err := st.GetRelationshipsFrom(1, symbol.RelCalls)
	require.NoError(t, err)
	require.Len(t, callees, 1)
	assert.Equal(t, symbol.ID(2), callees[0].ToID)
}

func TestGetNextIDsAreMonotonic(t *testing.T) {
	st := openTestStore(t)
	first, err := st.GetNextFileID()
	require.NoError(t, err)
	second, err := st.GetNextFileID()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}
