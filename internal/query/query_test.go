package query

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/store"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func seedCallGraph(t *testing.T, st *store.Store) {
	t.Helper()
	require.NoError(t, st.StartBatch())
	require.NoError(t, st.IndexSymbol(symbol.Symbol{ID: 1, FileID: 1, Name: "main", Kind: symbol.KindFunction, Language: symbol.LangGo}))
	require.NoError(t, st.IndexSymbol(symbol.Symbol{ID: 2, FileID: 1, Name: "helper", Kind: symbol.KindFunction, Language: symbol.LangGo}))
	require.NoError(t, st.IndexSymbol(symbol.Symbol{ID: 3, FileID: 1, Name: "leaf", Kind: symbol.KindFunction, Language: symbol.LangGo}))
	require.NoError(t, st.StoreRelationship(symbol.Relationship{FromID: 1, ToID: 2, Kind: symbol.RelCalls}))
	require.NoError(t, st.StoreRelationship(symbol.Relationship{FromID: 2, ToID: 3, Kind: symbol.RelCalls}))
	require.NoError(t, st.CommitBatch())
}

func TestCallersAndCallees(t *testing.T) {
	e, st := newTestEngine(t)
	seedCallGraph(t, st)

	callers, err := e.Callers(2)
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "main", callers[0].Name)

	callees, err := e.Callees(1)
	require.NoError(t, err)
	require.Len(t, callees, 1)
	assert.Equal(t, "helper", callees[0].Name)
}

func TestImpactWalksTransitively(t *testing.T) {
	e, st := newTestEngine(t)
	seedCallGraph(t, st)

	affected, err := e.Impact(3, 0)
	require.NoError(t, err)
	names := make([]string, len(affected))
	for i, s := range affected {
		names[i] = s.Name
	}
	assert.ElementsMatch(t, []string{"helper", "main"}, names)
}

func TestImpactRespectsMaxDepth(t *testing.T) {
	e, st := newTestEngine(t)
	seedCallGraph(t, st)

	affected, err := e.Impact(3, 1)
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, "helper", affected[0].Name)
}

func TestSearchFindsSubstringCaseInsensitive(t *testing.T) {
	e, st := newTestEngine(t)
	seedCallGraph(t, st)

	results, err := e.Search("ELP", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "helper", results[0].Name)
}

func TestSearchRespectsLimit(t *testing.T) {
	e, st := newTestEngine(t)
	seedCallGraph(t, st)

	results, err := e.Search("", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSymbolFiltersByLanguage(t *testing.T) {
	e, st := newTestEngine(t)
	seedCallGraph(t, st)

	found, err := e.Symbol("main", symbol.LangPython)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = e.Symbol("main", symbol.LangGo)
	require.NoError(t, err)
	require.Len(t, found, 1)
}
