package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

func TestLocalShadowsModule(t *testing.T) {
	l := New([]Level{LevelLocal, LevelModule, LevelGlobal})
	l.AddSymbol("x", 1, LevelModule)
	l.EnterScope(LevelLocal)
	l.AddSymbol("x", 2, LevelLocal)

	id, ok := l.Resolve("x")
	assert.True(t, ok)
	assert.Equal(t, symbol.ID(2), id)

	l.ExitScope()
	id, ok = l.Resolve("x")
	assert.True(t, ok)
	assert.Equal(t, symbol.ID(1), id)
}

func TestResolveFallsThroughOrder(t *testing.T) {
	l := New([]Level{LevelLocal, LevelImports, LevelModule, LevelGlobal})
	l.AddSymbol("helper", 5, LevelGlobal)

	id, ok := l.Resolve("helper")
	assert.True(t, ok)
	assert.Equal(t, symbol.ID(5), id)

	_, ok = l.Resolve("missing")
	assert.False(t, ok)
}

func TestHoistedLocalVisibleInOutermostFrame(t *testing.T) {
	l := New([]Level{LevelLocal, LevelModule})
	l.EnterScope(LevelLocal)
	l.EnterScope(LevelLocal)
	l.AddSymbolWithContext("hoisted", 9, symbol.ScopeContext{Kind: symbol.ScopeLocal, Hoisted: true})

	id, ok := l.Resolve("hoisted")
	assert.True(t, ok)
	assert.Equal(t, symbol.ID(9), id)
}

func TestNamespaceAliasRoundTrip(t *testing.T) {
	l := New([]Level{LevelLocal, LevelImports})
	l.RegisterImportBinding(ImportBinding{Alias: "ns", ModuleAlias: "pkg/mod"})

	mod, ok := l.NamespaceAlias("ns")
	assert.True(t, ok)
	assert.Equal(t, "pkg/mod", mod)

	_, id := l.Resolve("ns")
	assert.False(t, id)
}

func TestResolveRelationshipOverride(t *testing.T) {
	l := New([]Level{LevelLocal, LevelModule})
	l.AddSymbol("target", 42, LevelModule)
	l.WithResolveOverride(func(l *Layered, fromName, toName string, kind symbol.RelationKind) (symbol.ID, bool) {
		if kind == symbol.RelUses {
			return 0, false
		}
		return l.Resolve(toName)
	})

	id, ok := l.ResolveRelationship("a", "target", symbol.RelCalls)
	assert.True(t, ok)
	assert.Equal(t, symbol.ID(42), id)

	_, ok = l.ResolveRelationship("a", "target", symbol.RelUses)
	assert.False(t, ok)
}

func TestClearLocalScopeDropsFramesNotLayers(t *testing.T) {
	l := New([]Level{LevelLocal, LevelModule})
	l.AddSymbol("mod", 1, LevelModule)
	l.EnterScope(LevelLocal)
	l.AddSymbol("loc", 2, LevelLocal)

	l.ClearLocalScope()

	_, ok := l.Resolve("loc")
	assert.False(t, ok)
	id, ok := l.Resolve("mod")
	assert.True(t, ok)
	assert.Equal(t, symbol.ID(1), id)
}
