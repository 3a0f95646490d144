package csharp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

func nextIDFrom(start int) func() (symbol.ID, error) {
	n := start
	return func() (symbol.ID, error) {
		n++
		return symbol.ID(n), nil
	}
}

func TestParserNamespaceClassAndUsing(t *testing.T) {
	src := []byte(`
using My.Logging;

namespace My.Services
{
    public class Auth : BaseService, IAuth
    {
        public void Check()
        {
            this.Helper();
            Logger.Write();
        }
    }
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Auth")
	assert.Contains(t, names, "Check")

	require.Len(t, res.Imports, 1)
	assert.Equal(t, "My.Logging", res.Imports[0].Path)

	var extends, implements bool
	for _, e := range res.Inheritance.Edges {
		if e.Child == "Auth" && e.Parent == "BaseService" && e.Kind == "base_type" {
			extends = true
		}
		if e.Child == "Auth" && e.Parent == "IAuth" && e.Kind == "interface_impl" {
			implements = true
		}
	}
	assert.True(t, extends)
	assert.True(t, implements)

	var instanceCall, staticCall bool
	for _, mc := range res.MethodCalls {
		if mc.MethodName == "Helper" && !mc.IsStatic {
			instanceCall = true
		}
		if mc.MethodName == "Write" && mc.IsStatic {
			staticCall = true
		}
	}
	assert.True(t, instanceCall)
	assert.True(t, staticCall)
}

func TestBehaviorExternalCallTarget(t *testing.T) {
	b := &Behavior{}
	modPath, leaf, ok := b.ResolveExternalCallTarget("My.Logging.Logger.Write", 1)
	require.True(t, ok)
	assert.Equal(t, "My.Logging.Logger", modPath)
	assert.Equal(t, "Write", leaf)

	_, _, ok = b.ResolveExternalCallTarget("Write", 1)
	assert.False(t, ok)

	sym, err := b.CreateExternalSymbol(modPath, leaf, 1, func() (symbol.ID, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, symbol.ID(42), sym.ID)
	assert.Equal(t, "Write", sym.Name)
	assert.Equal(t, symbol.VisibilityPublic, sym.Visibility)
}

func TestBehaviorVisibility(t *testing.T) {
	b := &Behavior{}
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("public void Check()"))
	assert.Equal(t, symbol.VisibilityModule, b.ParseVisibility("internal void Check()"))
	assert.Equal(t, symbol.VisibilityPrivate, b.ParseVisibility("private void Check()"))
	assert.Equal(t, symbol.VisibilityPrivate, b.ParseVisibility("void Check()"))
}
