package python

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

func TestParserModuleAndClassSymbols(t *testing.T) {
	src := []byte(`import os
from collections import OrderedDict
from .sibling import thing

MAX_RETRIES = 3

def helper():
    """Does helping."""
    return 1

class Service:
    """A service."""

    DEFAULT_TIMEOUT = 30

    def __init__(self):
        self.started = False

    def start(self):
        helper()
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	byName := map[string]symbol.Symbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}
	assert.Equal(t, symbol.KindFunction, byName["helper"].Kind)
	assert.Equal(t, symbol.KindClass, byName["Service"].Kind)
	assert.Equal(t, symbol.KindMethod, byName["start"].Kind)
	assert.Equal(t, symbol.KindConstant, byName["DEFAULT_TIMEOUT"].Kind)
	assert.Contains(t, byName["helper"].DocComment, "Does helping")
	assert.Contains(t, byName["Service"].DocComment, "A service")

	var paths []string
	for _, imp := range res.Imports {
		paths = append(paths, imp.Path)
	}
	assert.Contains(t, paths, "os")
	assert.Contains(t, paths, "collections")
	assert.Contains(t, paths, ".sibling")

	assert.ElementsMatch(t, []string{"__init__", "start"}, res.Inheritance.InherentMethods["Service"])
}

func TestParserBaseClassesAsExtendsEdges(t *testing.T) {
	src := []byte(`class Base:
    pass

class Mixin:
    pass

class Child(Base, Mixin, metaclass=Meta):
    pass
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	var parents []string
	for _, e := range res.Inheritance.Edges {
		require.Equal(t, "Child", e.Child)
		parents = append(parents, e.Parent)
	}
	assert.ElementsMatch(t, []string{"Base", "Mixin"}, parents)
}

func TestParserLocalBindingIsNotResolvable(t *testing.T) {
	src := []byte(`def helper():
    return 1

def outer():
    helper = 1
    def inner():
        helper()
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	b := New()
	var moduleHelper, innerFn symbol.Symbol
	for _, s := range res.Symbols {
		switch {
		case s.Name == "helper" && s.ScopeContext.Kind == symbol.ScopeModule:
			moduleHelper = s
		case s.Name == "inner":
			innerFn = s
		}
	}
	require.NotZero(t, moduleHelper.ID, "module-level helper should be extracted")
	require.NotZero(t, innerFn.ID, "nested inner should be extracted")
	assert.True(t, b.IsResolvableSymbol(moduleHelper))
	assert.False(t, b.IsResolvableSymbol(innerFn), "nested defs are not visible outside their function")

	var call bool
	for _, rel := range res.Relationships {
		if rel.FromName == "inner" && rel.ToName == "helper" && rel.Kind == symbol.RelCalls {
			call = true
		}
	}
	assert.True(t, call)
}

func TestParserMethodCallsAndConstructorHints(t *testing.T) {
	src := []byte(`def run():
    svc = Service()
    svc.start()
    self_like.method()
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	assert.Equal(t, "Service", res.VariableTypes["svc"])

	var found bool
	for _, mc := range res.MethodCalls {
		if mc.MethodName == "start" && mc.Receiver == "svc" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBehaviorModulePathFromFile(t *testing.T) {
	b := &Behavior{}
	mp, ok := b.ModulePathFromFile("pkg/sub/mod.py", "")
	require.True(t, ok)
	assert.Equal(t, "pkg.sub.mod", mp)

	mp, ok = b.ModulePathFromFile("pkg/sub/__init__.py", "")
	require.True(t, ok)
	assert.Equal(t, "pkg.sub", mp)
}

func TestBehaviorRelativeImportMatching(t *testing.T) {
	b := &Behavior{}
	// from . import x  inside pkg.sub -> pkg.sub
	assert.True(t, b.ImportMatchesSymbol(".helper", "pkg.sub.helper", "pkg.sub"))
	// from ..other import y  inside pkg.sub -> pkg.other
	assert.True(t, b.ImportMatchesSymbol("..other", "pkg.other", "pkg.sub"))
	assert.False(t, b.ImportMatchesSymbol("..other", "pkg.sub.other", "pkg.sub"))
	assert.True(t, b.ImportMatchesSymbol("pkg.mod", "pkg.mod", ""))
}

func TestBehaviorUnderscoreVisibility(t *testing.T) {
	b := &Behavior{}
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("def helper():"))
	assert.Equal(t, symbol.VisibilityModule, b.ParseVisibility("def _internal():"))
	assert.Equal(t, symbol.VisibilityPrivate, b.ParseVisibility("def __mangled():"))
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("def __init__(self):"))
}
