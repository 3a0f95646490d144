package typescript

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

func TestParserImportsClassesAndInterfaces(t *testing.T) {
	src := []byte(`import { f, g as h } from "@utils/x";
import * as N from "./ns";
import Default from "./def";

export interface Shape {
	area(): number;
}

export class Circle extends Base implements Shape {
	radius: number;

	area(): number {
		return this.radius * 2;
	}
}

export function render(c: Circle) {
	c.area();
	f();
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	byName := map[string]symbol.Symbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}
	assert.Equal(t, symbol.KindInterface, byName["Shape"].Kind)
	assert.Equal(t, symbol.KindClass, byName["Circle"].Kind)
	assert.Equal(t, symbol.KindMethod, byName["area"].Kind)
	assert.Equal(t, symbol.KindFunction, byName["render"].Kind)
	assert.Equal(t, symbol.KindField, byName["radius"].Kind)

	type impKey struct {
		path, alias string
		glob        bool
	}
	var imps []impKey
	for _, imp := range res.Imports {
		imps = append(imps, impKey{imp.Path, imp.Alias, imp.IsGlob})
	}
	assert.Contains(t, imps, impKey{"@utils/x", "f", false})
	assert.Contains(t, imps, impKey{"@utils/x", "h", false})
	assert.Contains(t, imps, impKey{"./ns", "N", true})
	assert.Contains(t, imps, impKey{"./def", "Default", false})

	var extends, implements bool
	for _, e := range res.Inheritance.Edges {
		if e.Child == "Circle" && e.Parent == "Base" && e.Kind == "extends" {
			extends = true
		}
		if e.Child == "Circle" && e.Parent == "Shape" && e.Kind == "implements" {
			implements = true
		}
	}
	assert.True(t, extends)
	assert.True(t, implements)
}

func TestParserHoistingAndArrowFunctions(t *testing.T) {
	src := []byte(`export function top() {
	inner();
}

const handler = () => {
	top();
};

function runner() {
	const local = 1;
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	byName := map[string]symbol.Symbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}
	assert.True(t, byName["top"].ScopeContext.Hoisted, "top-level function declarations hoist")
	assert.Equal(t, symbol.KindFunction, byName["handler"].Kind)

	var arrowCall bool
	for _, rel := range res.Relationships {
		if rel.FromName == "handler" && rel.ToName == "top" && rel.Kind == symbol.RelCalls {
			arrowCall = true
		}
	}
	assert.True(t, arrowCall, "calls inside an arrow function attribute to its binding")
}

func TestParserMethodCallsAndNewExpressionHints(t *testing.T) {
	src := []byte(`function run() {
	const c = new Circle();
	c.area();
	this.refresh();
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	assert.Equal(t, "Circle", res.VariableTypes["c"])

	var instance, onThis bool
	for _, mc := range res.MethodCalls {
		if mc.MethodName == "area" && mc.Receiver == "c" {
			instance = true
		}
		if mc.MethodName == "refresh" && mc.Receiver == "this" && !mc.IsStatic {
			onThis = true
		}
	}
	assert.True(t, instance)
	assert.True(t, onThis)
}

func TestBehaviorModulePathStripsExtensionAndIndex(t *testing.T) {
	b := &Behavior{}
	mp, ok := b.ModulePathFromFile("src/utils/x.ts", "")
	require.True(t, ok)
	assert.Equal(t, "src/utils/x", mp)

	mp, ok = b.ModulePathFromFile("src/utils/index.ts", "")
	require.True(t, ok)
	assert.Equal(t, "src/utils", mp)
}

func TestBehaviorImportMatchesWithIndexSuffix(t *testing.T) {
	b := &Behavior{}
	assert.True(t, b.ImportMatchesSymbol("src/utils/x", "src/utils/x", ""))
	assert.True(t, b.ImportMatchesSymbol("src/utils", "src/utils/index", ""))
	assert.False(t, b.ImportMatchesSymbol("src/utils/x", "src/utils/y", ""))
}

func TestBehaviorVisibilityModifiers(t *testing.T) {
	b := &Behavior{}
	assert.Equal(t, symbol.VisibilityPrivate, b.ParseVisibility("private area(): number"))
	assert.Equal(t, symbol.VisibilityModule, b.ParseVisibility("protected area(): number"))
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("area(): number"))
}
