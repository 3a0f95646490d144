package golang

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

func TestParserPackageLevelDeclarations(t *testing.T) {
	src := []byte(`package widgets

import (
	"fmt"
	stdstrings "strings"
)

const MaxSize = 64

var registry map[string]int

// Widget is a drawable thing.
type Widget struct {
	Name string
	size int
}

// Draw renders the widget.
func (w *Widget) Draw() {
	fmt.Println(w.Name)
}

func helper() string {
	return stdstrings.ToUpper("x")
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	byName := map[string]symbol.Symbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "Widget")
	assert.Equal(t, symbol.KindStruct, byName["Widget"].Kind)
	assert.Equal(t, symbol.KindConstant, byName["MaxSize"].Kind)
	assert.Equal(t, symbol.KindVariable, byName["registry"].Kind)
	assert.Equal(t, symbol.KindMethod, byName["Draw"].Kind)
	assert.Equal(t, symbol.KindFunction, byName["helper"].Kind)
	assert.Equal(t, symbol.KindField, byName["Name"].Kind)

	assert.Contains(t, byName["Widget"].DocComment, "drawable")
	assert.True(t, byName["helper"].ScopeContext.Hoisted)

	var paths, aliases []string
	for _, imp := range res.Imports {
		paths = append(paths, imp.Path)
		aliases = append(aliases, imp.Alias)
	}
	assert.ElementsMatch(t, []string{"fmt", "strings"}, paths)
	assert.Contains(t, aliases, "stdstrings")
}

func TestParserMethodProducesDefinesAndInherentMethod(t *testing.T) {
	src := []byte(`package widgets

type Widget struct{}

func (w Widget) Draw() {}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	var defines bool
	for _, rel := range res.Relationships {
		if rel.Kind == symbol.RelDefines && rel.FromName == "Widget" && rel.ToName == "Draw" {
			defines = true
		}
	}
	assert.True(t, defines, "method declaration should yield a Defines edge")
	assert.ElementsMatch(t, []string{"Draw"}, res.Inheritance.InherentMethods["Widget"])
}

func TestParserEmbeddedFieldBecomesInheritanceEdge(t *testing.T) {
	src := []byte(`package widgets

type Base struct{}

type Widget struct {
	Base
	Name string
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	require.Len(t, res.Inheritance.Edges, 1)
	assert.Equal(t, "Widget", res.Inheritance.Edges[0].Child)
	assert.Equal(t, "Base", res.Inheritance.Edges[0].Parent)
}

func TestParserCallsAndVariableTypes(t *testing.T) {
	src := []byte(`package widgets

func run() {
	w := Widget{}
	helper()
	w.Draw()
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	assert.Equal(t, "Widget", res.VariableTypes["w"])

	var bare, method bool
	for _, rel := range res.Relationships {
		if rel.Kind != symbol.RelCalls || rel.FromName != "run" {
			continue
		}
		if rel.ToName == "helper" && !rel.Metadata.HasReceiver {
			bare = true
		}
		if rel.ToName == "Draw" && rel.Metadata.Receiver == "w" {
			method = true
		}
	}
	assert.True(t, bare)
	assert.True(t, method)
}

func TestBehaviorVisibilityByCapitalization(t *testing.T) {
	b := &Behavior{}
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("func Public() error"))
	assert.Equal(t, symbol.VisibilityModule, b.ParseVisibility("func private() error"))
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("type Widget struct"))
}

func TestBehaviorModulePathIsPackageDir(t *testing.T) {
	b := &Behavior{}
	mp, ok := b.ModulePathFromFile("pkg/utils/helper.go", "")
	require.True(t, ok)
	assert.Equal(t, "pkg/utils", mp)
	assert.Equal(t, "pkg/utils", b.FormatModulePath(mp, "Helper"))
}
