package cpp

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
using namespace shapes;

namespace shapes {

class Shape {
public:
    Shape();
    double area();
private:
    double radius;
};

class Circle : public Shape {
public:
    double area();
};

}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Shape")
	assert.Contains(t, names, "Circle")
	assert.Contains(t, names, "area")
	assert.Contains(t, names, "radius")

	require.Len(t, res.Imports, 1)
	assert.Equal(t, "shapes", res.Imports[0].Path)

	var extends bool
	for _, e := range res.Inheritance.Edges {
		if e.Child == "Circle" && e.Parent == "Shape" && e.Kind == "base_class" {
			extends = true
		}
	}
	assert.True(t, extends)
}

func TestParserCallKinds(t *testing.T) {
	src := []byte(`
void run() {
    helper();
    Circle c;
    c.area();
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	var bareCall, instanceCall bool
	for _, rel := range res.Relationships {
		if rel.ToName == "helper" {
			bareCall = true
		}
	}
	for _, mc := range res.MethodCalls {
		if mc.MethodName == "area" && !mc.IsStatic {
			instanceCall = true
		}
	}
	assert.True(t, bareCall)
	assert.True(t, instanceCall)
	assert.Equal(t, "Circle", res.VariableTypes["c"])
}

func TestBehaviorModulePathAppendsName(t *testing.T) {
	b := &Behavior{}
	base, ok := b.ModulePathFromFile("shapes/circle.cpp", "")
	require.True(t, ok)
	assert.Equal(t, "shapes::circle", base)
	assert.Equal(t, "shapes::circle::Circle", b.FormatModulePath(base, "Circle"))
}

func TestBehaviorVisibility(t *testing.T) {
	b := &Behavior{}
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("public:void area()"))
	assert.Equal(t, symbol.VisibilityPrivate, b.ParseVisibility("private:double radius"))
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("void freeFunc()"))
}
