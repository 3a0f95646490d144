package inherit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMethodPrefersInherentWhenConfigured(t *testing.T) {
	r := New(true, LinearizationDFS)
	r.AddInheritance("Circle", "Shape", Implements)
	r.AddTypeMethods("Circle", []string{"area"})
	r.AddTraitMethods("Circle", "Shape", []string{"describe", "area"})

	owner, ok := r.ResolveMethod("Circle", "area")
	assert.True(t, ok)
	assert.Equal(t, "Circle", owner)

	owner, ok = r.ResolveMethod("Circle", "describe")
	assert.True(t, ok)
	assert.Equal(t, "Shape", owner)
}

func TestResolveMethodWalksDFSChain(t *testing.T) {
	r := New(false, LinearizationDFS)
	r.AddInheritance("Dog", "Animal", Extends)
	r.AddTypeMethods("Animal", []string{"speak"})

	owner, ok := r.ResolveMethod("Dog", "speak")
	assert.True(t, ok)
	assert.Equal(t, "Animal", owner)

	_, ok = r.ResolveMethod("Dog", "fly")
	assert.False(t, ok)
}

func TestResolveMethodCycleSafe(t *testing.T) {
	r := New(false, LinearizationDFS)
	r.AddInheritance("A", "B", Extends)
	r.AddInheritance("B", "A", Extends)

	_, ok := r.ResolveMethod("A", "missing")
	assert.False(t, ok)
}

func TestIsSubtype(t *testing.T) {
	r := New(false, LinearizationDFS)
	r.AddInheritance("Dog", "Animal", Extends)
	r.AddInheritance("Animal", "LivingThing", Extends)

	assert.True(t, r.IsSubtype("Dog", "LivingThing"))
	assert.True(t, r.IsSubtype("Dog", "Dog"))
	assert.False(t, r.IsSubtype("Dog", "Plant"))
}

func TestC3LinearizationDiamond(t *testing.T) {
	r := New(false, LinearizationC3)
	// Python-style diamond: D(B, C), B(A), C(A)
	r.AddInheritance("D", "B", Extends)
	r.AddInheritance("D", "C", Extends)
	r.AddInheritance("B", "A", Extends)
	r.AddInheritance("C", "A", Extends)

	chain := r.GetInheritanceChain("D")
	assert.Equal(t, []string{"B", "C", "A"}, chain)
}

func TestGetImplementations(t *testing.T) {
	r := New(true, LinearizationDFS)
	r.AddInheritance("Circle", "Shape", Implements)
	r.AddInheritance("Square", "Shape", Implements)
	r.AddInheritance("Triangle", "Other", Implements)

	impls := r.GetImplementations("Shape")
	assert.ElementsMatch(t, []string{"Circle", "Square"}, impls)
}

func TestGetAllMethodsUnionsInherentAndInherited(t *testing.T) {
	r := New(false, LinearizationDFS)
	r.AddInheritance("Dog", "Animal", Extends)
	r.AddTypeMethods("Dog", []string{"bark"})
	r.AddTypeMethods("Animal", []string{"speak", "eat"})

	methods := r.GetAllMethods("Dog")
	assert.ElementsMatch(t, []string{"bark", "speak", "eat"}, methods)
}
