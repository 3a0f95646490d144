package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

func TestCallsRequireCallableEndpoints(t *testing.T) {
	assert.True(t, isCompatibleRelationship(symbol.KindFunction, symbol.KindFunction, symbol.RelCalls))
	assert.True(t, isCompatibleRelationship(symbol.KindMethod, symbol.KindFunction, symbol.RelCalls))
	assert.False(t, isCompatibleRelationship(symbol.KindStruct, symbol.KindFunction, symbol.RelCalls))
	assert.False(t, isCompatibleRelationship(symbol.KindFunction, symbol.KindStruct, symbol.RelCalls))
}

func TestImplementsRequiresContainerAndTraitLike(t *testing.T) {
	assert.True(t, isCompatibleRelationship(symbol.KindStruct, symbol.KindTrait, symbol.RelImplements))
	assert.True(t, isCompatibleRelationship(symbol.KindClass, symbol.KindInterface, symbol.RelImplements))
	assert.False(t, isCompatibleRelationship(symbol.KindFunction, symbol.KindTrait, symbol.RelImplements))
	assert.False(t, isCompatibleRelationship(symbol.KindStruct, symbol.KindStruct, symbol.RelImplements))
}

func TestDefinesRequiresContainerMemberPair(t *testing.T) {
	assert.True(t, isCompatibleRelationship(symbol.KindStruct, symbol.KindMethod, symbol.RelDefines))
	assert.True(t, isCompatibleRelationship(symbol.KindClass, symbol.KindField, symbol.RelDefines))
	assert.False(t, isCompatibleRelationship(symbol.KindFunction, symbol.KindMethod, symbol.RelDefines))
	assert.False(t, isCompatibleRelationship(symbol.KindStruct, symbol.KindStruct, symbol.RelDefines))
}

func TestReferencesAlwaysCompatible(t *testing.T) {
	assert.True(t, isCompatibleRelationship(symbol.KindVariable, symbol.KindStruct, symbol.RelReferences))
}
