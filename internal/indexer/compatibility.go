package indexer

import "github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"

// isCompatibleRelationship implements the kind-compatibility table this
// section 4.7 calls for: a table keyed by (from.kind, to.kind, rel.kind)
// that rejects nonsensical edges (a Struct cannot Call a Function; a
// Function cannot Implement a Trait; Defines requires a container->member
// pair).
func isCompatibleRelationship(from, to symbol.Kind, kind symbol.RelationKind) bool {
	switch kind {
	case symbol.RelCalls, symbol.RelCalledBy:
		if !isCallable(from) {
			return false
		}
		return isCallable(to) || to == symbol.KindVariable || to == symbol.KindConstant
	case symbol.RelImplements, symbol.RelImplementedBy:
		if !isContainerKind(from) {
			return false
		}
		return to == symbol.KindInterface || to == symbol.KindTrait
	case symbol.RelExtends, symbol.RelExtendedBy:
		if !isContainerKind(from) {
			return false
		}
		return isContainerKind(to)
	case symbol.RelUses, symbol.RelUsedBy:
		return isContainerKind(from) && (to == symbol.KindTrait || isContainerKind(to))
	case symbol.RelDefines, symbol.RelDefinedIn:
		if !isContainerKind(from) {
			return false
		}
		return isMemberKind(to)
	case symbol.RelReferences, symbol.RelRefBy:
		return true
	}
	return true
}

func isCallable(k symbol.Kind) bool {
	switch k {
	case symbol.KindFunction, symbol.KindMethod, symbol.KindMacro:
		return true
	}
	return false
}

func isContainerKind(k symbol.Kind) bool {
	switch k {
	case symbol.KindStruct, symbol.KindClass, symbol.KindInterface, symbol.KindTrait, symbol.KindEnum, symbol.KindModule:
		return true
	}
	return false
}

func isMemberKind(k symbol.Kind) bool {
	switch k {
	case symbol.KindMethod, symbol.KindField, symbol.KindConstant, symbol.KindVariable, symbol.KindTypeAlias:
		return true
	}
	return false
}
