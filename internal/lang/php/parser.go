package php

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	phpgrammar "github.com/smacker/go-tree-sitter/php"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Parser is the stateless PHP tree-sitter parser.
type Parser struct{}

func NewParser(registry.ParserSettings) registry.Parser { return &Parser{} }

type ctx struct {
	src         []byte
	fileID      symbol.FileID
	nextID      func() (symbol.ID, error)
	result      registry.ParseResult
	currentFunc string
	namespace   string
}

func (p *Parser) Parse(source []byte, fileID symbol.FileID, nextID func() (symbol.ID, error)) (registry.ParseResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(phpgrammar.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return registry.ParseResult{}, err
	}
	defer tree.Close()

	c := &ctx{src: source, fileID: fileID, nextID: nextID}
	c.result.VariableTypes = map[string]string{}
	c.result.Inheritance.InherentMethods = map[string][]string{}
	c.result.Inheritance.TraitMethods = map[string]map[string][]string{}

	root := tree.RootNode()
	c.walkProgram(root)
	return c.result, nil
}

func (c *ctx) newID() symbol.ID {
	id, err := c.nextID()
	if err != nil {
		return 0
	}
	return id
}

func (c *ctx) walkProgram(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkTop(n.NamedChild(i))
	}
}

func (c *ctx) walkTop(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "namespace_definition":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			c.namespace = `\` + strings.ReplaceAll(nameNode.Content(c.src), "\\", "\\")
		}
		if body := n.NamedChild(1); body != nil && body.Type() == "compound_statement" {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				c.walkTop(body.NamedChild(i))
			}
		}
	case "namespace_use_declaration":
		c.parseUse(n)
	case "function_definition":
		c.parseFunction(n)
	case "class_declaration":
		c.parseClass(n)
	case "interface_declaration":
		c.parseInterface(n)
	case "trait_declaration":
		c.parseTraitDecl(n)
	}
}

func (c *ctx) parseUse(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "namespace_use_clause" {
			continue
		}
		nameNode := clause.ChildByFieldName("name")
		aliasNode := clause.ChildByFieldName("alias")
		// Without those fields the path is the first name/qualified_name
		// child and the alias sits in a namespace_aliasing_clause.
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			child := clause.NamedChild(j)
			switch {
			case nameNode == nil && (child.Type() == "name" || child.Type() == "qualified_name"):
				nameNode = child
			case aliasNode == nil && child.Type() == "namespace_aliasing_clause":
				aliasNode = child.NamedChild(0)
			}
		}
		if nameNode == nil {
			continue
		}
		full := nameNode.Content(c.src)
		if !strings.HasPrefix(full, `\`) {
			full = `\` + full
		}
		ns, leaf := splitNamespace(full)
		alias := leaf
		if aliasNode != nil {
			alias = aliasNode.Content(c.src)
		}
		c.result.Imports = append(c.result.Imports, symbol.Import{Path: ns, Alias: alias, FileID: c.fileID})
	}
}

// splitNamespace splits "\App\Services\Auth" into ("\App\Services", "Auth").
func splitNamespace(full string) (string, string) {
	idx := strings.LastIndex(full, `\`)
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+1:]
}

func (c *ctx) parseFunction(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: c.newID(), Name: name, Kind: symbol.KindFunction, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})
	prev := c.currentFunc
	c.currentFunc = name
	if body := n.ChildByFieldName("body"); body != nil {
		c.walkBody(body)
	}
	c.currentFunc = prev
}

func (c *ctx) parseClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: c.newID(), Name: name, Kind: symbol.KindClass, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})

	if base := n.ChildByFieldName("base_clause"); base != nil {
		if parent := firstNameIn(base, c.src); parent != "" {
			c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: name, Parent: parent, Kind: "extends"})
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "class_interface_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if parent := firstNameIn(child.NamedChild(j), c.src); parent != "" {
				c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: name, Parent: parent, Kind: "implements"})
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c.parseClassMember(body.NamedChild(i), name)
	}
}

func (c *ctx) parseClassMember(n *sitter.Node, className string) {
	switch n.Type() {
	case "method_declaration":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		mname := nameNode.Content(c.src)
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: c.newID(), Name: mname, Kind: symbol.KindMethod, FileID: c.fileID,
			Range: rangeOf(n), Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: className, ToName: mname, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(n),
		})
		c.result.Inheritance.InherentMethods[className] = append(c.result.Inheritance.InherentMethods[className], mname)

		prev := c.currentFunc
		c.currentFunc = mname
		if body := n.ChildByFieldName("body"); body != nil {
			c.walkBody(body)
		}
		c.currentFunc = prev
	case "property_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			el := n.NamedChild(i)
			if el.Type() != "property_element" {
				continue
			}
			varNode := el.NamedChild(0)
			if varNode == nil {
				continue
			}
			fname := strings.TrimPrefix(varNode.Content(c.src), "$")
			c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
				ID: c.newID(), Name: fname, Kind: symbol.KindField, FileID: c.fileID,
				Range: rangeOf(el), Signature: n.Content(c.src),
				ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
			})
			c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
				FromName: className, ToName: fname, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(el),
			})
		}
	case "use_declaration":
		// Trait use: `use LoggerTrait, CacheTrait;`. Later use statements
		// override earlier ones' same-named methods, so AddTraitMethods is
		// called in declaration order and the inherit.Resolver's own
		// typeMethods map naturally keeps the last write.
		for i := 0; i < int(n.NamedChildCount()); i++ {
			nameNode := n.NamedChild(i)
			if nameNode.Type() != "name" && nameNode.Type() != "qualified_name" {
				continue
			}
			trait := nameNode.Content(c.src)
			c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: className, Parent: trait, Kind: "uses"})
		}
	}
}

func (c *ctx) parseInterface(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: c.newID(), Name: name, Kind: symbol.KindInterface, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})
	if base := n.ChildByFieldName("base_clause"); base != nil {
		for i := 0; i < int(base.NamedChildCount()); i++ {
			if parent := firstNameIn(base.NamedChild(i), c.src); parent != "" {
				c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: name, Parent: parent, Kind: "extends"})
			}
		}
	}
}

func (c *ctx) parseTraitDecl(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: c.newID(), Name: name, Kind: symbol.KindTrait, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c.parseClassMember(body.NamedChild(i), name)
	}
}

func (c *ctx) walkBody(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_call_expression":
		c.parseCall(n)
	case "member_call_expression":
		c.parseMemberCall(n)
	case "scoped_call_expression":
		c.parseScopedCall(n)
	case "assignment_expression":
		c.parseAssignment(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkBody(n.NamedChild(i))
	}
}

func (c *ctx) parseCall(n *sitter.Node) {
	if c.currentFunc == "" {
		return
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "name" {
		return
	}
	c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
		FromName: c.currentFunc, ToName: fn.Content(c.src), FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
	})
}

func (c *ctx) parseMemberCall(n *sitter.Node) {
	if c.currentFunc == "" {
		return
	}
	obj := n.ChildByFieldName("object")
	name := n.ChildByFieldName("name")
	if obj == nil || name == nil {
		return
	}
	receiver := obj.Content(c.src)
	method := name.Content(c.src)
	isStatic := receiver != "$this"
	c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
		CallerName: c.currentFunc, MethodName: method, Receiver: receiver, IsStatic: isStatic, Range: rangeOf(n),
	})
	c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
		FromName: c.currentFunc, ToName: method, FileID: c.fileID, Kind: symbol.RelCalls,
		Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: isStatic, HasReceiver: true}, Range: rangeOf(n),
	})
}

func (c *ctx) parseScopedCall(n *sitter.Node) {
	if c.currentFunc == "" {
		return
	}
	scopeNode := n.ChildByFieldName("scope")
	name := n.ChildByFieldName("name")
	if scopeNode == nil || name == nil {
		return
	}
	receiver := scopeNode.Content(c.src)
	method := name.Content(c.src)
	c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
		CallerName: c.currentFunc, MethodName: method, Receiver: receiver, IsStatic: true, Range: rangeOf(n),
	})
	c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
		FromName: c.currentFunc, ToName: method, FileID: c.fileID, Kind: symbol.RelCalls,
		Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: true, HasReceiver: true}, Range: rangeOf(n),
	})
}

// parseAssignment recognizes `$x = new Type(...)` as a conservative
// variable-type hint.
func (c *ctx) parseAssignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "variable_name" || right.Type() != "object_creation_expression" {
		return
	}
	classNode := right.ChildByFieldName("class")
	if classNode == nil {
		return
	}
	name := strings.TrimPrefix(left.Content(c.src), "$")
	c.result.VariableTypes[name] = classNode.Content(c.src)
}

func firstNameIn(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	if n.Type() == "name" || n.Type() == "qualified_name" {
		return n.Content(src)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if name := firstNameIn(n.NamedChild(i), src); name != "" {
			return name
		}
	}
	return ""
}

func rangeOf(n *sitter.Node) symbol.Range {
	sp, ep := n.StartPoint(), n.EndPoint()
	return symbol.Range{
		StartLine: sp.Row + 1, StartColumn: sp.Column,
		EndLine: ep.Row + 1, EndColumn: ep.Column,
		StartByte: n.StartByte(), EndByte: n.EndByte(),
	}
}

func signatureOf(n *sitter.Node, src []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil {
		return n.Content(src)
	}
	return string(src[n.StartByte():body.StartByte()])
}

// docCommentBefore picks up a single preceding "/** ... */" PHPDoc block
// comment, PHP's only doc-comment convention.
func docCommentBefore(n *sitter.Node, src []byte) string {
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := prev.Content(src)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}
