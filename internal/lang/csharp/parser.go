package csharp

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	csharpgrammar "github.com/smacker/go-tree-sitter/csharp"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Parser is the stateless C# tree-sitter parser.
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
	parser.SetLanguage(csharpgrammar.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return registry.ParseResult{}, err
	}
	defer tree.Close()

	c := &ctx{src: source, fileID: fileID, nextID: nextID}
	c.result.VariableTypes = map[string]string{}
	c.result.Inheritance.InherentMethods = map[string][]string{}
	c.result.Inheritance.TraitMethods = map[string]map[string][]string{}

	c.walkTop(tree.RootNode())
	return c.result, nil
}

func (c *ctx) newID() symbol.ID {
	id, err := c.nextID()
	if err != nil {
		return 0
	}
	return id
}

func (c *ctx) walkTop(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "using_directive":
		c.parseUsing(n)
	case "namespace_declaration":
		c.parseNamespace(n)
	case "class_declaration":
		c.parseClass(n)
	case "interface_declaration":
		c.parseInterface(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkTop(n.NamedChild(i))
	}
}

func (c *ctx) parseUsing(n *sitter.Node) {
	// using_directive has no "name" field: the namespace is its last named
	// child, and an alias arrives as the "alias" field or a name_equals child.
	alias := ""
	if aliasNode := n.ChildByFieldName("alias"); aliasNode != nil {
		alias = aliasNode.Content(c.src)
	}
	var nameNode *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "name_equals" {
			if id := child.NamedChild(0); id != nil {
				alias = id.Content(c.src)
			}
			continue
		}
		nameNode = child
	}
	if nameNode == nil {
		return
	}
	ns := nameNode.Content(c.src)
	c.result.Imports = append(c.result.Imports, symbol.Import{Path: ns, Alias: alias, FileID: c.fileID})
}

func (c *ctx) parseNamespace(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	prev := c.namespace
	if prev == "" {
		c.namespace = nameNode.Content(c.src)
	} else {
		c.namespace = prev + "." + nameNode.Content(c.src)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			c.walkTop(body.NamedChild(i))
		}
	}
	c.namespace = prev
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

	if base := n.ChildByFieldName("bases"); base != nil {
		first := true
		for i := 0; i < int(base.NamedChildCount()); i++ {
			parentName := base.NamedChild(i).Content(c.src)
			kind := "interface_impl"
			if first {
				kind = "base_type"
				first = false
			}
			c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: name, Parent: parentName, Kind: kind})
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
	if base := n.ChildByFieldName("bases"); base != nil {
		for i := 0; i < int(base.NamedChildCount()); i++ {
			parentName := base.NamedChild(i).Content(c.src)
			c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: name, Parent: parentName, Kind: "base_type"})
		}
	}
}

func (c *ctx) parseClassMember(n *sitter.Node, className string) {
	switch n.Type() {
	case "method_declaration", "constructor_declaration":
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
	case "property_declaration", "field_declaration":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		fname := nameNode.Content(c.src)
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: c.newID(), Name: fname, Kind: symbol.KindField, FileID: c.fileID,
			Range: rangeOf(n), Signature: n.Content(c.src),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: className, ToName: fname, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(n),
		})
	}
}

func (c *ctx) walkBody(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "invocation_expression":
		c.parseInvocation(n)
	case "object_creation_expression":
		c.parseObjectCreation(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkBody(n.NamedChild(i))
	}
}

func (c *ctx) parseInvocation(n *sitter.Node) {
	if c.currentFunc == "" {
		return
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	switch fn.Type() {
	case "identifier":
		name := fn.Content(c.src)
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: name, FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
		})
	case "member_access_expression":
		exprNode := fn.ChildByFieldName("expression")
		nameNode := fn.ChildByFieldName("name")
		if exprNode == nil || nameNode == nil {
			return
		}
		receiver := exprNode.Content(c.src)
		method := nameNode.Content(c.src)
		isStatic := receiver != "this"
		c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
			CallerName: c.currentFunc, MethodName: method, Receiver: receiver, IsStatic: isStatic, Range: rangeOf(n),
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: receiver + "." + method, FileID: c.fileID, Kind: symbol.RelCalls,
			Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: isStatic, HasReceiver: true}, Range: rangeOf(n),
		})
	}
}

// parseObjectCreation recognizes `var x = new Type(...)` patterns reached
// through a parent variable_declarator, recording a conservative type hint.
func (c *ctx) parseObjectCreation(n *sitter.Node) {
	parent := n.Parent()
	if parent == nil || parent.Type() != "variable_declarator" {
		return
	}
	nameNode := parent.ChildByFieldName("name")
	typeNode := n.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	c.result.VariableTypes[nameNode.Content(c.src)] = typeNode.Content(c.src)
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

// docCommentBefore picks up a single preceding "///" XML doc-comment run,
// C#'s own doc-comment convention.
func docCommentBefore(n *sitter.Node, src []byte) string {
	var lines []string
	cur := n.PrevSibling()
	for cur != nil && cur.Type() == "comment" {
		text := strings.TrimSpace(cur.Content(src))
		if !strings.HasPrefix(text, "///") {
			break
		}
		lines = append([]string{text}, lines...)
		cur = cur.PrevSibling()
	}
	return strings.Join(lines, "\n")
}
