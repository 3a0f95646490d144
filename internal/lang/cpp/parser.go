package cpp

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	cppgrammar "github.com/smacker/go-tree-sitter/cpp"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Parser is the stateless C++ tree-sitter parser.
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
	parser.SetLanguage(cppgrammar.GetLanguage())
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
	case "using_declaration":
		c.parseUsing(n)
	case "namespace_definition":
		c.parseNamespace(n)
		return
	case "function_definition":
		c.parseFunction(n)
		return
	case "class_specifier", "struct_specifier":
		c.parseClass(n)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkTop(n.NamedChild(i))
	}
}

func (c *ctx) parseUsing(n *sitter.Node) {
	// `using namespace Ns;` carries Ns as the sole named child;
	// `using Ns::name;` carries a qualified_identifier.
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "identifier" && child.Type() != "namespace_identifier" && child.Type() != "qualified_identifier" {
			continue
		}
		c.result.Imports = append(c.result.Imports, symbol.Import{Path: child.Content(c.src), FileID: c.fileID})
	}
}

func (c *ctx) parseNamespace(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	prev := c.namespace
	if nameNode != nil {
		if prev == "" {
			c.namespace = nameNode.Content(c.src)
		} else {
			c.namespace = prev + "::" + nameNode.Content(c.src)
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			c.walkTop(body.NamedChild(i))
		}
	}
	c.namespace = prev
}

func (c *ctx) parseFunction(n *sitter.Node) {
	declarator := n.ChildByFieldName("declarator")
	name := firstDeclaratorName(declarator, c.src)
	if name == "" {
		return
	}
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

	// base_class_clause is a plain child of the class node, not a field.
	for j := 0; j < int(n.NamedChildCount()); j++ {
		base := n.NamedChild(j)
		if base.Type() != "base_class_clause" {
			continue
		}
		for i := 0; i < int(base.NamedChildCount()); i++ {
			if parent := firstIdentifierIn(base.NamedChild(i), c.src); parent != "" {
				c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: name, Parent: parent, Kind: "base_class"})
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	visibility := "private:"
	if n.Type() == "struct_specifier" {
		visibility = "public:"
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "access_specifier" {
			visibility = child.Content(c.src) + ":"
			continue
		}
		c.parseClassMember(child, name, visibility)
	}
}

func (c *ctx) parseClassMember(n *sitter.Node, className, visibility string) {
	switch n.Type() {
	case "function_definition":
		declarator := n.ChildByFieldName("declarator")
		mname := firstDeclaratorName(declarator, c.src)
		if mname == "" {
			return
		}
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: c.newID(), Name: mname, Kind: symbol.KindMethod, FileID: c.fileID,
			Range: rangeOf(n), Signature: visibility + signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
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
	case "field_declaration":
		declarator := n.NamedChild(int(n.NamedChildCount()) - 1)
		fname := firstDeclaratorName(declarator, c.src)
		if fname == "" {
			return
		}
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: c.newID(), Name: fname, Kind: symbol.KindField, FileID: c.fileID,
			Range: rangeOf(n), Signature: visibility + n.Content(c.src),
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
	case "call_expression":
		c.parseCall(n)
	case "declaration":
		c.parseDeclaration(n)
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
	if fn == nil {
		return
	}
	switch fn.Type() {
	case "identifier":
		name := fn.Content(c.src)
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: name, FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
		})
	case "qualified_identifier":
		name := fn.Content(c.src)
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: name, FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
		})
	case "field_expression":
		argNode := fn.ChildByFieldName("argument")
		fieldNode := fn.ChildByFieldName("field")
		if argNode == nil || fieldNode == nil {
			return
		}
		receiver := argNode.Content(c.src)
		method := fieldNode.Content(c.src)
		// obj.m() and ptr->m() always go through an object; static calls
		// arrive as qualified_identifier (Type::m) above.
		isStatic := false
		c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
			CallerName: c.currentFunc, MethodName: method, Receiver: receiver, IsStatic: isStatic, Range: rangeOf(n),
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: method, FileID: c.fileID, Kind: symbol.RelCalls,
			Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: isStatic, HasReceiver: true}, Range: rangeOf(n),
		})
	}
}

// parseDeclaration recognizes `Type x(...)` / `Type x;` local declarations
// as a conservative variable-type hint keyed by the declared name.
func (c *ctx) parseDeclaration(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	declarator := n.ChildByFieldName("declarator")
	if typeNode == nil || declarator == nil {
		return
	}
	name := firstDeclaratorName(declarator, c.src)
	if name == "" {
		return
	}
	c.result.VariableTypes[name] = typeNode.Content(c.src)
}

func firstDeclaratorName(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier", "field_identifier", "destructor_name":
		return n.Content(src)
	case "function_declarator", "init_declarator", "pointer_declarator", "reference_declarator", "qualified_identifier":
		if d := n.ChildByFieldName("declarator"); d != nil {
			return firstDeclaratorName(d, src)
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if name := firstDeclaratorName(n.NamedChild(i), src); name != "" {
				return name
			}
		}
	}
	return ""
}

func firstIdentifierIn(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	if n.Type() == "type_identifier" || n.Type() == "qualified_identifier" {
		return n.Content(src)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if name := firstIdentifierIn(n.NamedChild(i), src); name != "" {
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

// docCommentBefore picks up a single preceding "///" or "/** */" doc
// comment, the two conventions Doxygen recognizes.
func docCommentBefore(n *sitter.Node, src []byte) string {
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := prev.Content(src)
	if strings.HasPrefix(text, "///") || strings.HasPrefix(text, "/**") {
		return text
	}
	return ""
}
