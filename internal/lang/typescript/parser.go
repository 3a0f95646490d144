package typescript

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsgrammar "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Parser is the stateless TypeScript tree-sitter parser.
type Parser struct{}

func NewParser(registry.ParserSettings) registry.Parser { return &Parser{} }

type ctx struct {
	src         []byte
	fileID      symbol.FileID
	nextID      func() (symbol.ID, error)
	result      registry.ParseResult
	currentFunc string
	currentCls  string
}

func (p *Parser) Parse(source []byte, fileID symbol.FileID, nextID func() (symbol.ID, error)) (registry.ParseResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsgrammar.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return registry.ParseResult{}, err
	}
	defer tree.Close()

	c := &ctx{src: source, fileID: fileID, nextID: nextID}
	c.result.Inheritance.InherentMethods = map[string][]string{}
	c.result.Inheritance.TraitMethods = map[string]map[string][]string{}
	c.result.VariableTypes = map[string]string{}

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c.walkTop(root.NamedChild(i))
	}
	return c.result, nil
}

func (c *ctx) walkTop(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "import_statement":
		c.parseImport(n)
	case "export_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c.walkTop(n.NamedChild(i))
		}
	case "function_declaration":
		c.parseFunction(n, true)
	case "class_declaration":
		c.parseClass(n)
	case "interface_declaration":
		c.parseInterface(n)
	case "lexical_declaration", "variable_declaration":
		c.parseVarDecl(n, true)
	default:
		c.walkBody(n)
	}
}

func (c *ctx) parseImport(n *sitter.Node) {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	path := strings.Trim(sourceNode.Content(c.src), "\"'`")
	clause := n.NamedChild(0)
	if clause == nil || clause.Type() != "import_clause" {
		c.result.Imports = append(c.result.Imports, symbol.Import{FileID: c.fileID, Path: path})
		return
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		part := clause.NamedChild(i)
		switch part.Type() {
		case "identifier":
			c.result.Imports = append(c.result.Imports, symbol.Import{FileID: c.fileID, Path: path, Alias: part.Content(c.src)})
		case "namespace_import":
			if id := part.NamedChild(0); id != nil {
				c.result.Imports = append(c.result.Imports, symbol.Import{FileID: c.fileID, Path: path, Alias: id.Content(c.src), IsGlob: true})
			}
		case "named_imports":
			for j := 0; j < int(part.NamedChildCount()); j++ {
				spec := part.NamedChild(j)
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				// Path is the module specifier alone; the requested name
				// travels as Alias and is matched against s.Name when the
				// indexer binds the import.
				imp := symbol.Import{FileID: c.fileID, Path: path}
				if aliasNode != nil {
					imp.Alias = aliasNode.Content(c.src)
				} else {
					imp.Alias = nameNode.Content(c.src)
				}
				c.result.Imports = append(c.result.Imports, imp)
			}
		}
	}
}

func (c *ctx) parseFunction(n *sitter.Node, topLevel bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	id, err := c.nextID()
	if err != nil {
		return
	}
	scopeKind := symbol.ScopeModule
	hoisted := true
	if !topLevel {
		scopeKind = symbol.ScopeLocal
	}
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: id, FileID: c.fileID, Name: name, Kind: symbol.KindFunction,
		Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src), Range: rangeOf(n),
		ScopeContext: symbol.ScopeContext{Kind: scopeKind, Hoisted: hoisted},
	})
	prevFunc := c.currentFunc
	c.currentFunc = name
	body := n.ChildByFieldName("body")
	if body != nil {
		c.walkBody(body)
	}
	c.currentFunc = prevFunc
}

func (c *ctx) parseClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	id, err := c.nextID()
	if err != nil {
		return
	}
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: id, FileID: c.fileID, Name: name, Kind: symbol.KindClass,
		Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src), Range: rangeOf(n),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})

	heritage := n.ChildByFieldName("heritage")
	if heritage == nil {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "class_heritage" {
				heritage = n.NamedChild(i)
				break
			}
		}
	}
	if heritage != nil {
		for i := 0; i < int(heritage.NamedChildCount()); i++ {
			clause := heritage.NamedChild(i)
			kind := "extends"
			if clause.Type() == "implements_clause" {
				kind = "implements"
			}
			for j := 0; j < int(clause.NamedChildCount()); j++ {
				typeNode := clause.NamedChild(j)
				parent := firstIdentifierIn(typeNode, c.src)
				if parent != "" {
					c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: name, Parent: parent, Kind: kind})
				}
			}
		}
	}

	prevCls := c.currentCls
	c.currentCls = name
	body := n.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			c.parseClassMember(body.NamedChild(i), name)
		}
	}
	c.currentCls = prevCls
}

func (c *ctx) parseClassMember(n *sitter.Node, className string) {
	switch n.Type() {
	case "method_definition":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := nameNode.Content(c.src)
		id, err := c.nextID()
		if err != nil {
			return
		}
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: id, FileID: c.fileID, Name: name, Kind: symbol.KindMethod,
			Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src), Range: rangeOf(n),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: className, ToName: name, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(n),
		})
		c.result.Inheritance.InherentMethods[className] = append(c.result.Inheritance.InherentMethods[className], name)

		prevFunc := c.currentFunc
		c.currentFunc = name
		body := n.ChildByFieldName("body")
		if body != nil {
			c.walkBody(body)
		}
		c.currentFunc = prevFunc
	case "public_field_definition":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := nameNode.Content(c.src)
		id, err := c.nextID()
		if err != nil {
			return
		}
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: id, FileID: c.fileID, Name: name, Kind: symbol.KindField, Range: rangeOf(n),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: className, ToName: name, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(n),
		})
	}
}

func (c *ctx) parseInterface(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	id, err := c.nextID()
	if err != nil {
		return
	}
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: id, FileID: c.fileID, Name: name, Kind: symbol.KindInterface,
		Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src), Range: rangeOf(n),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "extends_type_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			parent := firstIdentifierIn(child.NamedChild(j), c.src)
			if parent != "" {
				c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{Child: name, Parent: parent, Kind: "extends"})
			}
		}
	}
}

func (c *ctx) parseVarDecl(n *sitter.Node, topLevel bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		valueNode := decl.ChildByFieldName("value")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := nameNode.Content(c.src)
		if valueNode != nil && (valueNode.Type() == "arrow_function" || valueNode.Type() == "function_expression") {
			id, err := c.nextID()
			if err != nil {
				continue
			}
			scopeKind := symbol.ScopeModule
			if !topLevel {
				scopeKind = symbol.ScopeLocal
			}
			c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
				ID: id, FileID: c.fileID, Name: name, Kind: symbol.KindFunction, Range: rangeOf(decl),
				ScopeContext: symbol.ScopeContext{Kind: scopeKind, Hoisted: topLevel},
			})
			prevFunc := c.currentFunc
			c.currentFunc = name
			body := valueNode.ChildByFieldName("body")
			if body != nil {
				c.walkBody(body)
			}
			c.currentFunc = prevFunc
			continue
		}
		if topLevel {
			id, err := c.nextID()
			if err != nil {
				continue
			}
			kind := symbol.KindVariable
			if n.Type() == "lexical_declaration" && strings.HasPrefix(n.Content(c.src), "const") && isConstantName(name) {
				kind = symbol.KindConstant
			}
			c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
				ID: id, FileID: c.fileID, Name: name, Kind: kind, Range: rangeOf(decl),
				ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
			})
		}
		if valueNode != nil && valueNode.Type() == "new_expression" {
			ctorNode := valueNode.ChildByFieldName("constructor")
			if ctorNode != nil {
				c.result.VariableTypes[name] = ctorNode.Content(c.src)
			}
		}
	}
}

func isConstantName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func (c *ctx) walkBody(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration":
		c.parseFunction(n, false)
		return
	case "class_declaration":
		c.parseClass(n)
		return
	case "call_expression":
		c.parseCall(n)
	case "lexical_declaration", "variable_declaration":
		c.parseVarDecl(n, false)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkBody(n.NamedChild(i))
	}
}

func (c *ctx) parseCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil || c.currentFunc == "" {
		return
	}
	switch fn.Type() {
	case "identifier":
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: fn.Content(c.src), FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
		})
	case "member_expression":
		objNode := fn.ChildByFieldName("object")
		propNode := fn.ChildByFieldName("property")
		if propNode == nil {
			return
		}
		method := propNode.Content(c.src)
		receiver := ""
		if objNode != nil {
			receiver = objNode.Content(c.src)
		}
		isStatic := receiver != "this"
		c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
			CallerName: c.currentFunc, MethodName: method, Receiver: receiver, IsStatic: isStatic, Range: rangeOf(n),
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: method, FileID: c.fileID, Kind: symbol.RelCalls,
			Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: isStatic, HasReceiver: true}, Range: rangeOf(n),
		})
	}
}

func firstIdentifierIn(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	if n.Type() == "identifier" || n.Type() == "type_identifier" {
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

func docCommentBefore(n *sitter.Node, src []byte) string {
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	return prev.Content(src)
}
