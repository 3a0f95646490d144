package golang

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	gogrammar "github.com/smacker/go-tree-sitter/golang"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Parser is the stateless Go tree-sitter parser.
type Parser struct{}

// NewParser satisfies registry.MakeParser; Go's parser takes no settings.
func NewParser(registry.ParserSettings) registry.Parser { return &Parser{} }

// ctx tracks the enclosing function/method while walking the tree, so
// Calls relationships can be attributed to their caller.
type ctx struct {
	src         []byte
	fileID      symbol.FileID
	nextID      func() (symbol.ID, error)
	result      registry.ParseResult
	currentFunc string
	currentRecv string // receiver type, for method bodies
}

func (p *Parser) Parse(source []byte, fileID symbol.FileID, nextID func() (symbol.ID, error)) (registry.ParseResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(gogrammar.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return registry.ParseResult{}, err
	}
	defer tree.Close()

	c := &ctx{
		src:    source,
		fileID: fileID,
		nextID: nextID,
	}
	c.result.VariableTypes = make(map[string]string)
	c.result.Inheritance.InherentMethods = make(map[string][]string)

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c.walkTop(root.NamedChild(i))
	}
	return c.result, nil
}

func (c *ctx) newID() symbol.ID {
	id, err := c.nextID()
	if err != nil {
		return 0
	}
	return id
}

func rangeOf(n *sitter.Node) symbol.Range {
	sp, ep := n.StartPoint(), n.EndPoint()
	return symbol.Range{
		StartLine: sp.Row + 1, StartColumn: sp.Column,
		EndLine: ep.Row + 1, EndColumn: ep.Column,
		StartByte: n.StartByte(), EndByte: n.EndByte(),
	}
}

func docCommentBefore(n *sitter.Node, src []byte) string {
	prev := n.PrevSibling()
	var lines []string
	for prev != nil && prev.Type() == "comment" {
		lines = append([]string{prev.Content(src)}, lines...)
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, "\n")
}

func (c *ctx) walkTop(n *sitter.Node) {
	switch n.Type() {
	case "import_declaration":
		c.parseImport(n)
	case "function_declaration":
		c.parseFunction(n)
	case "method_declaration":
		c.parseMethod(n)
	case "type_declaration":
		c.parseTypeDecl(n)
	case "const_declaration", "var_declaration":
		c.parseValueDecl(n)
	}
}

func (c *ctx) parseImport(n *sitter.Node) {
	// import_spec_list or a single import_spec.
	var specs []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "import_spec_list" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				specs = append(specs, child.NamedChild(j))
			}
		} else if child.Type() == "import_spec" {
			specs = append(specs, child)
		}
	}
	for _, spec := range specs {
		var path, alias string
		for i := 0; i < int(spec.NamedChildCount()); i++ {
			sc := spec.NamedChild(i)
			switch sc.Type() {
			case "interpreted_string_literal":
				path = strings.Trim(sc.Content(c.src), `"`)
			case "package_identifier", "blank_identifier", "dot":
				alias = sc.Content(c.src)
			}
		}
		if path == "" {
			continue
		}
		c.result.Imports = append(c.result.Imports, symbol.Import{
			Path: path, Alias: alias, FileID: c.fileID, IsGlob: alias == ".",
		})
	}
}

func (c *ctx) parseFunction(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	sym := symbol.Symbol{
		ID:           c.newID(),
		Name:         name,
		Kind:         symbol.KindFunction,
		FileID:       c.fileID,
		Range:        rangeOf(n),
		Signature:    signatureOf(n, c.src),
		DocComment:   docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopePackage, Hoisted: true},
	}
	c.result.Symbols = append(c.result.Symbols, sym)

	prevFunc, prevRecv := c.currentFunc, c.currentRecv
	c.currentFunc, c.currentRecv = name, ""
	if body := n.ChildByFieldName("body"); body != nil {
		c.walkBody(body)
	}
	c.currentFunc, c.currentRecv = prevFunc, prevRecv
}

func (c *ctx) parseMethod(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	recvNode := n.ChildByFieldName("receiver")
	if nameNode == nil || recvNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	recvType := receiverTypeName(recvNode, c.src)

	sym := symbol.Symbol{
		ID:           c.newID(),
		Name:         name,
		Kind:         symbol.KindMethod,
		FileID:       c.fileID,
		Range:        rangeOf(n),
		Signature:    signatureOf(n, c.src),
		DocComment:   docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopePackage, Hoisted: true},
	}
	c.result.Symbols = append(c.result.Symbols, sym)

	c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
		FromName: recvType, ToName: name, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(n),
	})
	c.result.Inheritance.InherentMethods[recvType] = append(c.result.Inheritance.InherentMethods[recvType], name)

	prevFunc, prevRecv := c.currentFunc, c.currentRecv
	c.currentFunc, c.currentRecv = name, recvType
	if body := n.ChildByFieldName("body"); body != nil {
		c.walkBody(body)
	}
	c.currentFunc, c.currentRecv = prevFunc, prevRecv
}

// receiverTypeName extracts "T" from a receiver parameter list "(t *T)" or "(t T)".
func receiverTypeName(recv *sitter.Node, src []byte) string {
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		t := typeNode.Content(src)
		return strings.TrimPrefix(t, "*")
	}
	return ""
}

func (c *ctx) parseTypeDecl(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		spec := n.NamedChild(i)
		if spec.Type() != "type_spec" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		typeNode := spec.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			continue
		}
		name := nameNode.Content(c.src)
		kind := symbol.KindTypeAlias
		switch typeNode.Type() {
		case "struct_type":
			kind = symbol.KindStruct
		case "interface_type":
			kind = symbol.KindInterface
		}
		sym := symbol.Symbol{
			ID:           c.newID(),
			Name:         name,
			Kind:         kind,
			FileID:       c.fileID,
			Range:        rangeOf(spec),
			Signature:    spec.Content(c.src),
			DocComment:   docCommentBefore(n, c.src),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopePackage, Hoisted: true},
		}
		c.result.Symbols = append(c.result.Symbols, sym)

		if typeNode.Type() == "struct_type" {
			c.parseStructFields(typeNode, name)
		}
	}
}

func (c *ctx) parseStructFields(structType *sitter.Node, owner string) {
	// struct_type holds its field_declaration_list as a plain child, not a field.
	var fieldList *sitter.Node
	for i := 0; i < int(structType.NamedChildCount()); i++ {
		if child := structType.NamedChild(i); child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return
	}
	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		field := fieldList.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}
		// An embedded field (no explicit name) contributes an "embeds" edge
		// rather than a Field symbol, matching Go's struct embedding.
		embedded := field.ChildByFieldName("name") == nil
		typeNode := field.ChildByFieldName("type")
		if embedded && typeNode != nil {
			c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{
				Child: owner, Parent: strings.TrimPrefix(typeNode.Content(c.src), "*"), Kind: "embeds",
			})
			continue
		}
		names := fieldNames(field, c.src)
		for _, fname := range names {
			c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
				ID: c.newID(), Name: fname, Kind: symbol.KindField, FileID: c.fileID,
				Range: rangeOf(field), Signature: field.Content(c.src),
				ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
			})
			c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
				FromName: owner, ToName: fname, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(field),
			})
		}
	}
}

func fieldNames(field *sitter.Node, src []byte) []string {
	var names []string
	for i := 0; i < int(field.NamedChildCount()); i++ {
		child := field.NamedChild(i)
		if child.Type() == "field_identifier" {
			names = append(names, child.Content(src))
		}
	}
	return names
}

func (c *ctx) parseValueDecl(n *sitter.Node) {
	kind := symbol.KindVariable
	if n.Type() == "const_declaration" {
		kind = symbol.KindConstant
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		spec := n.NamedChild(i)
		if spec.Type() != "const_spec" && spec.Type() != "var_spec" {
			continue
		}
		for j := 0; j < int(spec.NamedChildCount()); j++ {
			id := spec.NamedChild(j)
			if id.Type() != "identifier" {
				continue
			}
			name := id.Content(c.src)
			c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
				ID: c.newID(), Name: name, Kind: kind, FileID: c.fileID,
				Range: rangeOf(spec), Signature: spec.Content(c.src),
				ScopeContext: symbol.ScopeContext{Kind: symbol.ScopePackage, Hoisted: true},
			})
			if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
				c.result.VariableTypes[name] = strings.TrimPrefix(typeNode.Content(c.src), "*")
			}
		}
	}
}

// walkBody recurses into a function/method body, extracting call
// expressions and short variable declarations that hint a receiver's
// static type (the conservative variable_types table).
func (c *ctx) walkBody(n *sitter.Node) {
	switch n.Type() {
	case "call_expression":
		c.parseCall(n)
	case "short_var_declaration":
		c.parseShortVarDecl(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkBody(n.NamedChild(i))
	}
}

func (c *ctx) parseCall(n *sitter.Node) {
	funcNode := n.ChildByFieldName("function")
	if funcNode == nil || c.currentFunc == "" {
		return
	}
	switch funcNode.Type() {
	case "identifier":
		name := funcNode.Content(c.src)
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: name, FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
		})
	case "selector_expression":
		operand := funcNode.ChildByFieldName("operand")
		field := funcNode.ChildByFieldName("field")
		if operand == nil || field == nil {
			return
		}
		receiver := operand.Content(c.src)
		method := field.Content(c.src)
		c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
			CallerName: c.currentFunc, MethodName: method, Receiver: receiver, IsStatic: isTypeName(receiver), Range: rangeOf(n),
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: method, FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
			Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: isTypeName(receiver), HasReceiver: true},
		})
	}
}

// isTypeName is a best-effort heuristic: package-qualified and type-
// qualified static calls (pkg.Func, Type.Method) use an identifier
// starting with an uppercase letter or a known package alias; Go doesn't
// distinguish these syntactically from an instance selector, so this
// stays a heuristic rather than authoritative: nothing here type-checks.
func isTypeName(name string) bool {
	return len(name) > 0 && strings.ToUpper(name[:1]) == name[:1]
}

func (c *ctx) parseShortVarDecl(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}
	names := identifierList(left, c.src)
	values := exprList(right)
	for i, name := range names {
		if i >= len(values) {
			break
		}
		if t, ok := constructedType(values[i], c.src); ok {
			c.result.VariableTypes[name] = t
		}
	}
}

func identifierList(n *sitter.Node, src []byte) []string {
	var out []string
	if n.Type() == "expression_list" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out = append(out, n.NamedChild(i).Content(src))
		}
		return out
	}
	return []string{n.Content(src)}
}

func exprList(n *sitter.Node) []*sitter.Node {
	if n.Type() == "expression_list" {
		var out []*sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out = append(out, n.NamedChild(i))
		}
		return out
	}
	return []*sitter.Node{n}
}

// constructedType recognizes "&T{...}", "T{...}", and "pkg.New()"-shaped
// expressions as a direct hint of the assigned variable's static type.
func constructedType(n *sitter.Node, src []byte) (string, bool) {
	switch n.Type() {
	case "composite_literal":
		if t := n.ChildByFieldName("type"); t != nil {
			return t.Content(src), true
		}
	case "unary_expression":
		if operand := n.ChildByFieldName("operand"); operand != nil {
			return constructedType(operand, src)
		}
	}
	return "", false
}

func signatureOf(n *sitter.Node, src []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil {
		return n.Content(src)
	}
	return string(src[n.StartByte():body.StartByte()])
}
