package python

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	pythongrammar "github.com/smacker/go-tree-sitter/python"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Parser is the stateless Python tree-sitter parser.
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
	parser.SetLanguage(pythongrammar.GetLanguage())
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
		c.parseImportStatement(n)
	case "import_from_statement":
		c.parseImportFromStatement(n)
	case "function_definition":
		c.parseFunction(n)
	case "class_definition":
		c.parseClass(n)
	case "decorated_definition":
		c.parseDecorated(n)
	default:
		c.walkBody(n)
	}
}

func (c *ctx) parseDecorated(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			c.parseFunction(child)
		case "class_definition":
			c.parseClass(child)
		}
	}
}

func (c *ctx) parseImportStatement(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	switch nameNode.Type() {
	case "aliased_import":
		moduleNode := nameNode.ChildByFieldName("name")
		aliasNode := nameNode.ChildByFieldName("alias")
		if moduleNode != nil && aliasNode != nil {
			c.result.Imports = append(c.result.Imports, symbol.Import{
				FileID: c.fileID,
				Path:   moduleNode.Content(c.src),
				Alias:  aliasNode.Content(c.src),
			})
		}
	case "dotted_name":
		mod := nameNode.Content(c.src)
		c.result.Imports = append(c.result.Imports, symbol.Import{FileID: c.fileID, Path: mod})
	}
}

func (c *ctx) parseImportFromStatement(n *sitter.Node) {
	var moduleName string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "relative_import" {
			dots, suffix := 0, ""
			for j := 0; j < int(child.NamedChildCount()); j++ {
				sub := child.NamedChild(j)
				if sub.Type() == "import_prefix" {
					dots = strings.Count(sub.Content(c.src), ".")
				} else if sub.Type() == "dotted_name" {
					suffix = sub.Content(c.src)
				}
			}
			if dots > 0 {
				moduleName = strings.Repeat(".", dots) + suffix
			}
			break
		}
	}
	moduleNameNode := n.ChildByFieldName("module_name")
	if moduleName == "" && moduleNameNode != nil {
		moduleName = moduleNameNode.Content(c.src)
	}
	if moduleName == "" {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "from", "import", "(", ")", ",", "relative_import":
			continue
		}
		if child == moduleNameNode {
			continue
		}
		switch child.Type() {
		case "aliased_import":
			importNameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if importNameNode != nil && aliasNode != nil {
				// Path is the containing module, not module+name: Python's
				// FormatModulePath never appends the symbol name, so matching
				// against a concatenated path would never hit
				// ImportMatchesSymbol's exact-match case. The requested name
				// itself travels as Alias and is matched against s.Name in
				// the indexer's bindImport.
				c.result.Imports = append(c.result.Imports, symbol.Import{
					FileID: c.fileID,
					Path:   moduleName,
					Alias:  aliasNode.Content(c.src),
				})
			}
		case "dotted_name", "identifier":
			name := child.Content(c.src)
			c.result.Imports = append(c.result.Imports, symbol.Import{
				FileID: c.fileID,
				Path:   moduleName,
				Alias:  name,
			})
		case "wildcard_import":
			c.result.Imports = append(c.result.Imports, symbol.Import{FileID: c.fileID, Path: moduleName, IsGlob: true})
		}
	}
}

func (c *ctx) parseFunction(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	id, err := c.nextID()
	if err != nil {
		return
	}
	kind := symbol.KindFunction
	scopeKind := symbol.ScopeModule
	if c.currentCls != "" {
		kind = symbol.KindMethod
		scopeKind = symbol.ScopeClassMember
	} else if c.currentFunc != "" {
		scopeKind = symbol.ScopeLocal
	}
	sym := symbol.Symbol{
		ID:           id,
		FileID:       c.fileID,
		Name:         name,
		Kind:         kind,
		Signature:    signatureOf(n, c.src),
		DocComment:   docstringOf(n, c.src),
		Range:        rangeOf(n),
		ScopeContext: symbol.ScopeContext{Kind: scopeKind},
	}
	c.result.Symbols = append(c.result.Symbols, sym)

	if c.currentCls != "" {
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentCls,
			ToName:   name,
			FileID:   c.fileID,
			Kind:     symbol.RelDefines,
			Range:    rangeOf(n),
		})
		c.result.Inheritance.InherentMethods[c.currentCls] = append(c.result.Inheritance.InherentMethods[c.currentCls], name)
	}

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
	sym := symbol.Symbol{
		ID:           id,
		FileID:       c.fileID,
		Name:         name,
		Kind:         symbol.KindClass,
		Signature:    signatureOf(n, c.src),
		DocComment:   docstringOf(n, c.src),
		Range:        rangeOf(n),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	}
	c.result.Symbols = append(c.result.Symbols, sym)

	superNode := n.ChildByFieldName("superclasses")
	if superNode != nil {
		for i := 0; i < int(superNode.NamedChildCount()); i++ {
			base := superNode.NamedChild(i)
			baseName := base.Content(c.src)
			if strings.Contains(baseName, "=") {
				continue // keyword arg like metaclass=...
			}
			if idx := strings.LastIndex(baseName, "."); idx >= 0 {
				baseName = baseName[idx+1:]
			}
			c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{
				Child: name, Parent: baseName, Kind: "extends",
			})
		}
	}

	prevCls := c.currentCls
	c.currentCls = name
	body := n.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			switch child.Type() {
			case "function_definition":
				c.parseFunction(child)
			case "decorated_definition":
				c.parseDecorated(child)
			case "expression_statement":
				c.parseClassBodyAssignment(child, name)
			}
		}
	}
	c.currentCls = prevCls
}

func (c *ctx) parseClassBodyAssignment(n *sitter.Node, className string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "assignment" {
			continue
		}
		left := child.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			continue
		}
		name := left.Content(c.src)
		id, err := c.nextID()
		if err != nil {
			continue
		}
		kind := symbol.KindField
		if isConstantName(name) {
			kind = symbol.KindConstant
		}
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID:           id,
			FileID:       c.fileID,
			Name:         name,
			Kind:         kind,
			Range:        rangeOf(child),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: className, ToName: name, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(child),
		})
	}
}

// isConstantName follows Python's all-uppercase-with-underscores convention
// for module/class-level constants (MAX_SIZE, API_KEY).
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
	case "function_definition":
		c.parseFunction(n)
		return
	case "class_definition":
		c.parseClass(n)
		return
	case "call":
		c.parseCall(n)
	case "assignment":
		c.parseAssignment(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkBody(n.NamedChild(i))
	}
}

func (c *ctx) parseCall(n *sitter.Node) {
	functionNode := n.ChildByFieldName("function")
	if functionNode == nil || c.currentFunc == "" {
		return
	}
	switch functionNode.Type() {
	case "identifier":
		name := functionNode.Content(c.src)
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: name, FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
		})
	case "attribute":
		objNode := functionNode.ChildByFieldName("object")
		attrNode := functionNode.ChildByFieldName("attribute")
		if attrNode == nil {
			return
		}
		method := attrNode.Content(c.src)
		receiver := ""
		if objNode != nil {
			receiver = objNode.Content(c.src)
		}
		isStatic := receiver != "self" && receiver != "cls"
		c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
			CallerName: c.currentFunc, MethodName: method, Receiver: receiver, IsStatic: isStatic, Range: rangeOf(n),
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: method, FileID: c.fileID, Kind: symbol.RelCalls,
			Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: isStatic, HasReceiver: true},
			Range:    rangeOf(n),
		})
	}
}

func (c *ctx) parseAssignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return
	}
	if right.Type() == "call" {
		fn := right.ChildByFieldName("function")
		if fn != nil && fn.Type() == "identifier" {
			typeName := fn.Content(c.src)
			if isTypeName(typeName) {
				c.result.VariableTypes[left.Content(c.src)] = typeName
			}
		}
	}
}

func isTypeName(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
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

// docstringOf returns a function/class's docstring: the first statement in
// its body, if that statement is a bare string expression.
func docstringOf(n *sitter.Node, src []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return str.Content(src)
}
