package rust

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	rustgrammar "github.com/smacker/go-tree-sitter/rust"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Parser is the stateless Rust tree-sitter parser.
type Parser struct{}

func NewParser(registry.ParserSettings) registry.Parser { return &Parser{} }

type ctx struct {
	src         []byte
	fileID      symbol.FileID
	nextID      func() (symbol.ID, error)
	result      registry.ParseResult
	currentFunc string
}

func (p *Parser) Parse(source []byte, fileID symbol.FileID, nextID func() (symbol.ID, error)) (registry.ParseResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rustgrammar.GetLanguage())
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
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c.walkItem(root.NamedChild(i))
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

func (c *ctx) walkItem(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "use_declaration":
		c.parseUse(n)
	case "mod_item":
		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				c.walkItem(body.NamedChild(i))
			}
		}
	case "function_item":
		c.parseFunction(n)
	case "struct_item":
		c.parseStruct(n)
	case "enum_item":
		c.parseEnum(n)
	case "trait_item":
		c.parseTrait(n)
	case "impl_item":
		c.parseImpl(n)
	case "const_item", "static_item":
		c.parseConst(n)
	case "type_item":
		c.parseTypeAlias(n)
	}
}

// parseUse flattens a use_declaration's argument tree (scoped_identifier,
// use_as_clause, scoped_use_list, use_wildcard) into one-or-more imports,
// each carrying the leading "self::" or "crate::" prefix untouched so
// Behavior.ImportMatchesSymbol can match the glob/exact forms.
func (c *ctx) parseUse(n *sitter.Node) {
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() != "visibility_modifier" {
				arg = n.NamedChild(i)
				break
			}
		}
	}
	c.walkUseTree(arg, "")
}

func (c *ctx) walkUseTree(n *sitter.Node, prefix string) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "scoped_identifier":
		path, alias := c.flattenScoped(n)
		full := joinPath(prefix, path)
		c.result.Imports = append(c.result.Imports, symbol.Import{Path: full, Alias: alias, FileID: c.fileID})
	case "identifier":
		full := joinPath(prefix, n.Content(c.src))
		c.result.Imports = append(c.result.Imports, symbol.Import{Path: full, Alias: n.Content(c.src), FileID: c.fileID})
	case "use_as_clause":
		pathNode := n.ChildByFieldName("path")
		aliasNode := n.ChildByFieldName("alias")
		path := pathNode.Content(c.src)
		alias := ""
		if aliasNode != nil {
			alias = aliasNode.Content(c.src)
		}
		c.result.Imports = append(c.result.Imports, symbol.Import{Path: joinPath(prefix, path), Alias: alias, FileID: c.fileID})
	case "use_wildcard":
		path := ""
		if child := n.NamedChild(0); child != nil {
			path = child.Content(c.src)
		}
		c.result.Imports = append(c.result.Imports, symbol.Import{Path: joinPath(prefix, path) + "::*", FileID: c.fileID, IsGlob: true})
	case "scoped_use_list":
		pathNode := n.ChildByFieldName("path")
		listNode := n.ChildByFieldName("list")
		base := prefix
		if pathNode != nil {
			base = joinPath(prefix, pathNode.Content(c.src))
		}
		if listNode != nil {
			for i := 0; i < int(listNode.NamedChildCount()); i++ {
				c.walkUseTree(listNode.NamedChild(i), base)
			}
		}
	case "use_list":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c.walkUseTree(n.NamedChild(i), prefix)
		}
	}
}

// flattenScoped turns a scoped_identifier node's text into (fullPath,
// leafAlias).
func (c *ctx) flattenScoped(n *sitter.Node) (string, string) {
	text := n.Content(c.src)
	leaf := text
	if idx := strings.LastIndex(text, "::"); idx >= 0 {
		leaf = text[idx+2:]
	}
	return text, leaf
}

func joinPath(prefix, path string) string {
	if prefix == "" {
		return path
	}
	if path == "" {
		return prefix
	}
	return prefix + "::" + path
}

func (c *ctx) parseFunction(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	sym := symbol.Symbol{
		ID: c.newID(), Name: name, Kind: symbol.KindFunction, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	}
	c.result.Symbols = append(c.result.Symbols, sym)

	prev := c.currentFunc
	c.currentFunc = name
	if body := n.ChildByFieldName("body"); body != nil {
		c.walkBody(body)
	}
	c.currentFunc = prev
}

func (c *ctx) parseStruct(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(c.src)
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: c.newID(), Name: name, Kind: symbol.KindStruct, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})

	body := n.ChildByFieldName("body")
	if body == nil || body.Type() != "field_declaration_list" {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		field := body.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}
		fNameNode := field.ChildByFieldName("name")
		if fNameNode == nil {
			continue
		}
		fname := fNameNode.Content(c.src)
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: c.newID(), Name: fname, Kind: symbol.KindField, FileID: c.fileID,
			Range: rangeOf(field), Signature: field.Content(c.src),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: name, ToName: fname, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(field),
		})
	}
}

func (c *ctx) parseEnum(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: c.newID(), Name: nameNode.Content(c.src), Kind: symbol.KindEnum, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src), DocComment: docCommentBefore(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})
}

func (c *ctx) parseTrait(n *sitter.Node) {
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
		member := body.NamedChild(i)
		if member.Type() != "function_item" && member.Type() != "function_signature_item" {
			continue
		}
		mNameNode := member.ChildByFieldName("name")
		if mNameNode == nil {
			continue
		}
		mname := mNameNode.Content(c.src)
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: c.newID(), Name: mname, Kind: symbol.KindMethod, FileID: c.fileID,
			Range: rangeOf(member), Signature: signatureOf(member, c.src), DocComment: docCommentBefore(member, c.src),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: name, ToName: mname, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(member),
		})
	}
}

// parseImpl handles both `impl Type { .. }` (inherent methods) and
// `impl Trait for Type { .. }` (trait methods), recording an Implements
// hierarchy edge for the latter.
func (c *ctx) parseImpl(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	traitNode := n.ChildByFieldName("trait")
	if typeNode == nil {
		return
	}
	typeName := firstIdentifierIn(typeNode, c.src)
	var traitName string
	if traitNode != nil {
		traitName = firstIdentifierIn(traitNode, c.src)
		c.result.Inheritance.Edges = append(c.result.Inheritance.Edges, registry.InheritanceEdge{
			Child: typeName, Parent: traitName, Kind: "implements",
		})
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	// Inherent methods are addressed through the type, trait-impl methods
	// through the trait; the qualifier ends up embedded in the symbol's
	// module path so receiver-based method resolution can tell two
	// same-named methods in one file apart.
	qualifier := typeName
	if traitName != "" {
		qualifier = traitName
	}
	var methods []string
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "function_item" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Content(c.src)
		methods = append(methods, name)
		qualified := ""
		if qualifier != "" {
			qualified = qualifier + "::" + name
		}
		c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
			ID: c.newID(), Name: name, Kind: symbol.KindMethod, FileID: c.fileID,
			Range: rangeOf(member), Signature: signatureOf(member, c.src), DocComment: docCommentBefore(member, c.src),
			ModulePath:   qualified,
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember},
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: typeName, ToName: name, FileID: c.fileID, Kind: symbol.RelDefines, Range: rangeOf(member),
		})

		prev := c.currentFunc
		c.currentFunc = name
		if mbody := member.ChildByFieldName("body"); mbody != nil {
			c.walkBody(mbody)
		}
		c.currentFunc = prev
	}
	if traitName != "" {
		if c.result.Inheritance.TraitMethods[typeName] == nil {
			c.result.Inheritance.TraitMethods[typeName] = map[string][]string{}
		}
		c.result.Inheritance.TraitMethods[typeName][traitName] = methods
	} else {
		c.result.Inheritance.InherentMethods[typeName] = append(c.result.Inheritance.InherentMethods[typeName], methods...)
	}
}

func (c *ctx) parseConst(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	kind := symbol.KindConstant
	if n.Type() == "static_item" {
		kind = symbol.KindVariable
	}
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: c.newID(), Name: nameNode.Content(c.src), Kind: kind, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})
}

func (c *ctx) parseTypeAlias(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	c.result.Symbols = append(c.result.Symbols, symbol.Symbol{
		ID: c.newID(), Name: nameNode.Content(c.src), Kind: symbol.KindTypeAlias, FileID: c.fileID,
		Range: rangeOf(n), Signature: signatureOf(n, c.src),
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
	})
}

func (c *ctx) walkBody(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "call_expression":
		c.parseCall(n)
	case "let_declaration":
		c.parseLet(n)
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
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: fn.Content(c.src), FileID: c.fileID, Kind: symbol.RelCalls, Range: rangeOf(n),
		})
	case "scoped_identifier":
		// Type::method() or module::func() - a static call.
		path, leaf := c.flattenScoped(fn)
		receiver := strings.TrimSuffix(path, "::"+leaf)
		c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
			CallerName: c.currentFunc, MethodName: leaf, Receiver: receiver, IsStatic: true, Range: rangeOf(n),
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: leaf, FileID: c.fileID, Kind: symbol.RelCalls,
			Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: true, HasReceiver: true}, Range: rangeOf(n),
		})
	case "field_expression":
		value := fn.ChildByFieldName("value")
		field := fn.ChildByFieldName("field")
		if value == nil || field == nil {
			return
		}
		receiver := value.Content(c.src)
		method := field.Content(c.src)
		c.result.MethodCalls = append(c.result.MethodCalls, symbol.MethodCall{
			CallerName: c.currentFunc, MethodName: method, Receiver: receiver, IsStatic: false, Range: rangeOf(n),
		})
		c.result.Relationships = append(c.result.Relationships, symbol.UnresolvedRelationship{
			FromName: c.currentFunc, ToName: method, FileID: c.fileID, Kind: symbol.RelCalls,
			Metadata: symbol.RelationMetadata{Receiver: receiver, IsStatic: false, HasReceiver: true}, Range: rangeOf(n),
		})
	}
}

// parseLet recognizes `let x = Type::new(..);` and `let x = Type { .. };`
// as a conservative hint of x's static type.
func (c *ctx) parseLet(n *sitter.Node) {
	pattern := n.ChildByFieldName("pattern")
	value := n.ChildByFieldName("value")
	if pattern == nil || value == nil || pattern.Type() != "identifier" {
		return
	}
	name := pattern.Content(c.src)
	switch value.Type() {
	case "struct_expression":
		if t := value.ChildByFieldName("name"); t != nil {
			c.result.VariableTypes[name] = firstIdentifierIn(t, c.src)
		}
	case "call_expression":
		if fn := value.ChildByFieldName("function"); fn != nil && fn.Type() == "scoped_identifier" {
			path, leaf := c.flattenScoped(fn)
			c.result.VariableTypes[name] = strings.TrimSuffix(path, "::"+leaf)
		}
	}
}

func firstIdentifierIn(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier", "type_identifier":
		return n.Content(src)
	case "scoped_identifier", "generic_type":
		if t := n.ChildByFieldName("type"); t != nil {
			return firstIdentifierIn(t, src)
		}
		if t := n.ChildByFieldName("name"); t != nil {
			return firstIdentifierIn(t, src)
		}
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

// docCommentBefore concatenates consecutive outer doc comments (`///` or
// `/** */`) immediately preceding n, skipping plain comments and the
// non-doc 4+-slash / 3+-asterisk forms.
func docCommentBefore(n *sitter.Node, src []byte) string {
	var lines []string
	prev := n.PrevSibling()
	for prev != nil && prev.Type() == "line_comment" || (prev != nil && prev.Type() == "block_comment") {
		text := prev.Content(src)
		if !isOuterDoc(text) {
			break
		}
		lines = append([]string{text}, lines...)
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, "\n")
}

func isOuterDoc(text string) bool {
	switch {
	case strings.HasPrefix(text, "////"):
		return false
	case strings.HasPrefix(text, "///"):
		return true
	case strings.HasPrefix(text, "/***"):
		return false
	case strings.HasPrefix(text, "/**"):
		return true
	}
	return false
}
