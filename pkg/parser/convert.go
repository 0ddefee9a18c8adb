package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"excise/pkg/ast"
)

// converter lowers a tree-sitter CST into the pkg/ast tree.
//
// Comment attachment rules, which the engine's removal decisions depend on:
//   - a standalone comment at statement (or object/class body) level becomes
//     a Leading comment of the next sibling;
//   - a comment starting on the same line a node ends on becomes a Trailing
//     comment of that node;
//   - a comment inside a JSX opening tag becomes a Leading comment of the
//     element;
//   - a comment that is the sole content of a JSX expression container
//     ({/* ... */}) is attached to the container's Empty placeholder and NOT
//     to the adjacent element. tree-sitter gives us no element to hang it on,
//     which is exactly why the engine carries a line-proximity fallback.
type converter struct {
	src []byte
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

func (c *converter) comment(n *sitter.Node) ast.Comment {
	text := c.text(n)
	return ast.Comment{
		Text:      text,
		Block:     strings.HasPrefix(text, "/*"),
		Start:     ast.Pos{Line: n.StartPoint().Row + 1, Col: n.StartPoint().Column},
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
	}
}

func (c *converter) base(kind ast.Kind, n *sitter.Node) *ast.Node {
	return &ast.Node{
		Kind:      kind,
		Start:     ast.Pos{Line: n.StartPoint().Row + 1, Col: n.StartPoint().Column},
		End:       ast.Pos{Line: n.EndPoint().Row + 1, Col: n.EndPoint().Column},
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
	}
}

// jsxBase is base with the start advanced to the first non-whitespace byte.
// The TSX grammar folds the whitespace between JSX siblings, newlines
// included, into the start of the following jsx_element /
// jsx_self_closing_element / jsx_expression node, so the raw StartPoint
// reports the previous sibling's end line and the raw StartByte sits before
// the node's own text. Line-based removal decisions and deletion spans both
// need the visual position.
func (c *converter) jsxBase(kind ast.Kind, n *sitter.Node) *ast.Node {
	node := c.base(kind, n)
	line, col := node.Start.Line, node.Start.Col
	for b := node.StartByte; b < node.EndByte; b++ {
		switch c.src[b] {
		case ' ', '\t', '\r':
			col++
		case '\n':
			line++
			col = 0
		default:
			node.Start = ast.Pos{Line: line, Col: col}
			node.StartByte = b
			return node
		}
	}
	return node
}

// appendChildren converts the named children of ts into children of parent,
// attaching comments per the rules above.
func (c *converter) appendChildren(parent *ast.Node, ts *sitter.Node) {
	var pending []ast.Comment
	var prev *ast.Node

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		ch := ts.NamedChild(i)
		if ch.Type() == "comment" {
			cm := c.comment(ch)
			if prev != nil && cm.Start.Line == prev.End.Line {
				prev.Trailing = append(prev.Trailing, cm)
			} else {
				pending = append(pending, cm)
			}
			continue
		}
		n := c.convert(ch)
		if n == nil {
			continue
		}
		n.Leading = append(n.Leading, pending...)
		pending = nil
		parent.Append(n)
		prev = n
	}

	// Dangling comments at the end of a block stay with the last node so
	// they survive (or vanish) together with it.
	if len(pending) > 0 {
		if prev != nil {
			prev.Trailing = append(prev.Trailing, pending...)
		} else {
			parent.Leading = append(parent.Leading, pending...)
		}
	}
}

// convert lowers one CST node. Returns nil for nodes that carry no tree
// content of their own (closing tags and the like).
func (c *converter) convert(ts *sitter.Node) *ast.Node {
	switch ts.Type() {
	case "program":
		n := c.base(ast.KindProgram, ts)
		c.appendChildren(n, ts)
		return n

	case "import_statement":
		return c.convertImport(ts)

	case "lexical_declaration", "variable_declaration":
		n := c.base(ast.KindVarDecl, ts)
		if kw := ts.Child(0); kw != nil {
			n.Value = kw.Type() // const, let or var
		}
		c.appendChildren(n, ts)
		return n

	case "variable_declarator":
		n := c.base(ast.KindVarDeclarator, ts)
		if name := ts.ChildByFieldName("name"); name != nil {
			n.Name = c.text(name)
		}
		if value := ts.ChildByFieldName("value"); value != nil {
			if v := c.convert(value); v != nil {
				n.Append(v)
			}
		}
		return n

	case "function_declaration", "generator_function_declaration":
		n := c.base(ast.KindFunction, ts)
		if name := ts.ChildByFieldName("name"); name != nil {
			n.Name = c.text(name)
		}
		if body := ts.ChildByFieldName("body"); body != nil {
			if b := c.convert(body); b != nil {
				n.Append(b)
			}
		}
		return n

	case "class_declaration":
		n := c.base(ast.KindClass, ts)
		if name := ts.ChildByFieldName("name"); name != nil {
			n.Name = c.text(name)
		}
		if body := ts.ChildByFieldName("body"); body != nil {
			c.appendChildren(n, body)
		}
		return n

	case "method_definition", "public_field_definition", "field_definition":
		n := c.base(ast.KindClassMember, ts)
		if name := ts.ChildByFieldName("name"); name != nil {
			n.Name = c.text(name)
		}
		if value := ts.ChildByFieldName("value"); value != nil {
			if v := c.convert(value); v != nil {
				n.Append(v)
			}
		} else if body := ts.ChildByFieldName("body"); body != nil {
			if b := c.convert(body); b != nil {
				n.Append(b)
			}
		}
		return n

	case "expression_statement":
		n := c.base(ast.KindExprStmt, ts)
		c.appendChildren(n, ts)
		return n

	case "call_expression":
		n := c.base(ast.KindCall, ts)
		if fn := ts.ChildByFieldName("function"); fn != nil {
			if f := c.convert(fn); f != nil {
				n.Append(f)
			}
		}
		if args := ts.ChildByFieldName("arguments"); args != nil {
			c.appendChildren(n, args)
		}
		return n

	case "member_expression":
		n := c.base(ast.KindMember, ts)
		if prop := ts.ChildByFieldName("property"); prop != nil {
			n.Name = c.text(prop)
		}
		if obj := ts.ChildByFieldName("object"); obj != nil {
			if o := c.convert(obj); o != nil {
				n.Append(o)
			}
		}
		return n

	case "object":
		n := c.base(ast.KindObject, ts)
		c.appendChildren(n, ts)
		return n

	case "pair":
		n := c.base(ast.KindProperty, ts)
		if key := ts.ChildByFieldName("key"); key != nil {
			n.Name = unquote(c.text(key))
		}
		if value := ts.ChildByFieldName("value"); value != nil {
			if v := c.convert(value); v != nil {
				n.Append(v)
			}
		}
		return n

	case "binary_expression":
		op := ""
		if o := ts.ChildByFieldName("operator"); o != nil {
			op = c.text(o)
		}
		kind := ast.KindExpr
		if op == "&&" || op == "||" {
			kind = ast.KindLogical
		}
		n := c.base(kind, ts)
		n.Value = op
		if left := ts.ChildByFieldName("left"); left != nil {
			if l := c.convert(left); l != nil {
				n.Append(l)
			}
		}
		if right := ts.ChildByFieldName("right"); right != nil {
			if r := c.convert(right); r != nil {
				n.Append(r)
			}
		}
		return n

	case "identifier", "shorthand_property_identifier", "property_identifier":
		n := c.base(ast.KindIdent, ts)
		n.Name = c.text(ts)
		return n

	case "string", "template_string":
		n := c.base(ast.KindString, ts)
		n.Value = c.text(ts)
		return n

	case "number":
		n := c.base(ast.KindNumber, ts)
		n.Value = c.text(ts)
		return n

	case "true", "false":
		n := c.base(ast.KindBool, ts)
		n.Value = ts.Type()
		return n

	case "null":
		return c.base(ast.KindNull, ts)

	case "undefined":
		return c.base(ast.KindUndefined, ts)

	case "jsx_element":
		return c.convertJSXElement(ts)

	case "jsx_self_closing_element":
		n := c.jsxBase(ast.KindJSXElement, ts)
		c.convertJSXTag(n, ts)
		return n

	case "jsx_expression":
		return c.convertJSXContainer(ts)

	case "jsx_text":
		n := c.base(ast.KindJSXText, ts)
		n.Value = c.text(ts)
		return n

	case "parenthesized_expression":
		n := c.base(ast.KindExpr, ts)
		c.appendChildren(n, ts)
		return n

	case "comment":
		// Handled by the enclosing appendChildren; a bare call means the
		// comment had nothing to attach to.
		return nil

	default:
		kind := ast.KindExpr
		if strings.HasSuffix(ts.Type(), "_statement") ||
			strings.HasSuffix(ts.Type(), "_declaration") ||
			ts.Type() == "statement_block" {
			kind = ast.KindStatement
		}
		n := c.base(kind, ts)
		n.Value = ts.Type()
		c.appendChildren(n, ts)
		return n
	}
}

// convertImport builds an Import node. Name carries the module path and each
// locally bound name becomes an ImportSpecifier child, so protection checks
// and tracking never have to re-derive bindings from syntax.
func (c *converter) convertImport(ts *sitter.Node) *ast.Node {
	n := c.base(ast.KindImport, ts)
	if src := ts.ChildByFieldName("source"); src != nil {
		n.Name = unquote(c.text(src))
	}

	var addSpecifier func(t *sitter.Node)
	addSpecifier = func(t *sitter.Node) {
		switch t.Type() {
		case "import_clause", "named_imports":
			for i := 0; i < int(t.NamedChildCount()); i++ {
				addSpecifier(t.NamedChild(i))
			}
		case "import_specifier":
			// The local binding is the alias when present.
			local := t.ChildByFieldName("alias")
			if local == nil {
				local = t.ChildByFieldName("name")
			}
			if local != nil {
				spec := c.base(ast.KindImportSpecifier, t)
				spec.Name = c.text(local)
				n.Append(spec)
			}
		case "identifier":
			spec := c.base(ast.KindImportSpecifier, t)
			spec.Name = c.text(t)
			n.Append(spec)
		case "namespace_import":
			for i := 0; i < int(t.NamedChildCount()); i++ {
				if id := t.NamedChild(i); id.Type() == "identifier" {
					spec := c.base(ast.KindImportSpecifier, t)
					spec.Name = c.text(id)
					n.Append(spec)
				}
			}
		}
	}
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if ch := ts.NamedChild(i); ch.Type() == "import_clause" {
			addSpecifier(ch)
		}
	}
	return n
}

func (c *converter) convertJSXElement(ts *sitter.Node) *ast.Node {
	n := c.jsxBase(ast.KindJSXElement, ts)

	var pending []ast.Comment
	var prev *ast.Node
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		ch := ts.NamedChild(i)
		switch ch.Type() {
		case "jsx_opening_element":
			c.convertJSXTag(n, ch)
		case "jsx_closing_element":
			// Tag name already captured from the opening element.
		case "comment":
			cm := c.comment(ch)
			if prev != nil && cm.Start.Line == prev.End.Line {
				prev.Trailing = append(prev.Trailing, cm)
			} else {
				pending = append(pending, cm)
			}
		default:
			child := c.convert(ch)
			if child == nil {
				continue
			}
			child.Leading = append(child.Leading, pending...)
			pending = nil
			n.Append(child)
			prev = child
		}
	}
	if len(pending) > 0 && prev != nil {
		prev.Trailing = append(prev.Trailing, pending...)
	}
	return n
}

// convertJSXTag extracts the tag name and attributes from an opening or
// self-closing tag node into elem. Comments written inside the tag attach to
// the element itself.
func (c *converter) convertJSXTag(elem *ast.Node, tag *sitter.Node) {
	if name := tag.ChildByFieldName("name"); name != nil {
		elem.Name = c.text(name)
	}
	for i := 0; i < int(tag.NamedChildCount()); i++ {
		ch := tag.NamedChild(i)
		switch ch.Type() {
		case "jsx_attribute":
			attr := c.base(ast.KindJSXAttribute, ch)
			for j := 0; j < int(ch.NamedChildCount()); j++ {
				part := ch.NamedChild(j)
				switch part.Type() {
				case "property_identifier":
					attr.Name = c.text(part)
				default:
					if v := c.convert(part); v != nil {
						attr.Append(v)
					}
				}
			}
			elem.Append(attr)
		case "comment":
			elem.Leading = append(elem.Leading, c.comment(ch))
		case "jsx_expression":
			if v := c.convert(ch); v != nil {
				elem.Append(v)
			}
		}
	}
}

// convertJSXContainer lowers a {expr} container. A container holding only a
// comment keeps the comment on an Empty placeholder: it has no owning
// element, only a line number.
func (c *converter) convertJSXContainer(ts *sitter.Node) *ast.Node {
	n := c.jsxBase(ast.KindJSXContainer, ts)

	var comments []ast.Comment
	var expr *ast.Node
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		ch := ts.NamedChild(i)
		if ch.Type() == "comment" {
			comments = append(comments, c.comment(ch))
			continue
		}
		if e := c.convert(ch); e != nil && expr == nil {
			expr = e
		}
	}

	if expr == nil {
		expr = c.jsxBase(ast.KindEmpty, ts)
	}
	expr.Leading = append(comments, expr.Leading...)
	n.Append(expr)
	return n
}

// unquote strips a single layer of string quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '\'', '"', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
