// Package ast defines the mutable source tree the pruning engine operates on.
// Trees are produced by pkg/parser from tree-sitter output and are owned by a
// single goroutine for the duration of one file's processing.
package ast

// Kind identifies a node variant. The set is closed: every consumer switches
// over it exhaustively instead of registering visitors per type.
type Kind uint8

const (
	KindProgram Kind = iota
	KindImport
	KindImportSpecifier
	KindVarDecl
	KindVarDeclarator
	KindFunction
	KindClass
	KindClassMember
	KindStatement
	KindExprStmt
	KindCall
	KindMember
	KindObject
	KindProperty
	KindLogical
	KindIdent
	KindString
	KindNumber
	KindBool
	KindNull
	KindUndefined
	KindJSXElement
	KindJSXAttribute
	KindJSXContainer
	KindJSXText
	KindExpr
	KindEmpty
)

var kindNames = [...]string{
	KindProgram:         "Program",
	KindImport:          "Import",
	KindImportSpecifier: "ImportSpecifier",
	KindVarDecl:         "VarDecl",
	KindVarDeclarator:   "VarDeclarator",
	KindFunction:        "Function",
	KindClass:           "Class",
	KindClassMember:     "ClassMember",
	KindStatement:       "Statement",
	KindExprStmt:        "ExprStmt",
	KindCall:            "Call",
	KindMember:          "Member",
	KindObject:          "Object",
	KindProperty:        "Property",
	KindLogical:         "Logical",
	KindIdent:           "Ident",
	KindString:          "String",
	KindNumber:          "Number",
	KindBool:            "Bool",
	KindNull:            "Null",
	KindUndefined:       "Undefined",
	KindJSXElement:      "JSXElement",
	KindJSXAttribute:    "JSXAttribute",
	KindJSXContainer:    "JSXContainer",
	KindJSXText:         "JSXText",
	KindExpr:            "Expr",
	KindEmpty:           "Empty",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Pos is a 1-based line and 0-based column source position.
type Pos struct {
	Line uint32
	Col  uint32
}

// Comment is a comment record carried by a node. Start/End cover the comment
// text including delimiters.
type Comment struct {
	Text      string
	Block     bool
	Start     Pos
	StartByte uint32
	EndByte   uint32
}

// Node is a typed tree node. Semantics of Name/Value per kind:
//
//	Import          Name = module path          children: ImportSpecifier...
//	ImportSpecifier Name = local binding name
//	VarDecl         Value = "const"|"let"|"var" children: VarDeclarator...
//	VarDeclarator   Name = bound name           children: [init]
//	Function        Name = function name
//	Class           Name = class name           children: ClassMember...
//	ClassMember     Name = member name          children: [value]
//	Call            children: callee, args...
//	Member          Name = property             children: object
//	Property        Name = key                  children: value
//	Logical         Value = operator            children: left, right
//	Ident           Name = identifier text
//	String/Number   Value = raw source text
//	JSXElement      Name = tag                  children: JSXAttribute..., body...
//	JSXAttribute    Name = attribute name       children: [value]
//	JSXContainer    children: [expression or Empty]
type Node struct {
	Kind     Kind
	Parent   *Node
	Children []*Node

	Name  string
	Value string

	Leading  []Comment
	Trailing []Comment

	Start     Pos
	End       Pos
	StartByte uint32
	EndByte   uint32
}

// File is one parsed source file. Root is always a Program node.
type File struct {
	Path   string
	Source []byte
	Root   *Node
}

// Append attaches child to n, setting the parent link.
func (n *Node) Append(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Detach removes n from its parent's child list, preserving the relative
// order of the remaining siblings. Detaching a parentless node is a no-op.
func (n *Node) Detach() {
	p := n.Parent
	if p == nil {
		return
	}
	kept := p.Children[:0]
	for _, c := range p.Children {
		if c != n {
			kept = append(kept, c)
		}
	}
	p.Children = kept
	n.Parent = nil
}

// Replace swaps n for repl in n's parent, keeping position.
func (n *Node) Replace(repl *Node) {
	p := n.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == n {
			repl.Parent = p
			p.Children[i] = repl
			n.Parent = nil
			return
		}
	}
}

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Walk traverses the subtree rooted at n in document order. If fn returns
// false the node's children are skipped. Children are snapshotted per node so
// fn may detach the node it is visiting.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	children := make([]*Node, len(n.Children))
	copy(children, n.Children)
	for _, c := range children {
		Walk(c, fn)
	}
}

// Comments collects every comment attached anywhere under root, in document
// order of the owning nodes. Comments on detached nodes are gone with them,
// which is what keeps repeated pruning passes stable.
func Comments(root *Node) []Comment {
	var out []Comment
	Walk(root, func(n *Node) bool {
		out = append(out, n.Leading...)
		out = append(out, n.Trailing...)
		return true
	})
	return out
}
