package engine

import "excise/pkg/ast"

// rewrite patches surviving nodes that still refer to pruned declarations.
// Returns true when n was replaced wholesale, in which case the caller must
// not descend into it.
func (p *pruner) rewrite(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindLogical:
		return p.rewriteGuard(n)
	case ast.KindIdent:
		// A reference whose declaration was pruned cannot be deleted from
		// an expression position; it becomes the undefined value instead
		// of dangling. Binding positions (import specifiers, declarator
		// names, member properties, JSX tags) are stored as node fields,
		// not Ident children, so they can never arrive here.
		if p.tracker.Has(n.Name) && !protectedIdent(n.Name) {
			p.replace(n, ast.KindUndefined, "undefined")
			return true
		}
	}
	return false
}

// rewriteGuard collapses an annotated conditional render guard
// (FLAG && <X/>). Only a direct annotation triggers it, and only when the
// guard is the well-known mode flag or a name already pruned. The whole
// logical expression becomes the literal false: a render-nothing value that
// keeps an enclosing JSX expression container syntactically filled, so the
// container itself is never deleted.
func (p *pruner) rewriteGuard(n *ast.Node) bool {
	if n.Value != "&&" || !p.marked(n) {
		return false
	}
	left := n.FirstChild()
	if left == nil || left.Kind != ast.KindIdent {
		return false
	}
	if left.Name != p.opts.ModeFlag && !p.tracker.Has(left.Name) {
		return false
	}

	p.replace(n, ast.KindBool, "false")
	return true
}
