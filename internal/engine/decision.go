package engine

import (
	"strings"

	"excise/pkg/ast"
)

// shouldRemove is the per-node removal decision. Declaration kinds are
// removed only on a direct annotation, keeping non-markup removal fully
// deterministic and auditable. Markup additionally cascades from tracked
// declarations and falls back to annotation-line proximity for the comments
// the parser could not attach.
func (p *pruner) shouldRemove(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindImport:
		// A standalone annotation preceding the import arrives here as a
		// leading comment, so the previous-sibling case needs no separate
		// lookup. Protection overrides annotation intent: a marked
		// framework import is kept, silently.
		if p.marked(n) {
			return !importProtected(n.Name, importNames(n))
		}
		return false

	case ast.KindVarDecl, ast.KindFunction, ast.KindClassMember,
		ast.KindProperty, ast.KindStatement, ast.KindExprStmt:
		return p.marked(n)

	case ast.KindEmpty:
		// A comment-only {/* ... */} container carrying the marker. The
		// container is consumed so the transformed output holds no
		// annotation residue and a re-run sees nothing on its lines.
		return p.marked(n)

	case ast.KindVarDeclarator:
		if p.marked(n) {
			return true
		}
		// One-hop propagation: a declarator initialized by direct
		// reference to an annotated declaration goes too, and its own
		// name joins the tracker. The seeded snapshot, not the live
		// tracker, is consulted, so chains longer than one hop are not
		// followed.
		if init := n.FirstChild(); init != nil && init.Kind == ast.KindIdent {
			if _, ok := p.seeded[init.Name]; ok {
				p.tracker.Add(n.Name)
				return true
			}
		}
		return false

	case ast.KindJSXElement:
		// Opening-tag annotation, attached by the parser.
		if p.marked(n) {
			return true
		}
		// Cascade: the element's tag was declared by a pruned import or
		// variable.
		if p.tracker.Has(n.Name) || p.tracker.Has(tagRoot(n.Name)) {
			return true
		}
		// Line-proximity fallback for {/* ... */} annotations. Exact
		// match against the expanded line set only; siblings further
		// away are never collateral.
		if _, ok := p.lines[n.Start.Line]; ok {
			return true
		}
		// A style reference to a pruned table entry removes the whole
		// element.
		return p.hasRemovedStyle(n)
	}
	return false
}

// hasRemovedStyle reports whether any attribute references a tracked
// "table.entry" style key, e.g. style={styles.debugPanel}.
func (p *pruner) hasRemovedStyle(elem *ast.Node) bool {
	for _, c := range elem.Children {
		if c.Kind != ast.KindJSXAttribute {
			continue
		}
		v := c.FirstChild()
		if v != nil && v.Kind == ast.KindJSXContainer {
			v = v.FirstChild()
		}
		if v == nil || v.Kind != ast.KindMember {
			continue
		}
		if key := calleePath(v); key != "" && p.tracker.Has(key) {
			return true
		}
	}
	return false
}

// tagRoot returns the leading segment of a dotted JSX tag (Foo.Bar -> Foo).
func tagRoot(tag string) string {
	if i := strings.IndexByte(tag, '.'); i > 0 {
		return tag[:i]
	}
	return tag
}
