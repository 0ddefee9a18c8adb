// Package engine implements annotation-driven pruning of a parsed source
// tree. Given a file's tree and a build mode it removes every code path
// marked for the internal-only variant, cascades removal to uses of pruned
// declarations, and reports the removed symbol names.
//
// All state is per file: a fresh tracker and annotation index are built for
// every call, so files can be pruned by independent workers with no
// coordination.
package engine

import (
	"errors"
	"fmt"
	"sort"

	"excise/pkg/ast"
	"excise/pkg/models"
)

// ErrMalformedTree is returned when the input tree is not a program root.
var ErrMalformedTree = errors.New("malformed source tree")

// Options configures one pruning pass. The protected symbol lists are fixed
// and deliberately absent here.
type Options struct {
	// Marker is the annotation token a comment must contain.
	Marker string
	// ModeFlag is the well-known identifier guarding conditional renders.
	ModeFlag string
	// StyleTables are dotted callee paths (e.g. "StyleSheet.create") whose
	// object-literal entries may be annotated individually.
	StyleTables []string
}

// DefaultOptions returns the conventional marker and flag names.
func DefaultOptions() Options {
	return Options{
		Marker:      "@internal-only",
		ModeFlag:    "__INTERNAL__",
		StyleTables: []string{"StyleSheet.create"},
	}
}

// Result reports one file's pruning outcome. Removed preserves insertion
// order; Edits are byte-span patches against the original source, sorted and
// non-overlapping.
type Result struct {
	Removed []string
	Edits   []models.Edit
}

// Pruned reports whether the pass changed anything.
func (r *Result) Pruned() bool {
	return len(r.Edits) > 0
}

// Prune runs one restricted-mode pass over file, mutating the tree in place.
// When restricted is false the tree is returned untouched. The tree must be
// a parser-produced program; anything else fails the file as a whole.
func Prune(file *ast.File, restricted bool, opts Options) (*Result, error) {
	if file == nil || file.Root == nil || file.Root.Kind != ast.KindProgram {
		return nil, fmt.Errorf("%s: %w", filePath(file), ErrMalformedTree)
	}
	if !restricted {
		return &Result{}, nil
	}
	// Empty fields default independently so a caller setting only some of
	// the options keeps the rest.
	def := DefaultOptions()
	if opts.Marker == "" {
		opts.Marker = def.Marker
	}
	if opts.ModeFlag == "" {
		opts.ModeFlag = def.ModeFlag
	}
	if opts.StyleTables == nil {
		opts.StyleTables = def.StyleTables
	}

	p := &pruner{
		opts:    opts,
		tracker: newTracker(),
		tables:  make(map[string]struct{}, len(opts.StyleTables)),
	}
	for _, t := range opts.StyleTables {
		p.tables[t] = struct{}{}
	}

	// The index is computed once, before anything is mutated.
	p.lines = annotationLines(file.Root, opts.Marker)

	// Seeding: later markup may reference an earlier declaration that is
	// only known to be removed once its annotation has been seen.
	p.seed(file.Root)
	p.seeded = make(map[string]struct{}, len(p.tracker.names))
	for _, name := range p.tracker.Names() {
		p.seeded[name] = struct{}{}
	}

	// Pruning: full traversal, removal decisions plus reference rewriting.
	p.prune(file.Root)

	sort.Slice(p.edits, func(i, j int) bool { return p.edits[i].Start < p.edits[j].Start })
	return &Result{Removed: p.tracker.Names(), Edits: p.edits}, nil
}

func filePath(f *ast.File) string {
	if f == nil {
		return "<nil>"
	}
	return f.Path
}

// pruner holds the state of one file's pass. Discarded when the pass ends.
type pruner struct {
	opts    Options
	lines   map[uint32]struct{}
	tracker *tracker
	// seeded snapshots the tracker right after seeding. Alias propagation
	// consults this set, not the live tracker, so a chain of aliases is
	// followed exactly one hop from an annotated declaration.
	seeded map[string]struct{}
	tables map[string]struct{}
	edits  []models.Edit
}

func (p *pruner) marked(n *ast.Node) bool {
	return directlyMarked(n, p.opts.Marker)
}

// seed walks declaration nodes and style-table constructor calls, populating
// the tracker before any removal decision is made. Nothing is detached here.
func (p *pruner) seed(root *ast.Node) {
	ast.Walk(root, func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KindImport:
			if p.marked(n) && !importProtected(n.Name, importNames(n)) {
				for _, name := range importNames(n) {
					p.tracker.Add(name)
				}
			}
		case ast.KindVarDecl:
			declMarked := p.marked(n)
			for _, d := range n.Children {
				if d.Kind != ast.KindVarDeclarator {
					continue
				}
				if declMarked || p.marked(d) {
					p.tracker.Add(d.Name)
				}
				p.seedStyleTable(d)
			}
		case ast.KindFunction, ast.KindClassMember:
			if p.marked(n) {
				p.tracker.Add(n.Name)
			}
		}
		return true
	})
}

// seedStyleTable tracks annotated entries of table-constructor calls such as
// StyleSheet.create, under the composite "table.entry" key.
func (p *pruner) seedStyleTable(decl *ast.Node) {
	call := decl.FirstChild()
	if call == nil || call.Kind != ast.KindCall {
		return
	}
	if _, ok := p.tables[calleePath(call.FirstChild())]; !ok {
		return
	}
	for _, arg := range call.Children[1:] {
		if arg.Kind != ast.KindObject {
			continue
		}
		for _, prop := range arg.Children {
			if prop.Kind == ast.KindProperty && p.marked(prop) {
				p.tracker.Add(decl.Name + "." + prop.Name)
			}
		}
	}
}

// prune applies removal decisions and reference rewriting across n's
// children. A node, once detached or replaced, is never revisited.
func (p *pruner) prune(n *ast.Node) {
	children := make([]*ast.Node, len(n.Children))
	copy(children, n.Children)
	for _, c := range children {
		if p.shouldRemove(c) {
			p.remove(c)
			continue
		}
		if p.rewrite(c) {
			continue
		}
		p.prune(c)
	}
}

// remove detaches the node (or, for a markup node pinned in an expression
// slot, substitutes a null literal) and records the matching source edit.
func (p *pruner) remove(n *ast.Node) {
	if n.Kind == ast.KindJSXElement && inExpressionSlot(n.Parent) {
		// The surrounding expression stays; something must fill the slot.
		p.replace(n, ast.KindNull, "null")
		return
	}

	target := promoteRemoval(n)
	start, end := p.removalSpan(target)
	p.edits = append(p.edits, models.Edit{Start: start, End: end})
	target.Detach()
}

// promoteRemoval widens a removal to the smallest enclosing node whose
// deletion keeps the tree well formed: a lone declarator takes its
// declaration along, a lone JSX child takes its expression statement.
func promoteRemoval(n *ast.Node) *ast.Node {
	for {
		parent := n.Parent
		if parent == nil {
			return n
		}
		switch {
		case n.Kind == ast.KindVarDeclarator && parent.Kind == ast.KindVarDecl && len(parent.Children) == 1:
			n = parent
		case n.Kind == ast.KindJSXElement && parent.Kind == ast.KindExprStmt && len(parent.Children) == 1:
			n = parent
		default:
			return n
		}
	}
}

// removalSpan computes the byte span to delete for a removed node: the node
// itself, its attached marker comments, and the list separator when the node
// is a non-final declarator or object entry.
func (p *pruner) removalSpan(n *ast.Node) (uint32, uint32) {
	start, end := n.StartByte, n.EndByte
	for _, cm := range n.Leading {
		if hasMarker([]ast.Comment{cm}, p.opts.Marker) && cm.StartByte < start {
			start = cm.StartByte
		}
	}
	for _, cm := range n.Trailing {
		if hasMarker([]ast.Comment{cm}, p.opts.Marker) && cm.EndByte > end {
			end = cm.EndByte
		}
	}

	if parent := n.Parent; parent != nil &&
		(parent.Kind == ast.KindVarDecl || parent.Kind == ast.KindObject) {
		idx := -1
		for i, c := range parent.Children {
			if c == n {
				idx = i
				break
			}
		}
		switch {
		case idx > 0:
			if prev := parent.Children[idx-1].EndByte; prev > 0 && prev < start {
				start = prev
			}
		case idx == 0 && len(parent.Children) > 1:
			if next := parent.Children[1].StartByte; next > end {
				end = next
			}
		}
	}
	return start, end
}

// replace swaps n for a synthesized literal node and records the edit. The
// marker comment, if any, is dropped rather than carried over so a second
// pass sees nothing left to act on.
func (p *pruner) replace(n *ast.Node, kind ast.Kind, text string) {
	start, end := n.StartByte, n.EndByte
	for _, cm := range n.Leading {
		if hasMarker([]ast.Comment{cm}, p.opts.Marker) && cm.StartByte < start {
			start = cm.StartByte
		}
	}

	repl := &ast.Node{
		Kind:      kind,
		Value:     text,
		Start:     n.Start,
		End:       n.End,
		StartByte: n.StartByte,
		EndByte:   n.EndByte,
	}
	for _, cm := range n.Leading {
		if !hasMarker([]ast.Comment{cm}, p.opts.Marker) {
			repl.Leading = append(repl.Leading, cm)
		}
	}
	repl.Trailing = n.Trailing

	n.Replace(repl)
	p.edits = append(p.edits, models.Edit{Start: start, End: end, Text: text})
}

// importNames returns the local binding names of an import node.
func importNames(imp *ast.Node) []string {
	names := make([]string, 0, len(imp.Children))
	for _, c := range imp.Children {
		if c.Kind == ast.KindImportSpecifier {
			names = append(names, c.Name)
		}
	}
	return names
}

// calleePath renders an identifier or single-level member callee as a dotted
// path ("StyleSheet.create"). Deeper shapes are not table constructors.
func calleePath(n *ast.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case ast.KindIdent:
		return n.Name
	case ast.KindMember:
		if obj := n.FirstChild(); obj != nil && obj.Kind == ast.KindIdent {
			return obj.Name + "." + n.Name
		}
	}
	return ""
}

// inExpressionSlot reports whether parent holds its children in positions
// that syntactically require an expression to remain.
func inExpressionSlot(parent *ast.Node) bool {
	if parent == nil {
		return false
	}
	switch parent.Kind {
	case ast.KindVarDeclarator, ast.KindProperty, ast.KindCall, ast.KindMember,
		ast.KindLogical, ast.KindExpr, ast.KindJSXAttribute:
		return true
	case ast.KindJSXContainer:
		// An empty {} is fine as a child slot but not as an attribute
		// value.
		return parent.Parent != nil && parent.Parent.Kind == ast.KindJSXAttribute
	}
	return false
}
