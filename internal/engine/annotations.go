package engine

import (
	"strings"

	"excise/pkg/ast"
)

// annotationLines scans every comment reachable from root once and returns
// the set of lines hosting a removal annotation, each expanded by +1. The +1
// bridges JSX elements whose annotation lives in a {/* ... */} container the
// parser could not attach to the element itself.
//
// Computed once per file before the main pass; recomputing per node would be
// wasteful and could observe a half-mutated tree.
func annotationLines(root *ast.Node, marker string) map[uint32]struct{} {
	lines := make(map[uint32]struct{})
	for _, cm := range ast.Comments(root) {
		if !strings.Contains(cm.Text, marker) {
			continue
		}
		lines[cm.Start.Line] = struct{}{}
		lines[cm.Start.Line+1] = struct{}{}
	}
	return lines
}

// hasMarker reports whether any of the comments contains the marker token.
func hasMarker(comments []ast.Comment, marker string) bool {
	for _, cm := range comments {
		if strings.Contains(cm.Text, marker) {
			return true
		}
	}
	return false
}

// directlyMarked reports whether the node itself carries the annotation as a
// leading or trailing comment.
func directlyMarked(n *ast.Node, marker string) bool {
	return hasMarker(n.Leading, marker) || hasMarker(n.Trailing, marker)
}
