// Package printer renders pruned source text by splicing engine edits into
// the original bytes. The engine works on spans of the untouched input, so
// no code generation is needed: deleted nodes disappear, rewritten nodes are
// patched in place, and everything else is emitted byte for byte.
package printer

import (
	"bytes"
	"fmt"
	"sort"

	"excise/pkg/models"
)

// Apply patches src with the given edits and returns the result. Edits must
// not overlap; they are sorted here so callers need not bother. Pure
// deletions that leave a blank line take the whole line with them,
// indentation and newline included.
func Apply(src []byte, edits []models.Edit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := make([]models.Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out bytes.Buffer
	out.Grow(len(src))
	var cursor uint32

	for _, e := range sorted {
		if e.End > uint32(len(src)) || e.Start > e.End {
			return nil, fmt.Errorf("edit span [%d,%d) out of bounds for %d bytes", e.Start, e.End, len(src))
		}
		if e.Start < cursor {
			return nil, fmt.Errorf("overlapping edit at byte %d", e.Start)
		}

		start, end := e.Start, e.End
		if e.Text == "" {
			start, end = expandToLines(src, start, end)
			if start < cursor {
				start = cursor
			}
		}

		out.Write(src[cursor:start])
		out.WriteString(e.Text)
		cursor = end
	}
	out.Write(src[cursor:])
	return out.Bytes(), nil
}

// expandToLines widens a deletion to cover whole lines when the span is the
// only content on them: leading indentation and the trailing newline go too,
// so removals do not leave blank holes behind.
func expandToLines(src []byte, start, end uint32) (uint32, uint32) {
	ls := start
	for ls > 0 && src[ls-1] != '\n' {
		if c := src[ls-1]; c != ' ' && c != '\t' {
			return start, end
		}
		ls--
	}

	le := end
	for le < uint32(len(src)) && src[le] != '\n' {
		if c := src[le]; c != ' ' && c != '\t' && c != ';' {
			return start, end
		}
		le++
	}
	if le < uint32(len(src)) {
		le++ // consume the newline
	}
	return ls, le
}
