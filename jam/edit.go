package jam

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlappingEdits is returned when two edits touch the same bytes.
var ErrOverlappingEdits = errors.New("overlapping edits")

// Edit replaces src[Start:End] with Text. Start == End inserts.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Edits is an unordered set of source replacements applied in one pass.
type Edits []Edit

// Replace records a replacement of [start, end).
func (e *Edits) Replace(start, end int, text string) {
	*e = append(*e, Edit{Start: start, End: end, Text: text})
}

// Insert records an insertion at offset.
func (e *Edits) Insert(offset int, text string) {
	e.Replace(offset, offset, text)
}

// Apply returns src with every edit applied. Insertions at the same offset keep
// their recording order.
func (e Edits) Apply(src []byte) ([]byte, error) {
	edits := append(Edits(nil), e...)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}
		return edits[i].End-edits[i].Start < edits[j].End-edits[j].Start
	})
	result := make([]byte, 0, len(src))
	pos := 0
	for _, edit := range edits {
		if edit.Start < pos || edit.End < edit.Start || edit.End > len(src) {
			return nil, fmt.Errorf("%w at [%d,%d)", ErrOverlappingEdits, edit.Start, edit.End)
		}
		result = append(result, src[pos:edit.Start]...)
		result = append(result, edit.Text...)
		pos = edit.End
	}
	result = append(result, src[pos:]...)
	return result, nil
}
