package citation

import "sort"

// LineIndex maps between byte offsets and zero-based line numbers.
type LineIndex struct {
	starts []int
	size   int
}

// NewLineIndex indexes the line starts of text. Lines end at '\n'.
func NewLineIndex(text string) LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return LineIndex{starts: starts, size: len(text)}
}

// Lines returns the number of lines. Text ending in '\n' has a final
// empty line.
func (x LineIndex) Lines() int {
	return len(x.starts)
}

// Start returns the offset of line's first byte, clamped to the text.
func (x LineIndex) Start(line int) int {
	switch {
	case line <= 0:
		return 0
	case line >= len(x.starts):
		return x.size
	default:
		return x.starts[line]
	}
}

// End returns the offset just past line's content, excluding its '\n'.
func (x LineIndex) End(line int) int {
	if line < 0 {
		return 0
	}
	if line+1 >= len(x.starts) {
		return x.size
	}
	return x.starts[line+1] - 1
}

// Line returns the line containing offset.
func (x LineIndex) Line(offset int) int {
	return sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset }) - 1
}

// Range returns the byte range covering lines first through last inclusive,
// including the '\n' that ends last. Out-of-range lines are clamped.
func (x LineIndex) Range(first, last int) Range {
	if last < first {
		return Range{From: x.Start(first), To: x.Start(first)}
	}
	return Range{From: x.Start(first), To: x.Start(last + 1)}
}
