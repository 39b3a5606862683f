package doctree

import "unicode/utf8"

// Path addresses a node by child indexes from the root, e.g. [1, 0] is the
// first child of the second top-level block.
type Path []int

func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Compare orders paths in document order. A path and its ancestor compare equal.
func (p Path) Compare(q Path) int {
	n := min(len(p), len(q))
	for i := 0; i < n; i++ {
		switch {
		case p[i] < q[i]:
			return -1
		case p[i] > q[i]:
			return 1
		}
	}
	return 0
}

// IsAncestorOf reports whether p is a strict ancestor of q.
func (p Path) IsAncestorOf(q Path) bool {
	return len(p) < len(q) && p.Compare(q) == 0
}

// Parent returns p without its last index. The root has no parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return append(Path(nil), p[:len(p)-1]...)
}

// Last returns the final index of p.
func (p Path) Last() int { return p[len(p)-1] }

// Sibling returns p with its last index shifted by delta.
func (p Path) Sibling(delta int) Path {
	out := append(Path(nil), p...)
	out[len(out)-1] += delta
	return out
}

// Child returns the path of p's i-th child.
func (p Path) Child(i int) Path {
	return append(append(Path(nil), p...), i)
}

// Point is a location inside a text run. Offset counts runes.
type Point struct {
	Path   Path `json:"path"`
	Offset int  `json:"offset"`
}

// Compare orders points in document order.
func (p Point) Compare(q Point) int {
	if c := p.Path.Compare(q.Path); c != 0 {
		return c
	}
	switch {
	case p.Offset < q.Offset:
		return -1
	case p.Offset > q.Offset:
		return 1
	}
	return 0
}

func (p Point) Equal(q Point) bool {
	return p.Path.Equal(q.Path) && p.Offset == q.Offset
}

// Range is a selection between an anchor and a focus point, in either direction.
type Range struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Collapsed returns an empty range at p.
func Collapsed(p Point) Range {
	return Range{Anchor: p, Focus: p}
}

func (r Range) IsCollapsed() bool { return r.Anchor.Equal(r.Focus) }

// Edges returns the range's points in document order.
func (r Range) Edges() (start, end Point) {
	if r.Anchor.Compare(r.Focus) <= 0 {
		return r.Anchor, r.Focus
	}
	return r.Focus, r.Anchor
}

// Includes reports whether path p lies between the range's edges, counting
// ancestors of either edge.
func (r Range) Includes(p Path) bool {
	start, end := r.Edges()
	return p.Compare(start.Path) >= 0 && p.Compare(end.Path) <= 0
}

// RuneLen returns the length of s in runes, the unit of Point.Offset.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }

// RuneSlice returns the runes of s in [from, to).
func RuneSlice(s string, from, to int) string {
	r := []rune(s)
	from = max(0, min(from, len(r)))
	to = max(from, min(to, len(r)))
	return string(r[from:to])
}
