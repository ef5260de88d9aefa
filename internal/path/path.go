package path

import (
	"slices"
	"strconv"
	"strings"
)

// Segment is one step of a Path: a mapping key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// String renders the segment as it appears in a dotted path.
func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path is an immutable, pre-validated location in a value tree.
// The zero Path is the root.
type Path struct {
	segs []Segment
	raw  string
}

// Root is the empty path addressing the whole tree.
var Root = Path{}

// Parse splits a dotted path into segments.
// Empty input, empty segments, negative indices and zero-padded indices
// are rejected, so every location has exactly one spelling.
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, newInvalidPath(s, "path is empty")
	}

	parts := strings.Split(s, ".")
	segs := make([]Segment, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			return Path{}, newInvalidPath(s, "empty segment at position "+strconv.Itoa(i))
		}
		if isDigits(part) {
			if len(part) > 1 && part[0] == '0' {
				return Path{}, newInvalidPath(s, "zero-padded index: "+part)
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return Path{}, newInvalidPath(s, "index out of range: "+part)
			}
			segs = append(segs, Segment{Index: n, IsIndex: true})
			continue
		}
		if strings.HasPrefix(part, "-") && isDigits(part[1:]) {
			return Path{}, newInvalidPath(s, "negative index: "+part)
		}
		segs = append(segs, Segment{Key: part})
	}

	return Path{segs: segs, raw: s}, nil
}

// MustParse is like Parse but panics on error.
// Use only with literals known to be valid.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FromSegments builds a Path from segments.
func FromSegments(segs ...Segment) Path {
	if len(segs) == 0 {
		return Root
	}
	cp := slices.Clone(segs)
	return Path{segs: cp, raw: render(cp)}
}

func render(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// String returns the dotted form. The root renders as "".
func (p Path) String() string {
	return p.raw
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segs)
}

// IsRoot reports whether p addresses the whole tree.
func (p Path) IsRoot() bool {
	return len(p.segs) == 0
}

// Segments returns a copy of the segments.
func (p Path) Segments() []Segment {
	return slices.Clone(p.segs)
}

// At returns the i-th segment.
func (p Path) At(i int) Segment {
	return p.segs[i]
}

// Last returns the final segment. It panics on the root path.
func (p Path) Last() Segment {
	return p.segs[len(p.segs)-1]
}

// Parent returns p without its final segment. The parent of Root is Root.
func (p Path) Parent() Path {
	if len(p.segs) <= 1 {
		return Root
	}
	return FromSegments(p.segs[:len(p.segs)-1]...)
}

// Key returns a child path selecting key k.
func (p Path) Key(k string) Path {
	return p.append(Segment{Key: k})
}

// Index returns a child path selecting index i.
func (p Path) Index(i int) Path {
	return p.append(Segment{Index: i, IsIndex: true})
}

// Join appends the segments of q to p.
func (p Path) Join(q Path) Path {
	if q.IsRoot() {
		return p
	}
	segs := make([]Segment, 0, len(p.segs)+len(q.segs))
	segs = append(segs, p.segs...)
	segs = append(segs, q.segs...)
	return Path{segs: segs, raw: render(segs)}
}

func (p Path) append(s Segment) Path {
	segs := make([]Segment, 0, len(p.segs)+1)
	segs = append(segs, p.segs...)
	segs = append(segs, s)
	return Path{segs: segs, raw: render(segs)}
}

// Equal reports whether p and q address the same location.
func (p Path) Equal(q Path) bool {
	return slices.Equal(p.segs, q.segs)
}

// HasPrefix reports whether prefix is p itself or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segs) > len(p.segs) {
		return false
	}
	return slices.Equal(p.segs[:len(prefix.segs)], prefix.segs)
}

// Related reports whether p and q overlap: one is an ancestor of (or equal
// to) the other. A write to either one can change the value seen at the other.
func (p Path) Related(q Path) bool {
	return p.HasPrefix(q) || q.HasPrefix(p)
}

// TrimPrefix returns the remainder of p after prefix, and false when
// prefix is not a prefix of p.
func (p Path) TrimPrefix(prefix Path) (Path, bool) {
	if !p.HasPrefix(prefix) {
		return Path{}, false
	}
	return FromSegments(p.segs[len(prefix.segs):]...), true
}
