package fileset

import "sort"

// PathSet is a minimal string set used to deduplicate classified paths.
type PathSet map[string]struct{}

// Add inserts values into the set.
func (s PathSet) Add(vals ...string) {
	for _, v := range vals {
		s[v] = struct{}{}
	}
}

// Has returns true if v is present.
func (s PathSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexicographic order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
