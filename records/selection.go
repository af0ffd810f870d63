package records

import "sort"

// SelectionSet is the set of checked record positions. It is never
// persisted.
type SelectionSet struct {
	members map[int]struct{}
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{members: make(map[int]struct{})}
}

// Toggle flips membership of pos.
func (s *SelectionSet) Toggle(pos int) {
	if _, ok := s.members[pos]; ok {
		delete(s.members, pos)
		return
	}
	s.members[pos] = struct{}{}
}

// SelectAll sets the membership to {0 .. n-1}.
func (s *SelectionSet) SelectAll(n int) {
	s.members = make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		s.members[i] = struct{}{}
	}
}

func (s *SelectionSet) Clear() {
	s.members = make(map[int]struct{})
}

// Invert sets the membership to {0 .. n-1} minus the current members. n
// must be the current record count.
func (s *SelectionSet) Invert(n int) {
	next := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		if _, ok := s.members[i]; !ok {
			next[i] = struct{}{}
		}
	}
	s.members = next
}

func (s *SelectionSet) Contains(pos int) bool {
	_, ok := s.members[pos]
	return ok
}

// Members returns the selected positions in ascending order.
func (s *SelectionSet) Members() []int {
	out := make([]int, 0, len(s.members))
	for p := range s.members {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (s *SelectionSet) Len() int { return len(s.members) }
