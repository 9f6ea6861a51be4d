package cart

// SelectionSet tracks which cart item ids are chosen for checkout,
// independent of item mutation. It is not safe for concurrent use on its
// own; the Store serializes access.
//
// Invariant: the set is always a subset of the ids currently in the
// snapshot. Every removal path prunes the set in the same critical section,
// and a full reload resets it.
type SelectionSet struct {
	ids map[string]struct{}
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{ids: make(map[string]struct{})}
}

// Toggle flips membership for a single id. Callers must have verified the
// id belongs to a current item.
func (s *SelectionSet) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
}

// ToggleAll selects every current id or clears the set.
func (s *SelectionSet) ToggleAll(selectAll bool, currentIDs []string) {
	s.ids = make(map[string]struct{}, len(currentIDs))
	if !selectAll {
		return
	}
	for _, id := range currentIDs {
		s.ids[id] = struct{}{}
	}
}

func (s *SelectionSet) IsSelected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// AllSelected reports whether every current item id is selected and the
// set is non-empty.
func (s *SelectionSet) AllSelected(currentIDs []string) bool {
	if len(currentIDs) == 0 || len(s.ids) == 0 {
		return false
	}
	for _, id := range currentIDs {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// Prune drops the given ids from the set. Called whenever items are removed
// from the snapshot.
func (s *SelectionSet) Prune(ids ...string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Reset replaces the set with all given ids. A full reload defaults to
// "all items selected".
func (s *SelectionSet) Reset(allIDs []string) {
	s.ids = make(map[string]struct{}, len(allIDs))
	for _, id := range allIDs {
		s.ids[id] = struct{}{}
	}
}

func (s *SelectionSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

func (s *SelectionSet) Len() int {
	return len(s.ids)
}
