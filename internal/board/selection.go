package board

import "sort"

// Selection is the set of lead ids marked for a bulk operation.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{ids: make(map[string]struct{})}
}

// Add marks a lead.
func (s *Selection) Add(leadID string) {
	s.ids[leadID] = struct{}{}
}

// Toggle flips a lead's membership.
func (s *Selection) Toggle(leadID string) {
	if _, ok := s.ids[leadID]; ok {
		delete(s.ids, leadID)
		return
	}
	s.ids[leadID] = struct{}{}
}

// Has reports membership.
func (s *Selection) Has(leadID string) bool {
	_, ok := s.ids[leadID]
	return ok
}

// Count returns the number of selected leads.
func (s *Selection) Count() int {
	return len(s.ids)
}

// IDs returns the selected ids sorted for stable request payloads.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear empties the selection.
func (s *Selection) Clear() {
	for id := range s.ids {
		delete(s.ids, id)
	}
}
