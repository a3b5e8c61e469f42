package services

import "slices"

// Selection is the set of students picked for a combined invoice. Ids keep
// the order in which they were added. The select-all flag only tracks the UI
// toggle; membership is always read from the id list.
//
// Selection is not safe for concurrent use; MonthlyView guards it.
type Selection struct {
	ids       []int64
	selectAll bool
}

// Toggle adds id at the end or removes it. The select-all flag is untouched.
func (s *Selection) Toggle(id int64) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	s.ids = append(s.ids, id)
}

// SelectAll replaces the selection with exactly keys and sets the flag.
func (s *Selection) SelectAll(keys []int64) {
	s.ids = dedupe(keys)
	s.selectAll = true
}

// ClearAll empties the selection and clears the flag.
func (s *Selection) ClearAll() {
	s.ids = nil
	s.selectAll = false
}

// ToggleSelectAll clears when the flag is set and selects every key otherwise.
func (s *Selection) ToggleSelectAll(keys []int64) {
	if s.selectAll {
		s.ClearAll()
		return
	}
	s.SelectAll(keys)
}

// PruneToCurrentGroups drops ids that are not in keys. If nothing is left
// the flag is cleared too.
func (s *Selection) PruneToCurrentGroups(keys []int64) {
	s.ids = slices.DeleteFunc(s.ids, func(id int64) bool {
		return !slices.Contains(keys, id)
	})
	if len(s.ids) == 0 {
		s.ids = nil
		s.selectAll = false
	}
}

// Reset runs on month change.
func (s *Selection) Reset() {
	s.ClearAll()
}

func (s *Selection) IDs() []int64 {
	return slices.Clone(s.ids)
}

func (s *Selection) Contains(id int64) bool {
	return slices.Contains(s.ids, id)
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// AllSelected reports the select-all flag.
func (s *Selection) AllSelected() bool {
	return s.selectAll
}

func dedupe(in []int64) []int64 {
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
