package services

import (
	"slices"
	"testing"
)

func TestSelectionToggle(t *testing.T) {
	var s Selection
	s.Toggle(10)
	s.Toggle(11)
	s.Toggle(12)
	s.Toggle(11)

	if got := s.IDs(); !slices.Equal(got, []int64{10, 12}) {
		t.Fatalf("ids = %v, want [10 12]", got)
	}
	if !s.Contains(12) || s.Contains(11) || s.Len() != 2 {
		t.Fatalf("unexpected membership: %v", s.IDs())
	}
	if s.AllSelected() {
		t.Fatalf("toggle must not set the select-all flag")
	}
}

func TestSelectAllIgnoresPriorState(t *testing.T) {
	keys := []int64{10, 11, 12}
	priors := [][]int64{
		nil,
		{12},
		{11, 10},
		{12, 11, 10},
	}
	for _, prior := range priors {
		var s Selection
		for _, id := range prior {
			s.Toggle(id)
		}
		s.SelectAll(keys)
		if got := s.IDs(); !slices.Equal(got, keys) {
			t.Fatalf("prior %v: ids = %v, want %v", prior, got, keys)
		}
		if !s.AllSelected() {
			t.Fatalf("prior %v: flag not set", prior)
		}
	}
}

func TestToggleSelectAll(t *testing.T) {
	keys := []int64{1, 2}
	var s Selection

	s.ToggleSelectAll(keys)
	if s.Len() != 2 || !s.AllSelected() {
		t.Fatalf("first toggle should select all: %v", s.IDs())
	}

	s.Toggle(1) // flag stays set, as in the UI
	s.ToggleSelectAll(keys)
	if s.Len() != 0 || s.AllSelected() {
		t.Fatalf("second toggle should clear: %v flag=%v", s.IDs(), s.AllSelected())
	}
}

func TestPruneToCurrentGroups(t *testing.T) {
	tests := []struct {
		name     string
		selected []int64
		all      bool
		keys     []int64
		want     []int64
		wantFlag bool
	}{
		{"keeps present", []int64{1, 2}, false, []int64{2, 1, 3}, []int64{1, 2}, false},
		{"drops missing", []int64{1, 2, 3}, true, []int64{1, 3}, []int64{1, 3}, true},
		{"emptied clears flag", []int64{4}, true, []int64{1}, nil, false},
		{"no groups", []int64{1}, false, nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Selection{ids: slices.Clone(tt.selected), selectAll: tt.all}
			s.PruneToCurrentGroups(tt.keys)
			if got := s.IDs(); !slices.Equal(got, tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			if s.AllSelected() != tt.wantFlag {
				t.Fatalf("flag = %v, want %v", s.AllSelected(), tt.wantFlag)
			}
		})
	}
}

func TestSelectionReset(t *testing.T) {
	var s Selection
	s.SelectAll([]int64{1, 2, 3})
	s.Reset()
	if s.Len() != 0 || s.AllSelected() {
		t.Fatalf("reset left %v flag=%v", s.IDs(), s.AllSelected())
	}

	s.Reset()
	if s.Len() != 0 || s.AllSelected() {
		t.Fatalf("reset on empty selection must stay empty")
	}
}

func TestSelectionIDsIsACopy(t *testing.T) {
	var s Selection
	s.Toggle(1)
	ids := s.IDs()
	ids[0] = 99
	if !s.Contains(1) {
		t.Fatalf("IDs must return a copy")
	}
}
