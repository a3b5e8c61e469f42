package core

import "sort"

// StudentGroup is the in-memory aggregate of one student's records for the
// current billing period. It is derived from records and never stored.
type StudentGroup struct {
	StudentID    int64  `json:"studentId"`
	StudentName  string `json:"studentName"`
	PricePerHour Money  `json:"pricePerHour"`
	// Sessions are in presentation order: ascending by SessionDate.
	Sessions      []SessionRecord `json:"sessions"`
	TotalSessions int             `json:"totalSessions"`
	TotalHours    int             `json:"totalHours"`
	TotalAmount   Money           `json:"totalAmount"`
	AllPaid       bool            `json:"allPaid"`
}

// SessionIDs returns the ids of the group's records in presentation order.
func (g StudentGroup) SessionIDs() []int64 {
	ids := make([]int64, len(g.Sessions))
	for i, s := range g.Sessions {
		ids[i] = s.ID
	}
	return ids
}

// Groups maps student id to group and remembers first-seen order.
type Groups struct {
	order []int64
	byID  map[int64]*StudentGroup
}

// GroupByStudent makes a single pass over records in the order supplied. A
// group is seeded from the first record seen for its student; every record
// adds to the running totals and ANDs its paid flag into AllPaid. Nothing is
// validated: negative or zero fields pass straight through.
func GroupByStudent(records []SessionRecord) Groups {
	g := Groups{byID: make(map[int64]*StudentGroup)}
	for _, r := range records {
		grp, ok := g.byID[r.StudentID]
		if !ok {
			grp = &StudentGroup{
				StudentID:    r.StudentID,
				StudentName:  r.StudentName,
				PricePerHour: r.PricePerHour,
				AllPaid:      true,
			}
			g.byID[r.StudentID] = grp
			g.order = append(g.order, r.StudentID)
		}
		grp.Sessions = append(grp.Sessions, r)
		grp.TotalSessions += r.Sessions
		grp.TotalHours += r.Hours
		grp.TotalAmount = grp.TotalAmount.Add(r.TotalAmount)
		if !r.Paid() {
			grp.AllPaid = false
		}
	}
	for _, grp := range g.byID {
		sort.SliceStable(grp.Sessions, func(i, j int) bool {
			return grp.Sessions[i].SessionDate.Before(grp.Sessions[j].SessionDate)
		})
	}
	return g
}

// Len returns the number of groups.
func (g Groups) Len() int {
	return len(g.order)
}

// Keys returns student ids in first-seen order.
func (g Groups) Keys() []int64 {
	return append([]int64(nil), g.order...)
}

// Has reports whether studentID has a group.
func (g Groups) Has(studentID int64) bool {
	_, ok := g.byID[studentID]
	return ok
}

// Get returns a copy of the group for studentID.
func (g Groups) Get(studentID int64) (StudentGroup, bool) {
	grp, ok := g.byID[studentID]
	if !ok {
		return StudentGroup{}, false
	}
	out := *grp
	out.Sessions = append([]SessionRecord(nil), grp.Sessions...)
	return out, true
}

// Ordered returns copies of all groups in display order.
func (g Groups) Ordered() []StudentGroup {
	out := make([]StudentGroup, 0, len(g.order))
	for _, id := range g.order {
		grp, _ := g.Get(id)
		out = append(out, grp)
	}
	return out
}

// Totals is a sum over several groups.
type Totals struct {
	Sessions int   `json:"totalSessions"`
	Hours    int   `json:"totalHours"`
	Amount   Money `json:"totalAmount"`
}

// CombinedTotals sums the groups of the given students. Ids without a group
// contribute nothing.
func CombinedTotals(groups Groups, studentIDs []int64) Totals {
	var t Totals
	for _, id := range studentIDs {
		grp, ok := groups.byID[id]
		if !ok {
			continue
		}
		t.Sessions += grp.TotalSessions
		t.Hours += grp.TotalHours
		t.Amount = t.Amount.Add(grp.TotalAmount)
	}
	return t
}
