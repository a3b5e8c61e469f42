package core

// MonthSummary is the headline of a month view.
type MonthSummary struct {
	Month         Month `json:"month"`
	TotalSessions int   `json:"totalSessions"`
	TotalPaid     Money `json:"totalPaid"`
	TotalUnpaid   Money `json:"totalUnpaid"`
	Students      int   `json:"students"`
}

// SummarizeMonth totals a month's records by payment state.
func SummarizeMonth(month Month, records []SessionRecord) MonthSummary {
	s := MonthSummary{Month: month}
	seen := make(map[int64]struct{})
	for _, r := range records {
		s.TotalSessions += r.Sessions
		if r.Paid() {
			s.TotalPaid = s.TotalPaid.Add(r.TotalAmount)
		} else {
			s.TotalUnpaid = s.TotalUnpaid.Add(r.TotalAmount)
		}
		seen[r.StudentID] = struct{}{}
	}
	s.Students = len(seen)
	return s
}
