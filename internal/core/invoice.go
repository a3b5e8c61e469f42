package core

import "fmt"

// InvoiceRequest asks the external generator for one invoice artifact.
type InvoiceRequest struct {
	// PrimaryStudentID is only a nominal reference for combined invoices: the
	// generator still expects a single student id.
	PrimaryStudentID   int64   `json:"studentId"`
	Month              Month   `json:"month"`
	SessionRecordIDs   []int64 `json:"sessionRecordIds"`
	MultipleStudents   bool    `json:"multipleStudents"`
	SelectedStudentIDs []int64 `json:"selectedStudentIds,omitempty"`
}

// Participants is the number of students the invoice covers.
func (r InvoiceRequest) Participants() int {
	if r.MultipleStudents {
		return len(r.SelectedStudentIDs)
	}
	return 1
}

// Filename is the download name for the request's artifact.
func (r InvoiceRequest) Filename() string {
	return InvoiceFilename(r.Month, r.Participants())
}

// BuildSingle builds the request for one student's invoice using every
// session of the student's group in presentation order.
func BuildSingle(month Month, studentID int64, groups Groups) (InvoiceRequest, error) {
	grp, ok := groups.byID[studentID]
	if !ok {
		return InvoiceRequest{}, invalid("studentId", fmt.Errorf("%w: %d", ErrUnknownStudent, studentID))
	}
	if len(grp.Sessions) == 0 {
		return InvoiceRequest{}, invalid("sessionRecordIds", ErrNoSessions)
	}
	return InvoiceRequest{
		PrimaryStudentID: studentID,
		Month:            month,
		SessionRecordIDs: grp.SessionIDs(),
	}, nil
}

// BuildCombined builds a multi-student request. Session ids are concatenated
// in the order of selected; selected students without a group add nothing.
// The first selected id doubles as PrimaryStudentID.
func BuildCombined(month Month, selected []int64, groups Groups) (InvoiceRequest, error) {
	if len(selected) == 0 {
		return InvoiceRequest{}, invalid("selectedStudentIds", ErrEmptySelection)
	}

	var ids []int64
	for _, studentID := range selected {
		grp, ok := groups.byID[studentID]
		if !ok {
			continue
		}
		ids = append(ids, grp.SessionIDs()...)
	}
	if len(ids) == 0 {
		return InvoiceRequest{}, invalid("sessionRecordIds", ErrNoSessions)
	}

	return InvoiceRequest{
		PrimaryStudentID:   selected[0],
		Month:              month,
		SessionRecordIDs:   ids,
		MultipleStudents:   true,
		SelectedStudentIDs: append([]int64(nil), selected...),
	}, nil
}

// InvoiceFilename names the downloaded artifact. One participant gets the
// plain monthly name; otherwise the participant count is embedded.
func InvoiceFilename(month Month, participants int) string {
	if participants == 1 {
		return fmt.Sprintf("Bao-Gia-%s.pdf", month)
	}
	return fmt.Sprintf("Bao-Gia-%s-%d-hoc-sinh.pdf", month, participants)
}
