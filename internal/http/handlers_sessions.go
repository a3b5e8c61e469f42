package http

import (
	"net/http"

	"tutorbill/internal/log"
	"tutorbill/internal/records"
)

func (s *Server) handleTogglePayment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	rec, err := s.view.TogglePayment(r.Context(), id)
	if err != nil {
		s.logFailure(r, "toggle payment", log.OpToggle, err)
		ErrorFrom(err).Write(w)
		return
	}
	NewResponse().JSON(rec).Write(w)
}

func (s *Server) handleToggleGroupPayment(w http.ResponseWriter, r *http.Request) {
	studentID, err := ParseIDParam(r, "studentId")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	res, err := s.view.ToggleGroupPayment(r.Context(), studentID)
	if err != nil {
		s.logFailure(r, "toggle group payment", log.OpToggle, err)
		ErrorFrom(err).Write(w)
		return
	}
	NewResponse().JSON(res).Write(w)
}

type toggleRecordsPayload struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=500,dive,gt=0"`
}

// handleToggleRecords retries toggling an explicit set of records, usually
// the failed ids of a partial group toggle.
func (s *Server) handleToggleRecords(w http.ResponseWriter, r *http.Request) {
	var p toggleRecordsPayload
	if err := DecodeJSON(w, r, &p); err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	res, err := s.view.ToggleRecords(r.Context(), p.IDs)
	if err != nil {
		s.logFailure(r, "toggle records", log.OpToggle, err)
		ErrorFrom(err).Write(w)
		return
	}
	NewResponse().JSON(res).Write(w)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	if err := s.view.DeleteRecord(r.Context(), id); err != nil {
		s.logFailure(r, "delete session", log.OpDelete, err)
		ErrorFrom(err).Write(w)
		return
	}
	NewResponse().JSON(s.view.Snapshot()).Write(w)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.creator == nil {
		ErrorResponse(http.StatusNotImplemented, "this backend does not accept new session records").Write(w)
		return
	}
	var n records.NewSessionRecord
	if err := DecodeJSON(w, r, &n); err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	n.StudentName = sanitizeInput(n.StudentName)

	rec, err := s.creator.Create(r.Context(), n)
	if err != nil {
		s.logFailure(r, "create session", log.OpCreate, err)
		ErrorFrom(err).Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Session record created",
		log.FieldRecordID, rec.ID,
		log.FieldStudentID, rec.StudentID,
		log.FieldMonth, rec.SessionDate.String())

	// A reload failure does not undo the create; the client can reload later.
	if s.view.Month().Contains(rec.SessionDate) {
		if err := s.view.Reload(r.Context()); err != nil {
			s.logFailure(r, "reload after create", log.OpRead, err)
		}
	}
	NewResponse().Status(http.StatusCreated).JSON(rec).Write(w)
}
