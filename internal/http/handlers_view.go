package http

import (
	"errors"
	"net/http"

	"tutorbill/internal/log"
	"tutorbill/internal/services"
)

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.view.Snapshot()).Write(w)
}

func (s *Server) handleChangeMonth(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r, "month")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	s.respondWithView(w, r, "change month", s.view.ChangeMonth(r.Context(), month))
}

func (s *Server) handleShiftMonth(w http.ResponseWriter, r *http.Request) {
	delta, err := ParseIntParam(r, "delta")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	s.respondWithView(w, r, "shift month", s.view.ShiftMonth(r.Context(), delta))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.respondWithView(w, r, "reload", s.view.Reload(r.Context()))
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	studentID, err := ParseIDParam(r, "studentId")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	if err := s.view.ToggleSelection(studentID); err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewResponse().JSON(s.view.Snapshot()).Write(w)
}

func (s *Server) handleToggleSelectAll(w http.ResponseWriter, r *http.Request) {
	s.view.ToggleSelectAll()
	NewResponse().JSON(s.view.Snapshot()).Write(w)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.view.ClearSelection()
	NewResponse().JSON(s.view.Snapshot()).Write(w)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	if s.months == nil {
		NotFoundError("month listing is not supported by this backend").Write(w)
		return
	}
	months, err := s.months.Months(r.Context())
	if err != nil {
		s.logFailure(r, "list months", log.OpRead, err)
		ErrorFrom(err).Write(w)
		return
	}
	labels := make([]monthEntry, len(months))
	for i, m := range months {
		labels[i] = monthEntry{Month: m.String(), Label: m.Label()}
	}
	NewResponse().JSON(labels).Write(w)
}

type monthEntry struct {
	Month string `json:"month"`
	Label string `json:"label"`
}

// respondWithView answers with the fresh snapshot, or with the mapped error.
func (s *Server) respondWithView(w http.ResponseWriter, r *http.Request, what string, err error) {
	if err != nil {
		if !errors.Is(err, services.ErrStale) {
			s.logFailure(r, what, log.OpRead, err)
		}
		ErrorFrom(err).Write(w)
		return
	}
	NewResponse().JSON(s.view.Snapshot()).Write(w)
}

// logFailure logs err with the request's logger, categorised like ErrorFrom.
func (s *Server) logFailure(r *http.Request, what, op string, err error) {
	log.FromContext(r.Context()).LogError(r.Context(), "Request failed: "+what, err, errorType(err), op, nil)
}
