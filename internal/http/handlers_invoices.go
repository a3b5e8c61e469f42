package http

import (
	"net/http"

	"tutorbill/internal/log"
	"tutorbill/internal/services"
)

const pdfContentType = "application/pdf"

func (s *Server) handleSingleInvoice(w http.ResponseWriter, r *http.Request) {
	studentID, err := ParseIDParam(r, "studentId")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	inv, err := s.view.GenerateSingle(r.Context(), studentID)
	s.respondWithInvoice(w, r, inv, err)
}

func (s *Server) handleCombinedInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.view.GenerateCombined(r.Context())
	s.respondWithInvoice(w, r, inv, err)
}

func (s *Server) respondWithInvoice(w http.ResponseWriter, r *http.Request, inv services.Invoice, err error) {
	if err != nil {
		s.logFailure(r, "generate invoice", log.OpGenerate, err)
		ErrorFrom(err).Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Invoice downloaded",
		log.NewFields().
			WithInvoice(inv.Request.Month.String(), inv.Request.Participants(), len(inv.Request.SessionRecordIDs), inv.Filename).
			ToSlice()...)
	NewResponse().Attachment(pdfContentType, inv.Filename, inv.Data).Write(w)
}
