package http

import (
	"errors"
	"strings"

	"tutorbill/internal/core"
	"tutorbill/internal/log"
	"tutorbill/internal/services"
)

// sanitizeInput removes control characters other than tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// errorType picks the log category matching ErrorFrom's status mapping.
func errorType(err error) string {
	var perr *services.PartialToggleError
	switch {
	case errors.As(err, &perr):
		return log.ErrorTypePartial
	case core.IsValidation(err):
		return log.ErrorTypeValidation
	case errors.Is(err, services.ErrStale):
		return log.ErrorTypeConflict
	case core.IsNetwork(err):
		return log.ErrorTypeNetwork
	default:
		return log.ErrorTypeInternal
	}
}
