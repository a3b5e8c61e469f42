// This file implements utilities for parsing and validating request data:
// path parameters and JSON bodies checked with validator tags.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"tutorbill/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseIDParam reads a positive integer path variable.
func ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: name, Reason: fmt.Errorf("invalid id %q", raw)}
	}
	return id, nil
}

// ParseIntParam reads a signed integer path variable.
func ParseIntParam(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &core.ValidationError{Field: name, Reason: fmt.Errorf("invalid number %q", raw)}
	}
	return n, nil
}

// ParseMonthParam reads a YYYY-MM path variable.
func ParseMonthParam(r *http.Request, name string) (core.Month, error) {
	m, err := core.ParseMonth(mux.Vars(r)[name])
	if err != nil {
		return core.Month{}, &core.ValidationError{Field: name, Reason: err}
	}
	return m, nil
}

// DecodeJSON reads a JSON body into dst and validates it. Unknown fields,
// trailing data and bodies over maxBodyBytes are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &core.ValidationError{Reason: errors.New("request body is empty")}
		}
		return &core.ValidationError{Reason: fmt.Errorf("malformed JSON: %w", err)}
	}
	if dec.More() {
		return &core.ValidationError{Reason: errors.New("request body must hold a single JSON value")}
	}
	return ValidatePayload(dst)
}

// ValidatePayload runs validator tags and reports the first failing field.
func ValidatePayload(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &core.ValidationError{
			Field:  fe.Field(),
			Reason: fmt.Errorf("failed %q constraint", fe.Tag()),
		}
	}
	return &core.ValidationError{Reason: err}
}
