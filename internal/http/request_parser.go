// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// bounded JSON bodies, amounts that arrive as numbers or strings, dates and
// path ids.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moneymind/internal/core"
)

// MaxBodyBytes bounds every JSON request body.
const MaxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed JSON body")

// DecodeJSON reads a single JSON value from the request body into dst.
// Unknown fields are ignored, since clients echo whole records back on
// update.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return core.Invalid("body", fmt.Sprintf("must not exceed %d bytes", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return core.Invalid("body", "is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.Invalid(typeErr.Field, "has the wrong type")
		}
		var fieldErr *fieldError
		if errors.As(err, &fieldErr) {
			return core.Invalid(fieldErr.field, fieldErr.reason)
		}
		return fmt.Errorf("%w: %w", core.ErrValidation, errMalformedBody)
	}
	if dec.More() {
		return fmt.Errorf("%w: %w", core.ErrValidation, errMalformedBody)
	}
	return nil
}

// fieldError lets a custom unmarshaller name the field it rejected.
type fieldError struct {
	field, reason string
}

func (e *fieldError) Error() string { return e.field + " " + e.reason }

// Amount is a money value that accepts 12.5, "12.5" and "12,50" on the
// wire. A missing or null amount is left unset.
type Amount struct {
	Money core.Money
	Set   bool
	field string
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	m, err := core.ParseMoney(raw)
	if err != nil {
		return &fieldError{field: a.fieldName(), reason: "must be a non-negative number"}
	}
	a.Money = m
	a.Set = true
	return nil
}

func (a *Amount) fieldName() string {
	if a.field == "" {
		return "amount"
	}
	return a.field
}

// named returns an Amount that reports errors under field.
func named(field string) Amount {
	return Amount{field: field}
}

// ParseDateField parses a calendar date. Empty input yields the zero Date,
// which domain validation reports as missing.
func ParseDateField(field, s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.Invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

// PathID parses the {id} wildcard. Anything but a positive integer is
// reported as not found so ids cannot be enumerated.
func PathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// ParseYear reads ?year=, defaulting to the current year. An explicit 0
// folds every year together.
func ParseYear(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("year"))
	if v == "" {
		return time.Now().UTC().Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 0 || y > 9999 {
		return 0, core.Invalid("year", "must be a year between 0 and 9999")
	}
	return y, nil
}

// sanitizeInput removes control characters other than tab and newlines and
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
