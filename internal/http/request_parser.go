// Package http provides the JSON API server and its handlers.
//
// This file implements the helpers that read and validate request input:
// JSON bodies, year/month query parameters and list filters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"brastech/internal/core"
)

// maxBodyBytes bounds every JSON body the API accepts.
const maxBodyBytes = 1 << 20

// MonthParams holds a year and an optional month taken from the query.
type MonthParams struct {
	Year  int
	Month int
}

// decodeJSON reads one JSON value from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// ParseMonthParams reads year and month from query, defaulting to the
// year and month of today. A malformed value is an error rather than a
// silent default.
func ParseMonthParams(query url.Values, today core.Day) (MonthParams, error) {
	y, m, ok := today.YearMonth()
	if !ok {
		return MonthParams{}, fmt.Errorf("%w: clock returned %q", core.ErrInvalidDate, today)
	}
	params := MonthParams{Year: y, Month: m}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 1900 || year > 9999 {
			return MonthParams{}, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
		}
		params.Year = year
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return MonthParams{}, fmt.Errorf("%w: invalid month %q", errBadRequest, v)
		}
		params.Month = month
	}
	return params, nil
}

// TransactionFilter narrows the transaction list. Zero fields match all.
type TransactionFilter struct {
	Year   int
	Month  int
	Type   core.TransactionType
	Status core.Status
	Search string
}

// ParseTransactionFilter reads the list filters. month requires year.
func ParseTransactionFilter(query url.Values) (TransactionFilter, error) {
	var f TransactionFilter
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 1900 || year > 9999 {
			return f, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
		}
		f.Year = year
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return f, fmt.Errorf("%w: invalid month %q", errBadRequest, v)
		}
		if f.Year == 0 {
			return f, fmt.Errorf("%w: month requires year", errBadRequest)
		}
		f.Month = month
	}
	if v := strings.ToUpper(strings.TrimSpace(query.Get("type"))); v != "" {
		f.Type = core.TransactionType(v)
		if !f.Type.IsValid() {
			return f, fmt.Errorf("%w: %q", core.ErrInvalidType, v)
		}
	}
	if v := strings.ToUpper(strings.TrimSpace(query.Get("status"))); v != "" {
		f.Status = core.Status(v)
		if !f.Status.IsValid() {
			return f, fmt.Errorf("%w: %q", core.ErrInvalidStatus, v)
		}
	}
	f.Search = strings.ToLower(sanitizeInput(query.Get("q")))
	return f, nil
}

// Match reports whether tx passes every set filter. Records with a
// malformed date never match a period filter.
func (f TransactionFilter) Match(tx core.Transaction) bool {
	if f.Year != 0 {
		y, m, ok := tx.Date.YearMonth()
		if !ok || y != f.Year || (f.Month != 0 && m != f.Month) {
			return false
		}
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.Search != "" {
		hay := strings.ToLower(tx.Description + " " + tx.Entity + " " + tx.Category)
		if !strings.Contains(hay, f.Search) {
			return false
		}
	}
	return true
}

// pathID returns the {id} path value or a bad request error.
func pathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", fmt.Errorf("%w: missing id", errBadRequest)
	}
	return id, nil
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
