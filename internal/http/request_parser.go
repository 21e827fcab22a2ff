// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// path ids, listing filters and JSON bodies.

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

	"vulekamali/internal/core"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	// maxBodyBytes bounds JSON request bodies.
	maxBodyBytes = 1 << 20
)

var errEmptyBody = errors.New("empty body")

// ParseProjectID reads the {id} path value.
func ParseProjectID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: project id %q", core.ErrInvalidInput, raw)
	}
	return id, nil
}

// ParseProjectFilter reads listing filters and paging from a query string.
// Limit defaults to 50 and is capped at 500.
func ParseProjectFilter(query url.Values) (core.ProjectFilter, error) {
	f := core.ProjectFilter{
		Sphere:     core.Sphere(strings.ToLower(sanitizeInput(query.Get("sphere")))),
		Province:   sanitizeInput(query.Get("province")),
		Department: sanitizeInput(query.Get("department")),
		Query:      sanitizeInput(query.Get("q")),
		Limit:      defaultPageSize,
	}
	if f.Sphere != "" && !f.Sphere.IsValid() {
		return core.ProjectFilter{}, fmt.Errorf("%w: %w: %q", core.ErrInvalidInput, core.ErrInvalidSphere, f.Sphere)
	}

	var err error
	if f.Limit, err = intParam(query, "limit", defaultPageSize); err != nil {
		return core.ProjectFilter{}, err
	}
	if f.Limit < 1 {
		return core.ProjectFilter{}, fmt.Errorf("%w: limit must be positive", core.ErrInvalidInput)
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset, err = intParam(query, "offset", 0); err != nil {
		return core.ProjectFilter{}, err
	}
	if f.Offset < 0 {
		return core.ProjectFilter{}, fmt.Errorf("%w: offset must not be negative", core.ErrInvalidInput)
	}
	return f, nil
}

func intParam(query url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", core.ErrInvalidInput, name, v)
	}
	return n, nil
}

// DecodeJSONBody decodes a single JSON value into dst, rejecting unknown
// fields and trailing data.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", core.ErrInvalidInput, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: %w", core.ErrInvalidInput, errEmptyBody)
		default:
			return fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: body must hold a single JSON object", core.ErrInvalidInput)
	}
	return nil
}

// importRequest is the optional body of POST /api/v1/imports.
type importRequest struct {
	ProjectID string `json:"project_id"`
}

// ParseImportRequest accepts an empty body or {"project_id": "<external id>"}.
func ParseImportRequest(w http.ResponseWriter, r *http.Request) (importRequest, error) {
	var req importRequest
	if r.ContentLength == 0 {
		return req, nil
	}
	if err := DecodeJSONBody(w, r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			return importRequest{}, nil
		}
		return importRequest{}, err
	}
	req.ProjectID = sanitizeInput(req.ProjectID)
	return req, nil
}
