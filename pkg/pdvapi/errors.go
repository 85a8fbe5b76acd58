package pdvapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
)

// UpstreamError is the cause attached to every failed PDV API call.
type UpstreamError struct {
	Endpoint string
	Path     string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdv api %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("pdv api %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) UpstreamStatus() int { return e.Status }

func (e *UpstreamError) UpstreamPath() string { return e.Path }

func unreachable(in call, err error) error {
	cause := &UpstreamError{Endpoint: in.endpoint, Path: in.path, Err: err}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "pdv api unreachable").
		WithDetails(map[string]any{"endpoint": in.endpoint, "upstream_status": 0})
}

func breakerOpen(in call, err error) error {
	cause := &UpstreamError{Endpoint: in.endpoint, Path: in.path, Err: err}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "pdv api temporarily unavailable").
		WithDetails(map[string]any{"endpoint": in.endpoint, "upstream_status": 0, "breaker": "open"})
}

// classify maps a non-2xx response onto the error taxonomy the terminal exposes.
func classify(in call, status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	cause := &UpstreamError{Endpoint: in.endpoint, Path: in.path, Status: status, Body: text}

	switch {
	case status == http.StatusUnauthorized && in.anonymous:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, "invalid username or password")
	case status == http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeSessionExpired, cause, "session expired, log in again")
	case status == http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, cause, "operator lacks permission")
	case status == http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, in.endpoint+": not found")
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, in.endpoint+": rejected by pdv api").
			WithDetails(map[string]any{"upstream_status": status, "detail": detail(body)})
	case status == http.StatusConflict:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, in.endpoint+": conflict")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, in.endpoint+": unexpected pdv api response").
			WithDetails(map[string]any{"endpoint": in.endpoint, "upstream_status": status, "body": text})
	}
}

// detail extracts FastAPI's {"detail": ...} when present.
func detail(body []byte) any {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Detail) > 0 {
		var out any
		if err := json.Unmarshal(parsed.Detail, &out); err == nil {
			return out
		}
	}
	return strings.TrimSpace(string(body))
}
