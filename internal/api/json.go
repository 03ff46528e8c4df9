package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"kennelcore/internal/blob"
	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error      string          `json:"error"`
	Entity     string          `json:"entity,omitempty"`
	Field      string          `json:"field,omitempty"`
	Violations []violationJSON `json:"violations,omitempty"`
}

type violationJSON struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Entity   string `json:"entity,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
}

func violations(res domain.Result) []violationJSON {
	if len(res.Violations) == 0 {
		return nil
	}
	out := make([]violationJSON, len(res.Violations))
	for i, v := range res.Violations {
		out[i] = violationJSON{
			Rule:     v.Rule,
			Severity: string(v.Severity),
			Message:  v.Message,
			Entity:   string(v.Entity),
			EntityID: v.EntityID,
		}
	}
	return out
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// mutation wraps the result of a write with any non-blocking rule warnings.
type mutation struct {
	Data     any             `json:"data"`
	Warnings []violationJSON `json:"warnings,omitempty"`
}

func writeMutation(w http.ResponseWriter, status int, data any, res domain.Result) {
	writeJSON(w, status, mutation{Data: data, Warnings: violations(res)})
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *domain.ValidationError
		perr *domain.PolicyError
		rerr domain.RuleViolationError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: verr.Message, Entity: string(verr.Entity), Field: verr.Field})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, core.ErrNoDocumentContent):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.As(err, &perr):
		writeJSON(w, http.StatusConflict, errResponse{Error: perr.Reason, Entity: string(perr.Entity)})
	case errors.As(err, &rerr):
		writeJSON(w, http.StatusConflict, errResponse{Error: rerr.Error(), Violations: violations(rerr.Result)})
	case errors.Is(err, core.ErrNoBlobStore):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	case errors.Is(err, blob.ErrUnsupported):
		writeJSON(w, http.StatusNotImplemented, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("invalid JSON body: %v", err)))
		return false
	}
	return true
}
