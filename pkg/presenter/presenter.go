// Package presenter writes the JSON response envelope used by all
// controllers: a stable status/message/data/errors shape carrying the
// request URN for correlation.
package presenter

import (
	"encoding/json"
	"net/http"

	"github.com/apiforge/apiforge/pkg/reqctx"
	"github.com/apiforge/apiforge/pkg/validation"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Status     string       `json:"status"`
	Message    string       `json:"message,omitempty"`
	Data       any          `json:"data,omitempty"`
	Errors     []FieldIssue `json:"errors,omitempty"`
	RequestURN string       `json:"request_urn,omitempty"`
}

// FieldIssue is one validation problem in an error envelope.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func write(w http.ResponseWriter, r *http.Request, statusCode int, env Envelope) {
	env.RequestURN = reqctx.URN(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// The header is already committed, so an encode failure here can only
	// truncate the body.
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	write(w, r, http.StatusOK, Envelope{Status: "success", Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, r *http.Request, data any) {
	write(w, r, http.StatusCreated, Envelope{Status: "success", Data: data})
}

// NoContent writes a 204 with an empty body.
func NoContent(w http.ResponseWriter, r *http.Request) {
	if urn := reqctx.URN(r.Context()); urn != "" {
		w.Header().Set("X-Request-URN", urn)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope with the given status and message.
func Error(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	write(w, r, statusCode, Envelope{Status: "error", Message: message})
}

// ValidationFailed writes a 422 envelope listing each field problem.
func ValidationFailed(w http.ResponseWriter, r *http.Request, err error) {
	issues := make([]FieldIssue, 0)
	for _, fe := range validation.FieldErrors(err) {
		issues = append(issues, FieldIssue{Field: fe.Field, Message: fe.Message})
	}
	write(w, r, http.StatusUnprocessableEntity, Envelope{
		Status:  "error",
		Message: "validation failed",
		Errors:  issues,
	})
}
