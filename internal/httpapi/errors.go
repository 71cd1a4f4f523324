package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/spigell/interview-coach/internal/interview"
)

// errorBody is the JSON error envelope. Code survives the round trip so the
// client can map it back to the sentinel error.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type errorMapping struct {
	err    error
	code   string
	status int
}

var errorTable = []errorMapping{
	{interview.ErrSessionNotFound, "session_not_found", http.StatusNotFound},
	{interview.ErrAlreadyStarted, "already_started", http.StatusConflict},
	{interview.ErrSessionClosed, "session_closed", http.StatusConflict},
	{interview.ErrNoActiveQuestion, "no_active_question", http.StatusConflict},
	{interview.ErrDuplicateResult, "duplicate_result", http.StatusConflict},
	{interview.ErrReportNotReady, "report_not_ready", http.StatusConflict},
	{interview.ErrInvalidTransition, "invalid_transition", http.StatusUnprocessableEntity},
	{interview.ErrEmptyResponse, "empty_response", http.StatusBadRequest},
	{interview.ErrQuestionBankExhausted, "question_bank_exhausted", http.StatusInternalServerError},
	{context.Canceled, "canceled", http.StatusServiceUnavailable},
	{context.DeadlineExceeded, "deadline_exceeded", http.StatusGatewayTimeout},
}

func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ""
}

func sentinel(code string) error {
	for _, m := range errorTable {
		if m.code == code {
			return m.err
		}
	}
	return nil
}
