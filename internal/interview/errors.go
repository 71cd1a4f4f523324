package interview

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called on a session that already started.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrNoActiveQuestion is returned when an answer arrives without a pending question.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrSessionClosed is returned for operations on a terminal or abandoned session.
	ErrSessionClosed = errors.New("session closed")
	// ErrInvalidTransition is returned when a forced transition breaks the phase order.
	ErrInvalidTransition = errors.New("invalid phase transition")
	// ErrEvaluationTimeout marks a narrative scoring attempt that ran out of time.
	ErrEvaluationTimeout = errors.New("evaluation timed out")
	// ErrEvaluationSchemaInvalid marks a narrative scorer response that failed validation.
	ErrEvaluationSchemaInvalid = errors.New("evaluation response failed schema validation")
	// ErrQuestionBankExhausted is a configuration error: a phase has no question left to ask.
	ErrQuestionBankExhausted = errors.New("question bank exhausted")

	ErrSessionNotFound = errors.New("session not found")
	ErrDuplicateResult = errors.New("result already recorded for question")
	ErrReportNotReady  = errors.New("report not ready")
	ErrEmptyResponse   = errors.New("empty response")
)
