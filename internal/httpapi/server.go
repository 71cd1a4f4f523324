// Package httpapi exposes the session API over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/render"
)

const maxBodyBytes = 64 << 10

// Sessions is the session API served by the handler.
type Sessions interface {
	Start(ctx context.Context, id string) (*interview.Prompt, error)
	Submit(ctx context.Context, id, text string) (*interview.Turn, error)
	Skip(ctx context.Context, id string) (*interview.Turn, error)
	ForceTransition(ctx context.Context, id string, target interview.Phase, justification string) (*interview.Turn, error)
	Abandon(ctx context.Context, id string) (*interview.FeedbackReport, error)
	Current(ctx context.Context, id string) (*interview.Prompt, error)
	State(ctx context.Context, id string) (*interview.SessionState, error)
	Report(ctx context.Context, id string) (*interview.FeedbackReport, error)
}

// StartRequest optionally names the session to create.
type StartRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type TransitionRequest struct {
	Phase         interview.Phase `json:"phase"`
	Justification string          `json:"justification,omitempty"`
}

// StateResponse is the session state plus its progress.
type StateResponse struct {
	State    *interview.SessionState `json:"state"`
	Progress interview.Progress      `json:"progress"`
}

type handler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewRouter returns the /v1 routes plus /health.
func NewRouter(sessions Sessions, log *zap.Logger) http.Handler {
	h := &handler{sessions: sessions, logger: logger.WithFields(log)}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", h.start).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", h.state).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/prompt", h.current).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/responses", h.submit).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/skip", h.skip).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/transition", h.transition).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/abandon", h.abandon).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/report", h.report).Methods(http.MethodGet)
	return r
}

// start handles POST /v1/sessions
func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decode(r, &req, true); err != nil {
		h.fail(w, r, err)
		return
	}
	prompt, err := h.sessions.Start(r.Context(), req.SessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prompt)
}

// state handles GET /v1/sessions/{id}
func (h *handler) state(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.State(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{State: state, Progress: state.Progress()})
}

// current handles GET /v1/sessions/{id}/prompt
func (h *handler) current(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.sessions.Current(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

// submit handles POST /v1/sessions/{id}/responses
func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decode(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	turn, err := h.sessions.Submit(r.Context(), mux.Vars(r)["id"], req.Answer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// skip handles POST /v1/sessions/{id}/skip
func (h *handler) skip(w http.ResponseWriter, r *http.Request) {
	turn, err := h.sessions.Skip(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// transition handles POST /v1/sessions/{id}/transition
func (h *handler) transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := decode(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	turn, err := h.sessions.ForceTransition(r.Context(), mux.Vars(r)["id"], req.Phase, req.Justification)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// abandon handles POST /v1/sessions/{id}/abandon
func (h *handler) abandon(w http.ResponseWriter, r *http.Request) {
	rep, err := h.sessions.Abandon(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// report handles GET /v1/sessions/{id}/report?format=json|text|yaml
func (h *handler) report(w http.ResponseWriter, r *http.Request) {
	format := render.FormatJSON
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := render.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		format = parsed
	}
	rep, err := h.sessions.Report(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var body bytes.Buffer
	if err := render.Write(&body, rep, format); err != nil {
		h.fail(w, r, err)
		return
	}

	switch format {
	case render.FormatText:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	case render.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(w); err != nil {
		h.logger.Debug("write report", zap.Error(err))
	}
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var bad badRequestError
	if errors.As(err, &bad) {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, err.Error(), code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

type badRequestError struct{ err error }

func (e badRequestError) Error() string { return "decode request: " + e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func decode(r *http.Request, target any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return badRequestError{err: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}
