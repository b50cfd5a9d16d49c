// Package http exposes a questionnaire engine over a small JSON REST API.
//
// Flows are addressed by session id. Creating a flow without an id assigns a
// random one; creating or fetching a flow whose id already has a persisted
// snapshot resumes it.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

// Server serves a single questionnaire and tracks the flows opened against it.
type Server struct {
	engine *canopy.Engine
	logger *slog.Logger

	mu    sync.Mutex
	flows map[string]*canopy.Flow

	metrics http.Handler
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts the given handler at GET /metrics. Pass a
// promhttp handler bound to the registry the engine's metrics hooks report to.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates an HTTP handler for the engine.
func NewHandler(engine *canopy.Engine, opts ...Option) http.Handler {
	server := &Server{
		engine: engine,
		logger: logging.NewNop(),
		flows:  make(map[string]*canopy.Flow),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/health", server.getHealth)
	r.Get("/questionnaire", server.getQuestionnaire)
	r.Post("/flows", server.createFlow)
	r.Route("/flows/{sessionID}", func(r chi.Router) {
		r.Get("/", server.getFlow)
		r.Delete("/", server.deleteFlow)
		r.Post("/answer", server.postAnswer)
		r.Post("/next", server.postNext)
		r.Post("/previous", server.postPrevious)
		r.Post("/skip", server.postSkip)
		r.Post("/flag", server.postFlag)
	})
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Wire types --

// CreateFlowRequest optionally pins the session id of a new flow.
type CreateFlowRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// AnswerRequest records or replaces the answer to one question.
type AnswerRequest struct {
	QuestionID string `json:"question_id"`
	Value      any    `json:"value"`
}

// FlagRequest toggles the review flag on one question.
type FlagRequest struct {
	QuestionID string `json:"question_id"`
}

// QuestionView is the wire form of a question.
type QuestionView struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Text        string         `json:"text"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required"`
	Config      map[string]any `json:"config,omitempty"`
}

// FlowState is the wire form of a flow, returned by every flow endpoint.
type FlowState struct {
	SessionID       string            `json:"session_id"`
	QuestionnaireID string            `json:"questionnaire_id"`
	Index           int               `json:"index"`
	Completed       bool              `json:"completed"`
	Validating      bool              `json:"validating"`
	Current         *QuestionView     `json:"current,omitempty"`
	Visible         []QuestionView    `json:"visible"`
	Answers         map[string]any    `json:"answers"`
	Errors          map[string]string `json:"errors"`
	Flagged         []string          `json:"flagged"`
	Moved           *bool             `json:"moved,omitempty"`
}

// -- Handlers --

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getQuestionnaire(w http.ResponseWriter, r *http.Request) {
	qn := s.engine.Questionnaire()
	views := make([]QuestionView, len(qn.Questions))
	for i, q := range qn.Questions {
		views[i] = mapQuestion(q)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":        qn.ID,
		"title":     qn.Title,
		"questions": views,
	})
}

func (s *Server) createFlow(w http.ResponseWriter, r *http.Request) {
	var body CreateFlowRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("createFlow: invalid request body", "err", err)
			return
		}
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.mu.Lock()
	flow, ok := s.flows[sessionID]
	if !ok {
		var err error
		flow, err = s.engine.StartSession(r.Context(), sessionID)
		if err != nil {
			s.mu.Unlock()
			http.Error(w, fmt.Sprintf("Start error: %v", err), http.StatusInternalServerError)
			s.logger.Error("createFlow: start failed", "session_id", sessionID, "err", err)
			return
		}
		s.flows[sessionID] = flow
	}
	s.mu.Unlock()

	s.logger.Info("flow opened", "session_id", sessionID)
	s.writeJSON(w, http.StatusCreated, s.state(flow, nil))
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.state(flow, nil))
}

func (s *Server) deleteFlow(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	flow, ok := s.flows[sessionID]
	delete(s.flows, sessionID)
	s.mu.Unlock()

	if !ok {
		http.Error(w, "Flow not found", http.StatusNotFound)
		return
	}

	if err := flow.Save(r.Context()); err != nil {
		s.logger.Error("deleteFlow: save failed", "session_id", sessionID, "err", err)
	}
	flow.Close()
	s.logger.Info("flow closed", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postAnswer(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("postAnswer: invalid request body", "err", err)
		return
	}

	if err := flow.Answer(r.Context(), body.QuestionID, body.Value); err != nil {
		switch {
		case errors.Is(err, domain.ErrFlowComplete):
			http.Error(w, "Flow already completed", http.StatusConflict)
		case errors.Is(err, domain.ErrUnknownQuestion):
			http.Error(w, fmt.Sprintf("Unknown question: %s", body.QuestionID), http.StatusBadRequest)
		default:
			http.Error(w, fmt.Sprintf("Answer error: %v", err), http.StatusInternalServerError)
			s.logger.Error("postAnswer failed", "question_id", body.QuestionID, "err", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, s.state(flow, nil))
}

func (s *Server) postNext(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.lookup(w, r)
	if !ok {
		return
	}
	moved := flow.Next(r.Context())
	s.writeJSON(w, http.StatusOK, s.state(flow, &moved))
}

func (s *Server) postPrevious(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.lookup(w, r)
	if !ok {
		return
	}
	moved := flow.Previous(r.Context())
	s.writeJSON(w, http.StatusOK, s.state(flow, &moved))
}

func (s *Server) postSkip(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.lookup(w, r)
	if !ok {
		return
	}
	moved := flow.Skip(r.Context())
	s.writeJSON(w, http.StatusOK, s.state(flow, &moved))
}

func (s *Server) postFlag(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body FlagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("postFlag: invalid request body", "err", err)
		return
	}

	if err := flow.ToggleFlag(r.Context(), body.QuestionID); err != nil {
		if errors.Is(err, domain.ErrUnknownQuestion) {
			http.Error(w, fmt.Sprintf("Unknown question: %s", body.QuestionID), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Flag error: %v", err), http.StatusInternalServerError)
		s.logger.Error("postFlag failed", "question_id", body.QuestionID, "err", err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.state(flow, nil))
}

// lookup resolves the flow named by the URL, resuming a persisted session on
// first contact. Writes the error response itself when the flow is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*canopy.Flow, bool) {
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	defer s.mu.Unlock()

	if flow, ok := s.flows[sessionID]; ok {
		return flow, true
	}

	// A snapshot may exist from a previous process. Only resume, never create.
	if s.engine.Sessions() != nil {
		if _, err := s.engine.Sessions().Load(r.Context(), sessionID); err == nil {
			flow, err := s.engine.StartSession(r.Context(), sessionID)
			if err != nil {
				http.Error(w, fmt.Sprintf("Resume error: %v", err), http.StatusInternalServerError)
				s.logger.Error("lookup: resume failed", "session_id", sessionID, "err", err)
				return nil, false
			}
			s.flows[sessionID] = flow
			s.logger.Info("flow resumed", "session_id", sessionID)
			return flow, true
		}
	}

	http.Error(w, "Flow not found", http.StatusNotFound)
	return nil, false
}

func (s *Server) state(flow *canopy.Flow, moved *bool) FlowState {
	snap := flow.Snapshot()

	state := FlowState{
		SessionID:       flow.SessionID(),
		QuestionnaireID: s.engine.Questionnaire().ID,
		Index:           snap.CurrentIndex,
		Completed:       snap.Completed,
		Validating:      flow.Validating(),
		Answers:         snap.Answers,
		Errors:          flow.Errors(),
		Flagged:         snap.Flagged,
		Moved:           moved,
	}

	visible := flow.Visible()
	state.Visible = make([]QuestionView, len(visible))
	for i, q := range visible {
		state.Visible[i] = mapQuestion(q)
	}
	if q, ok := flow.Current(); ok {
		view := mapQuestion(q)
		state.Current = &view
	}
	return state
}

func mapQuestion(q domain.Question) QuestionView {
	return QuestionView{
		ID:          q.ID,
		Type:        q.Type,
		Text:        q.Text,
		Description: q.Description,
		Required:    q.Required,
		Config:      q.Config,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
