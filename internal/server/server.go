// Package server exposes trading environment sessions over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/session"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"go.uber.org/zap"
)

// TokenHeader carries the session token on every session-scoped request.
const TokenHeader = "X-Session-Token"

// Sessions is the session API served over HTTP.
type Sessions interface {
	Create(ctx context.Context, params session.CreateParams) (session.CreateResult, error)
	Step(ctx context.Context, token string, value int) (types.StepResult, error)
	Reset(ctx context.Context, token string) (types.Observation, error)
	Get(ctx context.Context, token string) (session.State, error)
	Delete(ctx context.Context, token string) error
}

// CreateRequest is the body of POST /sessions.
type CreateRequest struct {
	Symbol         string   `json:"symbol"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	InitialBalance *float64 `json:"initial_balance,omitempty"`
}

// StepRequest is the body of POST /sessions/step.
type StepRequest struct {
	Action *int `json:"action"`
}

// ResetResponse is returned by POST /sessions/reset.
type ResetResponse struct {
	Observation types.Observation `json:"observation"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Server serves the session API.
type Server struct {
	sessions   Sessions
	router     *mux.Router
	httpServer *http.Server
	listener   net.Listener
	logger     *logger.Logger
}

// New creates a Server and registers its routes.
func New(sessions Sessions, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}

	s := &Server{
		sessions:   sessions,
		router:     mux.NewRouter(),
		httpServer: nil,
		listener:   nil,
		logger:     log,
	}

	s.router.Use(requestLogger(log))
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions", s.handleCreate).Methods(http.MethodPost)
	s.router.HandleFunc("/sessions", s.handleGet).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions", s.handleDelete).Methods(http.MethodDelete)
	s.router.HandleFunc("/sessions/step", s.handleStep).Methods(http.MethodPost)
	s.router.HandleFunc("/sessions/reset", s.handleReset).Methods(http.MethodPost)

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on address and serves in the background.
// An empty address or ":0" picks a free port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", address)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("HTTP server listening", zap.String("address", s.Address()))

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	params, err := req.toParams()
	if err != nil {
		s.writeError(w, err)

		return
	}

	result, err := s.sessions.Create(r.Context(), params)
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}

	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	if req.Action == nil {
		s.writeError(w, errors.New(errors.ErrCodeMissingParameter, "action is required"))

		return
	}

	result, err := s.sessions.Step(r.Context(), token, *req.Action)
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}

	observation, err := s.sessions.Reset(r.Context(), token)
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, ResetResponse{Observation: observation})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}

	state, err := s.sessions.Get(r.Context(), token)
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}

	if err := s.sessions.Delete(r.Context(), token); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.Header.Get(TokenHeader)
	if token == "" {
		s.writeError(w, errors.New(errors.ErrCodeMissingParameter, "session token missing in headers"))

		return "", false
	}

	return token, true
}

func (req CreateRequest) toParams() (session.CreateParams, error) {
	start, err := time.Parse(types.DateLayout, req.Start)
	if err != nil {
		return session.CreateParams{}, errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid start date %q", req.Start)
	}

	end, err := time.Parse(types.DateLayout, req.End)
	if err != nil {
		return session.CreateParams{}, errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid end date %q", req.End)
	}

	balance := optional.None[float64]()
	if req.InitialBalance != nil {
		balance = optional.Some(*req.InitialBalance)
	}

	return session.CreateParams{
		Symbol:         req.Symbol,
		Start:          start,
		End:            end,
		InitialBalance: balance,
	}, nil
}

// StatusCode maps an error to the HTTP status it is reported with.
func StatusCode(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidParameter, errors.ErrCodeMissingParameter, errors.ErrCodeInvalidAction,
		errors.ErrCodeInvalidDate, errors.ErrCodeInvalidConfiguration:
		return http.StatusBadRequest
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInsufficientData, errors.ErrCodeNoData, errors.ErrCodeInvalidPrice, errors.ErrCodeEpisodeFinished:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUpstream, errors.ErrCodeMarketDataFetchFailed, errors.ErrCodeCredentialRequired:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{Message: err.Error(), Code: int(errors.GetCode(err))})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
