package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tradelens/alert-engine/internal/service/alert"
	"github.com/tradelens/alert-engine/internal/service/notification"
	"github.com/tradelens/alert-engine/internal/service/signal"
)

// Server 对外暴露批处理任务的触发入口, 由调度器或 webhook 调用
type Server struct {
	evaluator  alert.Service
	dispatcher notification.Service
	publisher  signal.Service
	token      string
}

func NewServer(evaluator alert.Service, dispatcher notification.Service, publisher signal.Service, token string) *Server {
	return &Server{
		evaluator:  evaluator,
		dispatcher: dispatcher,
		publisher:  publisher,
		token:      token,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks/evaluate", s.auth(s.handleEvaluate))
	mux.HandleFunc("/tasks/dispatch", s.auth(s.handleDispatch))
	mux.HandleFunc("/signals/publish", s.auth(s.handlePublish))
	return mux
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		got := r.Header.Get("Authorization")
		want := "Bearer " + s.token
		if s.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	res, err := s.evaluator.Evaluate(r.Context())
	if err != nil {
		slog.Error("alert evaluation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	res, err := s.dispatcher.Dispatch(r.Context())
	if err != nil {
		slog.Error("notification dispatch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req signal.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := s.publisher.Publish(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, signal.ErrInvalidSignal):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, signal.ErrNotGroupMember):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			slog.Error("signal publish failed", "error", err)
			writeError(w, http.StatusInternalServerError, "publish failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
