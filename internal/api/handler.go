package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/usecase"
)

// Server exposes the admin HTTP API for managing expressions per chat.
type Server struct {
	expressionUC *usecase.ExpressionUsecase
	server       *http.Server
	port         int
}

// NewServer creates an admin API server
func NewServer(expressionUC *usecase.ExpressionUsecase, port int) *Server {
	return &Server{
		expressionUC: expressionUC,
		port:         port,
	}
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chats/", s.handleChats)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	logrus.Infof("admin API listening on :%d", s.port)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(context.Background())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// handleChats routes /api/chats/{chatID}/... to the resource handlers.
func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/chats/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	chatID := parts[0]
	switch parts[1] {
	case "expressions":
		if len(parts) == 2 {
			s.handleExpressions(w, r, chatID)
			return
		}
		if len(parts) == 3 {
			s.handleExpression(w, r, chatID, parts[2])
			return
		}
	case "permissions":
		if len(parts) == 2 {
			s.handlePermissions(w, r, chatID)
			return
		}
	case "logs":
		if len(parts) == 2 {
			s.handleLogs(w, r, chatID)
			return
		}
	}
	http.Error(w, "invalid path", http.StatusBadRequest)
}

// handleExpressions handles GET (list) and POST (create) on the collection.
func (s *Server) handleExpressions(w http.ResponseWriter, r *http.Request, chatID string) {
	switch r.Method {
	case http.MethodGet:
		expressions, err := s.expressionUC.List(r.Context(), chatID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, map[string]interface{}{
			"chat_id":     chatID,
			"expressions": expressions,
		})
	case http.MethodPost:
		var req struct {
			TriggerType string `json:"trigger_type"`
			Trigger     string `json:"trigger"`
			Action      string `json:"action"`
			Response    string `json:"response"`
			Cooldown    int    `json:"cooldown"`
			CreatedBy   string `json:"created_by"`
			ChatName    string `json:"chat_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		expr, err := s.expressionUC.Create(r.Context(), chatID, usecase.CreateParams{
			TriggerType: req.TriggerType,
			Trigger:     req.Trigger,
			Action:      req.Action,
			Response:    req.Response,
			Cooldown:    req.Cooldown,
			CreatedBy:   req.CreatedBy,
			ChatName:    req.ChatName,
		})
		if err != nil {
			s.writeErrorStatus(w, err, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(expr)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleExpression handles GET, PATCH and DELETE on a single expression.
func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request, chatID, expressionID string) {
	switch r.Method {
	case http.MethodGet:
		expr, err := s.expressionUC.Get(r.Context(), chatID, expressionID)
		if err != nil {
			s.writeErrorStatus(w, err, http.StatusNotFound)
			return
		}
		s.writeJSON(w, expr)
	case http.MethodPatch:
		var req struct {
			TriggerType *string `json:"trigger_type"`
			Trigger     *string `json:"trigger"`
			Action      *string `json:"action"`
			Response    *string `json:"response"`
			Cooldown    *int    `json:"cooldown"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		expr, err := s.expressionUC.Edit(r.Context(), chatID, expressionID, usecase.EditParams{
			TriggerType: req.TriggerType,
			Trigger:     req.Trigger,
			Action:      req.Action,
			Response:    req.Response,
			Cooldown:    req.Cooldown,
		})
		if err != nil {
			s.writeErrorStatus(w, err, http.StatusBadRequest)
			return
		}
		s.writeJSON(w, expr)
	case http.MethodDelete:
		if err := s.expressionUC.Delete(r.Context(), chatID, expressionID); err != nil {
			s.writeErrorStatus(w, err, http.StatusNotFound)
			return
		}
		s.writeJSON(w, map[string]interface{}{
			"deleted": expressionID,
		})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePermissions handles GET and PUT on a chat's expression permissions.
func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request, chatID string) {
	switch r.Method {
	case http.MethodGet:
		perms, err := s.expressionUC.GetPerms(r.Context(), chatID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, perms)
	case http.MethodPut:
		var req domain.ExpressionPerms
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.expressionUC.SetPerms(r.Context(), chatID, req); err != nil {
			s.writeErrorStatus(w, err, http.StatusBadRequest)
			return
		}
		s.writeJSON(w, req)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleLogs handles GET and PUT on a chat's audit log settings.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request, chatID string) {
	switch r.Method {
	case http.MethodGet:
		logs, err := s.expressionUC.GetLogSettings(r.Context(), chatID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, logs)
	case http.MethodPut:
		var req domain.ExpressionLogs
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.expressionUC.SetLogSettings(r.Context(), chatID, req); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, req)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeErrorStatus(w, err, http.StatusInternalServerError)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
