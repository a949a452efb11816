package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/usecase"
)

type mockDocumentRepo struct {
	docs map[string]*domain.ChatDocument
}

func (m *mockDocumentRepo) Load(ctx context.Context, chatID string) (*domain.ChatDocument, error) {
	if doc, ok := m.docs[chatID]; ok {
		return doc, nil
	}
	return domain.NewChatDocument(), nil
}

func (m *mockDocumentRepo) Save(ctx context.Context, chatID string, doc *domain.ChatDocument) error {
	m.docs[chatID] = doc
	return nil
}

func (m *mockDocumentRepo) Close() error { return nil }

func newTestServer() (*Server, *mockDocumentRepo) {
	repo := &mockDocumentRepo{docs: make(map[string]*domain.ChatDocument)}
	return NewServer(usecase.NewExpressionUsecase(repo), 0), repo
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.handleChats(w, req)
	return w
}

func TestCreateAndListExpressions(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(s, http.MethodPost, "/api/chats/oc_1/expressions", map[string]interface{}{
		"trigger_type": "phrase",
		"trigger":      "hello",
		"action":       "send",
		"response":     "hi!",
		"cooldown":     5,
		"created_by":   "alice",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created domain.Expression
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(created.ID) != domain.ExpressionIDLength {
		t.Errorf("Expected %d-char ID, got %q", domain.ExpressionIDLength, created.ID)
	}

	w = doRequest(s, http.MethodGet, "/api/chats/oc_1/expressions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var listResp struct {
		ChatID      string              `json:"chat_id"`
		Expressions []domain.Expression `json:"expressions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(listResp.Expressions) != 1 || listResp.Expressions[0].ID != created.ID {
		t.Errorf("Expected the created expression in the list, got %+v", listResp.Expressions)
	}
}

func TestCreateExpression_InvalidInput(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(s, http.MethodPost, "/api/chats/oc_1/expressions", map[string]interface{}{
		"trigger_type": "phrase",
		"trigger":      "hello",
		"action":       "teleport",
		"response":     "hi!",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown action, got %d", w.Code)
	}
}

func TestGetEditDeleteExpression(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(s, http.MethodPost, "/api/chats/oc_1/expressions", map[string]interface{}{
		"trigger_type": "user",
		"trigger":      "ou_42",
		"action":       "react",
		"response":     "THUMBSUP",
	})
	var created domain.Expression
	json.Unmarshal(w.Body.Bytes(), &created)

	w = doRequest(s, http.MethodGet, "/api/chats/oc_1/expressions/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doRequest(s, http.MethodPatch, "/api/chats/oc_1/expressions/"+created.ID, map[string]interface{}{
		"response": "HEART",
		"cooldown": 10,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var edited domain.Expression
	json.Unmarshal(w.Body.Bytes(), &edited)
	if edited.Response != "HEART" || edited.Cooldown != 10 {
		t.Errorf("Expected edited fields applied, got %+v", edited)
	}
	if edited.Trigger != "ou_42" {
		t.Errorf("Expected untouched fields preserved, got %+v", edited)
	}

	w = doRequest(s, http.MethodDelete, "/api/chats/oc_1/expressions/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/chats/oc_1/expressions/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestExpression_UnknownID(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(s, http.MethodGet, "/api/chats/oc_1/expressions/zzzzz", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	w = doRequest(s, http.MethodDelete, "/api/chats/oc_1/expressions/zzzzz", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestPermissionsRoundtrip(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(s, http.MethodPut, "/api/chats/oc_1/permissions", domain.ExpressionPerms{
		Type:   domain.PermRole,
		RoleID: "role_7",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, http.MethodGet, "/api/chats/oc_1/permissions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var perms domain.ExpressionPerms
	json.Unmarshal(w.Body.Bytes(), &perms)
	if perms.Type != domain.PermRole || perms.RoleID != "role_7" {
		t.Errorf("Expected saved permissions back, got %+v", perms)
	}
}

func TestPermissions_InvalidType(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(s, http.MethodPut, "/api/chats/oc_1/permissions", domain.ExpressionPerms{
		Type: "wizards",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown permission type, got %d", w.Code)
	}
}

func TestLogSettingsRoundtrip(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(s, http.MethodPut, "/api/chats/oc_1/logs", domain.ExpressionLogs{
		ChannelID: "oc_audit",
		LogCreate: true,
		LogDelete: true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, http.MethodGet, "/api/chats/oc_1/logs", nil)
	var logs domain.ExpressionLogs
	json.Unmarshal(w.Body.Bytes(), &logs)
	if logs.ChannelID != "oc_audit" || !logs.LogCreate || logs.LogEdit || !logs.LogDelete {
		t.Errorf("Expected saved log settings back, got %+v", logs)
	}
}

func TestInvalidPathsAndMethods(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(s, http.MethodGet, "/api/chats/", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing chat ID, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/chats/oc_1/unknown", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown resource, got %d", w.Code)
	}

	w = doRequest(s, http.MethodPut, "/api/chats/oc_1/expressions", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}
