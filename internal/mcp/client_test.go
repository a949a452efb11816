package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListExpressions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats/oc_1/expressions" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"chat_id": "oc_1",
			"expressions": []Expression{
				{ID: "a1b2c", TriggerType: "phrase", Trigger: "hello", Action: "send", Response: "hi!"},
				{ID: "d3e4f", TriggerType: "user", Trigger: "ou_42", Action: "react", Response: "THUMBSUP"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	expressions, err := client.ListExpressions("oc_1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(expressions) != 2 {
		t.Errorf("Expected 2 expressions, got %d", len(expressions))
	}
	if expressions[0].ID != "a1b2c" {
		t.Errorf("Expected first expression a1b2c, got %s", expressions[0].ID)
	}
}

func TestCreateExpression(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var expr Expression
		json.NewDecoder(r.Body).Decode(&expr)
		expr.ID = "f5g6h"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(expr)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	created, err := client.CreateExpression("oc_1", Expression{
		TriggerType: "phrase",
		Trigger:     "deploy",
		Action:      "reply",
		Response:    "on it",
		Cooldown:    10,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created.ID != "f5g6h" {
		t.Errorf("Expected assigned ID, got %q", created.ID)
	}
	if created.Trigger != "deploy" {
		t.Errorf("Expected trigger echoed back, got %q", created.Trigger)
	}
}

func TestEditExpression_SendsPatch(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewEncoder(w).Encode(Expression{ID: "a1b2c", Response: "updated"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	edited, err := client.EditExpression("oc_1", "a1b2c", map[string]interface{}{
		"response": "updated",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("Expected PATCH, got %s", gotMethod)
	}
	if edited.Response != "updated" {
		t.Errorf("Expected updated response, got %q", edited.Response)
	}
}

func TestDeleteExpression_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no expression found with ID zzzzz"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.DeleteExpression("oc_1", "zzzzz"); err == nil {
		t.Error("Expected error for 404 response")
	}
}

func TestPermsAndLogsRoundtrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chats/oc_1/permissions":
			json.NewEncoder(w).Encode(Perms{Type: "role", RoleID: "role_7"})
		case "/api/chats/oc_1/logs":
			json.NewEncoder(w).Encode(LogSettings{ChannelID: "oc_audit", LogCreate: true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	perms, err := client.GetPerms("oc_1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if perms.Type != "role" || perms.RoleID != "role_7" {
		t.Errorf("Unexpected perms: %+v", perms)
	}

	logs, err := client.GetLogSettings("oc_1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if logs.ChannelID != "oc_audit" || !logs.LogCreate {
		t.Errorf("Unexpected log settings: %+v", logs)
	}

	if err := client.SetPerms("oc_1", Perms{Type: "everyone"}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := client.SetLogSettings("oc_1", LogSettings{LogDelete: true}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
