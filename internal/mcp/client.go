package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the HTTP client for the bot's admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new admin API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Expression mirrors the admin API's expression payload
type Expression struct {
	ID          string `json:"id"`
	TriggerType string `json:"trigger_type"`
	Trigger     string `json:"trigger"`
	Action      string `json:"action"`
	Response    string `json:"response"`
	Cooldown    int    `json:"cooldown"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// Perms mirrors the admin API's permission payload
type Perms struct {
	Type   string `json:"type"`
	RoleID string `json:"role_id,omitempty"`
}

// LogSettings mirrors the admin API's log settings payload
type LogSettings struct {
	ChannelID  string `json:"channel_id,omitempty"`
	LogCreate  bool   `json:"log_create"`
	LogEdit    bool   `json:"log_edit"`
	LogDelete  bool   `json:"log_delete"`
	LogTrigger bool   `json:"log_trigger"`
}

// ============ Expression Operations ============

// ListExpressions lists all expressions configured for a chat
func (c *Client) ListExpressions(chatID string) ([]Expression, error) {
	var result struct {
		Expressions []Expression `json:"expressions"`
	}
	if err := c.get(fmt.Sprintf("/api/chats/%s/expressions", url.PathEscape(chatID)), &result); err != nil {
		return nil, err
	}
	return result.Expressions, nil
}

// GetExpression fetches a single expression by ID
func (c *Client) GetExpression(chatID, expressionID string) (*Expression, error) {
	var expr Expression
	path := fmt.Sprintf("/api/chats/%s/expressions/%s", url.PathEscape(chatID), url.PathEscape(expressionID))
	if err := c.get(path, &expr); err != nil {
		return nil, err
	}
	return &expr, nil
}

// CreateExpression creates a new expression in a chat
func (c *Client) CreateExpression(chatID string, expr Expression) (*Expression, error) {
	var created Expression
	path := fmt.Sprintf("/api/chats/%s/expressions", url.PathEscape(chatID))
	if err := c.post(path, expr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// EditExpression applies a partial update. Nil fields are left unchanged.
func (c *Client) EditExpression(chatID, expressionID string, patch map[string]interface{}) (*Expression, error) {
	var edited Expression
	path := fmt.Sprintf("/api/chats/%s/expressions/%s", url.PathEscape(chatID), url.PathEscape(expressionID))
	if err := c.patch(path, patch, &edited); err != nil {
		return nil, err
	}
	return &edited, nil
}

// DeleteExpression removes an expression from a chat
func (c *Client) DeleteExpression(chatID, expressionID string) error {
	path := fmt.Sprintf("/api/chats/%s/expressions/%s", url.PathEscape(chatID), url.PathEscape(expressionID))
	return c.delete(path)
}

// ============ Permission Operations ============

// GetPerms fetches a chat's expression management permissions
func (c *Client) GetPerms(chatID string) (*Perms, error) {
	var perms Perms
	if err := c.get(fmt.Sprintf("/api/chats/%s/permissions", url.PathEscape(chatID)), &perms); err != nil {
		return nil, err
	}
	return &perms, nil
}

// SetPerms replaces a chat's expression management permissions
func (c *Client) SetPerms(chatID string, perms Perms) error {
	return c.put(fmt.Sprintf("/api/chats/%s/permissions", url.PathEscape(chatID)), perms, nil)
}

// ============ Log Settings Operations ============

// GetLogSettings fetches a chat's audit log settings
func (c *Client) GetLogSettings(chatID string) (*LogSettings, error) {
	var logs LogSettings
	if err := c.get(fmt.Sprintf("/api/chats/%s/logs", url.PathEscape(chatID)), &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// SetLogSettings replaces a chat's audit log settings
func (c *Client) SetLogSettings(chatID string, logs LogSettings) error {
	return c.put(fmt.Sprintf("/api/chats/%s/logs", url.PathEscape(chatID)), logs, nil)
}

// ============ HTTP Helpers ============

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	return c.decode(resp, result)
}

func (c *Client) post(path string, body interface{}, result interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("HTTP POST failed: %w", err)
	}
	defer resp.Body.Close()

	return c.decode(resp, result)
}

func (c *Client) patch(path string, body interface{}, result interface{}) error {
	return c.send(http.MethodPatch, path, body, result)
}

func (c *Client) put(path string, body interface{}, result interface{}) error {
	return c.send(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	return c.send(http.MethodDelete, path, nil, nil)
}

func (c *Client) send(method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	return c.decode(resp, result)
}

func (c *Client) decode(resp *http.Response, result interface{}) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
