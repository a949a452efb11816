package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	expmcp "github.com/idempomlieko/expressive/internal/mcp"
)

// ExpressiveMCPServer provides MCP tools for administering expressions
// through the bot's admin HTTP API.
type ExpressiveMCPServer struct {
	server *mcp.Server
	client *expmcp.Client
}

// NewServer creates a new expression admin MCP server
func NewServer(client *expmcp.Client) *ExpressiveMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "expressive-tools",
		Version: "v1.0.0",
	}, nil)

	s := &ExpressiveMCPServer{
		server: server,
		client: client,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server with stdio transport
func (s *ExpressiveMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetServer returns the underlying MCP server
func (s *ExpressiveMCPServer) GetServer() *mcp.Server {
	return s.server
}

// registerTools registers all expression administration tools
func (s *ExpressiveMCPServer) registerTools() {
	// Tool: expression_list - List all expressions in a chat
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expression_list",
		Description: "List all automatic response rules (expressions) configured for a chat.",
	}, s.handleList)

	// Tool: expression_info - Show a single expression
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expression_info",
		Description: "Show the full configuration of a single expression by its 5-character ID.",
	}, s.handleInfo)

	// Tool: expression_new - Create an expression
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expression_new",
		Description: "Create a new expression. Trigger types: 'user' (fires on any message from a specific user ID) or 'phrase' (fires when the message contains a phrase, case-insensitive). Actions: 'send' (post to the chat), 'reply' (reply to the triggering message), 'react' (add an emoji reaction such as THUMBSUP, HEART, LAUGH).",
	}, s.handleNew)

	// Tool: expression_edit - Edit an expression
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expression_edit",
		Description: "Edit an existing expression. Only the provided fields are changed.",
	}, s.handleEdit)

	// Tool: expression_delete - Delete an expression
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expression_delete",
		Description: "Delete an expression by its 5-character ID.",
	}, s.handleDelete)

	// Tool: expression_set_permissions - Set who may manage expressions
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expression_set_permissions",
		Description: "Set who may manage a chat's expressions: 'admin', 'everyone', or 'role' (requires role_id).",
	}, s.handleSetPermissions)

	// Tool: expression_configure_logs - Configure audit logging
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expression_configure_logs",
		Description: "Configure the audit log channel and which expression events (create, edit, delete) get posted to it.",
	}, s.handleConfigureLogs)
}

// ListInput is the input for expression_list
type ListInput struct {
	ChatID string `json:"chat_id" jsonschema:"description=The chat to list expressions for"`
}

// ListOutput is the output for expression_list
type ListOutput struct {
	Expressions []expmcp.Expression `json:"expressions"`
	Error       string              `json:"error,omitempty"`
}

func (s *ExpressiveMCPServer) handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	expressions, err := s.client.ListExpressions(input.ChatID)
	if err != nil {
		return nil, ListOutput{Error: err.Error()}, nil
	}
	return nil, ListOutput{Expressions: expressions}, nil
}

// InfoInput is the input for expression_info
type InfoInput struct {
	ChatID       string `json:"chat_id" jsonschema:"description=The chat the expression belongs to"`
	ExpressionID string `json:"expression_id" jsonschema:"description=The 5-character expression ID"`
}

// InfoOutput is the output for expression_info
type InfoOutput struct {
	Expression *expmcp.Expression `json:"expression,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func (s *ExpressiveMCPServer) handleInfo(ctx context.Context, req *mcp.CallToolRequest, input InfoInput) (*mcp.CallToolResult, InfoOutput, error) {
	expr, err := s.client.GetExpression(input.ChatID, input.ExpressionID)
	if err != nil {
		return nil, InfoOutput{Error: err.Error()}, nil
	}
	return nil, InfoOutput{Expression: expr}, nil
}

// NewInput is the input for expression_new
type NewInput struct {
	ChatID      string `json:"chat_id" jsonschema:"description=The chat to create the expression in"`
	TriggerType string `json:"trigger_type" jsonschema:"description=Trigger type: user or phrase"`
	Trigger     string `json:"trigger" jsonschema:"description=The user ID or phrase to match"`
	Action      string `json:"action" jsonschema:"description=Action: send, reply or react"`
	Response    string `json:"response" jsonschema:"description=The message text or emoji type to respond with"`
	Cooldown    int    `json:"cooldown,omitempty" jsonschema:"description=Minutes to wait before this expression may fire again (0 = no cooldown)"`
}

// NewOutput is the output for expression_new
type NewOutput struct {
	Expression *expmcp.Expression `json:"expression,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func (s *ExpressiveMCPServer) handleNew(ctx context.Context, req *mcp.CallToolRequest, input NewInput) (*mcp.CallToolResult, NewOutput, error) {
	created, err := s.client.CreateExpression(input.ChatID, expmcp.Expression{
		TriggerType: input.TriggerType,
		Trigger:     input.Trigger,
		Action:      input.Action,
		Response:    input.Response,
		Cooldown:    input.Cooldown,
	})
	if err != nil {
		return nil, NewOutput{Error: err.Error()}, nil
	}
	return nil, NewOutput{Expression: created}, nil
}

// EditInput is the input for expression_edit
type EditInput struct {
	ChatID       string  `json:"chat_id" jsonschema:"description=The chat the expression belongs to"`
	ExpressionID string  `json:"expression_id" jsonschema:"description=The 5-character expression ID"`
	TriggerType  *string `json:"trigger_type,omitempty" jsonschema:"description=New trigger type: user or phrase"`
	Trigger      *string `json:"trigger,omitempty" jsonschema:"description=New user ID or phrase"`
	Action       *string `json:"action,omitempty" jsonschema:"description=New action: send, reply or react"`
	Response     *string `json:"response,omitempty" jsonschema:"description=New response text or emoji type"`
	Cooldown     *int    `json:"cooldown,omitempty" jsonschema:"description=New cooldown in minutes"`
}

// EditOutput is the output for expression_edit
type EditOutput struct {
	Expression *expmcp.Expression `json:"expression,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func (s *ExpressiveMCPServer) handleEdit(ctx context.Context, req *mcp.CallToolRequest, input EditInput) (*mcp.CallToolResult, EditOutput, error) {
	patch := map[string]interface{}{}
	if input.TriggerType != nil {
		patch["trigger_type"] = *input.TriggerType
	}
	if input.Trigger != nil {
		patch["trigger"] = *input.Trigger
	}
	if input.Action != nil {
		patch["action"] = *input.Action
	}
	if input.Response != nil {
		patch["response"] = *input.Response
	}
	if input.Cooldown != nil {
		patch["cooldown"] = *input.Cooldown
	}

	edited, err := s.client.EditExpression(input.ChatID, input.ExpressionID, patch)
	if err != nil {
		return nil, EditOutput{Error: err.Error()}, nil
	}
	return nil, EditOutput{Expression: edited}, nil
}

// DeleteInput is the input for expression_delete
type DeleteInput struct {
	ChatID       string `json:"chat_id" jsonschema:"description=The chat the expression belongs to"`
	ExpressionID string `json:"expression_id" jsonschema:"description=The 5-character expression ID"`
}

// DeleteOutput is the output for expression_delete
type DeleteOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *ExpressiveMCPServer) handleDelete(ctx context.Context, req *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := s.client.DeleteExpression(input.ChatID, input.ExpressionID); err != nil {
		return nil, DeleteOutput{Success: false, Error: err.Error()}, nil
	}
	return nil, DeleteOutput{Success: true}, nil
}

// SetPermissionsInput is the input for expression_set_permissions
type SetPermissionsInput struct {
	ChatID string `json:"chat_id" jsonschema:"description=The chat to configure"`
	Type   string `json:"type" jsonschema:"description=Permission type: admin, everyone or role"`
	RoleID string `json:"role_id,omitempty" jsonschema:"description=Required when type is role"`
}

// SetPermissionsOutput is the output for expression_set_permissions
type SetPermissionsOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *ExpressiveMCPServer) handleSetPermissions(ctx context.Context, req *mcp.CallToolRequest, input SetPermissionsInput) (*mcp.CallToolResult, SetPermissionsOutput, error) {
	err := s.client.SetPerms(input.ChatID, expmcp.Perms{
		Type:   input.Type,
		RoleID: input.RoleID,
	})
	if err != nil {
		return nil, SetPermissionsOutput{Success: false, Error: err.Error()}, nil
	}
	return nil, SetPermissionsOutput{Success: true}, nil
}

// ConfigureLogsInput is the input for expression_configure_logs
type ConfigureLogsInput struct {
	ChatID     string `json:"chat_id" jsonschema:"description=The chat to configure"`
	ChannelID  string `json:"channel_id,omitempty" jsonschema:"description=The chat to post audit log entries to (empty disables posting)"`
	LogCreate  bool   `json:"log_create,omitempty" jsonschema:"description=Post when expressions are created"`
	LogEdit    bool   `json:"log_edit,omitempty" jsonschema:"description=Post when expressions are edited"`
	LogDelete  bool   `json:"log_delete,omitempty" jsonschema:"description=Post when expressions are deleted"`
	LogTrigger bool   `json:"log_trigger,omitempty" jsonschema:"description=Reserved toggle for trigger logging"`
}

// ConfigureLogsOutput is the output for expression_configure_logs
type ConfigureLogsOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *ExpressiveMCPServer) handleConfigureLogs(ctx context.Context, req *mcp.CallToolRequest, input ConfigureLogsInput) (*mcp.CallToolResult, ConfigureLogsOutput, error) {
	err := s.client.SetLogSettings(input.ChatID, expmcp.LogSettings{
		ChannelID:  input.ChannelID,
		LogCreate:  input.LogCreate,
		LogEdit:    input.LogEdit,
		LogDelete:  input.LogDelete,
		LogTrigger: input.LogTrigger,
	})
	if err != nil {
		return nil, ConfigureLogsOutput{Success: false, Error: err.Error()}, nil
	}
	return nil, ConfigureLogsOutput{Success: true}, nil
}
