package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/repo"
)

// AuditNotifier receives expression lifecycle events for audit logging.
// Implementations decide whether and where to post them.
type AuditNotifier interface {
	ExpressionCreated(ctx context.Context, chatID string, expr *domain.Expression)
	ExpressionEdited(ctx context.Context, chatID string, expr *domain.Expression, changes []string)
	ExpressionDeleted(ctx context.Context, chatID, expressionID string)
}

// ExpressionUsecase handles the expression management surface: create, edit,
// delete, inspect, plus the per-chat permission and log settings. The dispatch
// engine shares nothing with it beyond the persisted document shape.
type ExpressionUsecase struct {
	documentRepo repo.DocumentRepo
	notifier     AuditNotifier

	newID func() string
}

// CreateParams are the inputs for creating an expression
type CreateParams struct {
	TriggerType string
	Trigger     string
	Action      string
	Response    string
	Cooldown    int
	CreatedBy   string
	ChatName    string // Backfilled into chat info on first write
}

// EditParams are the optional inputs for editing an expression.
// Nil fields are left unchanged.
type EditParams struct {
	TriggerType *string
	Trigger     *string
	Action      *string
	Response    *string
	Cooldown    *int
}

// NewExpressionUsecase creates an expression usecase
func NewExpressionUsecase(documentRepo repo.DocumentRepo) *ExpressionUsecase {
	return &ExpressionUsecase{
		documentRepo: documentRepo,
		newID:        domain.NewExpressionID,
	}
}

// SetNotifier attaches an audit notifier
func (uc *ExpressionUsecase) SetNotifier(n AuditNotifier) {
	uc.notifier = n
}

// Create validates, normalizes and persists a new expression, returning it
// with its generated ID.
func (uc *ExpressionUsecase) Create(ctx context.Context, chatID string, params CreateParams) (*domain.Expression, error) {
	triggerType, err := domain.ParseTriggerType(params.TriggerType)
	if err != nil {
		return nil, err
	}
	action, err := domain.ParseAction(params.Action)
	if err != nil {
		return nil, err
	}
	if params.Cooldown < 0 {
		return nil, fmt.Errorf("cooldown must be >= 0, got %d", params.Cooldown)
	}

	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	if doc.Info.ID == "" {
		doc.Info.ID = chatID
		doc.Info.Name = params.ChatName
		doc.Info.InvitedAt = time.Now().UTC().Format(time.RFC3339)
	}

	id := uc.newID()
	for doc.HasExpression(id) {
		id = uc.newID()
	}

	expr := domain.Expression{
		ID:          id,
		TriggerType: triggerType,
		Trigger:     params.Trigger,
		Action:      action,
		Response:    params.Response,
		Cooldown:    params.Cooldown,
		CreatedBy:   params.CreatedBy,
	}
	doc.Expressions = append(doc.Expressions, expr)

	if err := uc.documentRepo.Save(ctx, chatID, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if uc.notifier != nil {
		uc.notifier.ExpressionCreated(ctx, chatID, &expr)
	}
	return &expr, nil
}

// Edit applies a partial update to an expression by ID
func (uc *ExpressionUsecase) Edit(ctx context.Context, chatID, expressionID string, params EditParams) (*domain.Expression, error) {
	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	expr := doc.FindExpression(expressionID)
	if expr == nil {
		return nil, fmt.Errorf("no expression found with ID %s", expressionID)
	}

	var changes []string
	if params.TriggerType != nil {
		triggerType, err := domain.ParseTriggerType(*params.TriggerType)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fmt.Sprintf("trigger_type: %s -> %s", expr.TriggerType, triggerType))
		expr.TriggerType = triggerType
	}
	if params.Trigger != nil {
		changes = append(changes, fmt.Sprintf("trigger: %s -> %s", expr.Trigger, *params.Trigger))
		expr.Trigger = *params.Trigger
	}
	if params.Action != nil {
		action, err := domain.ParseAction(*params.Action)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fmt.Sprintf("action: %s -> %s", expr.Action, action))
		expr.Action = action
	}
	if params.Response != nil {
		changes = append(changes, fmt.Sprintf("response: %s -> %s", expr.Response, *params.Response))
		expr.Response = *params.Response
	}
	if params.Cooldown != nil {
		if *params.Cooldown < 0 {
			return nil, fmt.Errorf("cooldown must be >= 0, got %d", *params.Cooldown)
		}
		changes = append(changes, fmt.Sprintf("cooldown: %d -> %d", expr.Cooldown, *params.Cooldown))
		expr.Cooldown = *params.Cooldown
	}

	if err := uc.documentRepo.Save(ctx, chatID, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if uc.notifier != nil && len(changes) > 0 {
		uc.notifier.ExpressionEdited(ctx, chatID, expr, changes)
	}
	return expr, nil
}

// Delete removes an expression by ID
func (uc *ExpressionUsecase) Delete(ctx context.Context, chatID, expressionID string) error {
	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if !doc.RemoveExpression(expressionID) {
		return fmt.Errorf("no expression found with ID %s", expressionID)
	}

	if err := uc.documentRepo.Save(ctx, chatID, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	if uc.notifier != nil {
		uc.notifier.ExpressionDeleted(ctx, chatID, expressionID)
	}
	return nil
}

// Get returns one expression by ID
func (uc *ExpressionUsecase) Get(ctx context.Context, chatID, expressionID string) (*domain.Expression, error) {
	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	expr := doc.FindExpression(expressionID)
	if expr == nil {
		return nil, fmt.Errorf("no expression found with ID %s", expressionID)
	}
	return expr, nil
}

// List returns all expressions for a chat in evaluation order
func (uc *ExpressionUsecase) List(ctx context.Context, chatID string) ([]domain.Expression, error) {
	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return doc.Expressions, nil
}

// GetPerms returns the chat's expression management permissions
func (uc *ExpressionUsecase) GetPerms(ctx context.Context, chatID string) (*domain.ExpressionPerms, error) {
	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return doc.Info.Perms, nil
}

// SetPerms updates the chat's expression management permissions
func (uc *ExpressionUsecase) SetPerms(ctx context.Context, chatID string, perms domain.ExpressionPerms) error {
	switch perms.Type {
	case domain.PermAdmin, domain.PermEveryone:
		perms.RoleID = ""
	case domain.PermRole:
		if perms.RoleID == "" {
			return fmt.Errorf("permission type %q requires a role_id", domain.PermRole)
		}
	default:
		return fmt.Errorf("unknown permission type %q", perms.Type)
	}

	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	doc.Info.Perms = &perms
	if err := uc.documentRepo.Save(ctx, chatID, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// GetLogSettings returns the chat's audit log configuration
func (uc *ExpressionUsecase) GetLogSettings(ctx context.Context, chatID string) (*domain.ExpressionLogs, error) {
	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return doc.Info.Logs, nil
}

// SetLogSettings replaces the chat's audit log configuration
func (uc *ExpressionUsecase) SetLogSettings(ctx context.Context, chatID string, logs domain.ExpressionLogs) error {
	doc, err := uc.documentRepo.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	doc.Info.Logs = &logs
	if err := uc.documentRepo.Save(ctx, chatID, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
