package usecase

import (
	"context"
	"fmt"

	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/repo"
)

// ActionExecutor maps an expression's action to a concrete platform call
type ActionExecutor struct {
	messageRepo repo.MessageRepo
}

// NewActionExecutor creates an action executor
func NewActionExecutor(messageRepo repo.MessageRepo) *ActionExecutor {
	return &ActionExecutor{messageRepo: messageRepo}
}

// Execute performs the expression's configured action in the context of the
// triggering message. Delivery failures are returned for the caller to log;
// they are never fatal.
func (e *ActionExecutor) Execute(ctx context.Context, expr *domain.Expression, msg *domain.Message) error {
	switch expr.Action {
	case domain.ActionSend:
		return e.messageRepo.SendText(ctx, msg.ChatID, expr.Response)
	case domain.ActionReply:
		return e.messageRepo.ReplyText(ctx, msg.MsgID, expr.Response)
	case domain.ActionReact:
		return e.messageRepo.AddReaction(ctx, msg.MsgID, expr.Response)
	default:
		return fmt.Errorf("unknown action %q", expr.Action)
	}
}
