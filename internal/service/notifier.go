package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/repo"
)

// AuditNotifier posts expression lifecycle entries to the chat's configured
// log channel, honoring the per-event toggles. Delivery failures are logged
// and swallowed; audit logging never blocks the management surface.
//
// The log_trigger toggle is stored alongside the others but nothing here
// posts firing events.
type AuditNotifier struct {
	documentRepo repo.DocumentRepo
	messageRepo  repo.MessageRepo
}

// NewAuditNotifier creates an audit notifier
func NewAuditNotifier(documentRepo repo.DocumentRepo, messageRepo repo.MessageRepo) *AuditNotifier {
	return &AuditNotifier{
		documentRepo: documentRepo,
		messageRepo:  messageRepo,
	}
}

// ExpressionCreated posts a creation entry if log_create is on
func (n *AuditNotifier) ExpressionCreated(ctx context.Context, chatID string, expr *domain.Expression) {
	n.post(ctx, chatID, func(logs *domain.ExpressionLogs) bool { return logs.LogCreate },
		"New Expression Created", []string{
			fmt.Sprintf("ID: %s", expr.ID),
			fmt.Sprintf("Creator: %s", expr.CreatedBy),
			fmt.Sprintf("Trigger Type: %s", expr.TriggerType),
			fmt.Sprintf("Action: %s", expr.Action),
		})
}

// ExpressionEdited posts an edit entry if log_edit is on
func (n *AuditNotifier) ExpressionEdited(ctx context.Context, chatID string, expr *domain.Expression, changes []string) {
	lines := []string{fmt.Sprintf("ID: %s", expr.ID)}
	if len(changes) > 0 {
		lines = append(lines, "Changes: "+strings.Join(changes, ", "))
	}
	n.post(ctx, chatID, func(logs *domain.ExpressionLogs) bool { return logs.LogEdit },
		"Expression Edited", lines)
}

// ExpressionDeleted posts a deletion entry if log_delete is on
func (n *AuditNotifier) ExpressionDeleted(ctx context.Context, chatID, expressionID string) {
	n.post(ctx, chatID, func(logs *domain.ExpressionLogs) bool { return logs.LogDelete },
		"Expression Deleted", []string{fmt.Sprintf("ID: %s", expressionID)})
}

func (n *AuditNotifier) post(ctx context.Context, chatID string, enabled func(*domain.ExpressionLogs) bool, title string, lines []string) {
	doc, err := n.documentRepo.Load(ctx, chatID)
	if err != nil {
		logrus.Warnf("notifier: load document for chat %s: %v", chatID, err)
		return
	}

	logs := doc.Info.Logs
	if logs == nil || logs.ChannelID == "" || !enabled(logs) {
		return
	}

	content := make([][]map[string]interface{}, 0, len(lines))
	for _, line := range lines {
		content = append(content, []map[string]interface{}{
			{"tag": "text", "text": line},
		})
	}

	if err := n.messageRepo.SendRichText(ctx, logs.ChannelID, title, content); err != nil {
		logrus.Warnf("notifier: failed to post %q to chat %s: %v", title, logs.ChannelID, err)
	}
}
