package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/repo"
)

// DispatchUsecase is the per-message expression engine: it loads the chat's
// document, matches expressions against the message, enforces cooldowns and
// performs actions. Each message is processed independently to completion;
// no failure in one expression's pipeline affects another's.
type DispatchUsecase struct {
	documentRepo repo.DocumentRepo
	executor     *ActionExecutor
	cooldowns    *CooldownTracker

	now func() time.Time
}

// NewDispatchUsecase creates a dispatch usecase. The cooldown tracker is
// injected so tests can construct isolated instances.
func NewDispatchUsecase(
	documentRepo repo.DocumentRepo,
	messageRepo repo.MessageRepo,
	cooldowns *CooldownTracker,
) *DispatchUsecase {
	return &DispatchUsecase{
		documentRepo: documentRepo,
		executor:     NewActionExecutor(messageRepo),
		cooldowns:    cooldowns,
		now:          time.Now,
	}
}

// SetClock overrides the engine clock, for tests
func (uc *DispatchUsecase) SetClock(now func() time.Time) {
	uc.now = now
}

// HandleMessage runs the full pipeline for one inbound message.
// It never returns an error: every failure mode degrades to "this
// expression did not visibly fire".
func (uc *DispatchUsecase) HandleMessage(ctx context.Context, msg *domain.Message) {
	if msg.FromBot {
		return
	}

	doc, err := uc.documentRepo.Load(ctx, msg.ChatID)
	if err != nil {
		logrus.Warnf("dispatch: load document for chat %s: %v", msg.ChatID, err)
		doc = domain.NewChatDocument()
	}

	for _, expr := range Match(msg, doc.Expressions) {
		now := uc.now()
		if !uc.cooldowns.Claim(msg.ChatID, expr.ID, now, expr.Cooldown) {
			logrus.Debugf("dispatch: cooldown active for expression %s in chat %s", expr.ID, msg.ChatID)
			continue
		}

		if err := uc.executor.Execute(ctx, &expr, msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"chat_id":    msg.ChatID,
				"expression": expr.ID,
				"action":     expr.Action,
			}).Warnf("dispatch: action failed: %v", err)
		}
	}
}
