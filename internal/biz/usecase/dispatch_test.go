package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/idempomlieko/expressive/internal/biz/domain"
)

// Mock implementations

type mockDocumentRepo struct {
	docs    map[string]*domain.ChatDocument
	loadErr error
}

func (m *mockDocumentRepo) Load(ctx context.Context, chatID string) (*domain.ChatDocument, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if doc, ok := m.docs[chatID]; ok {
		return doc, nil
	}
	return domain.NewChatDocument().WithDefaults(domain.LogDefaults{}), nil
}

func (m *mockDocumentRepo) Save(ctx context.Context, chatID string, doc *domain.ChatDocument) error {
	if m.docs == nil {
		m.docs = make(map[string]*domain.ChatDocument)
	}
	m.docs[chatID] = doc
	return nil
}

func (m *mockDocumentRepo) Close() error { return nil }

type delivery struct {
	kind   string // send, reply, react
	target string // chat ID or message ID
	body   string
}

type mockMessageRepo struct {
	deliveries []delivery
	failReact  bool
	failSend   bool
}

func (m *mockMessageRepo) SendText(ctx context.Context, chatID, text string) error {
	if m.failSend {
		return errors.New("permission denied")
	}
	m.deliveries = append(m.deliveries, delivery{"send", chatID, text})
	return nil
}

func (m *mockMessageRepo) ReplyText(ctx context.Context, msgID, text string) error {
	m.deliveries = append(m.deliveries, delivery{"reply", msgID, text})
	return nil
}

func (m *mockMessageRepo) AddReaction(ctx context.Context, msgID, emojiType string) error {
	if m.failReact {
		return errors.New("invalid emoji")
	}
	m.deliveries = append(m.deliveries, delivery{"react", msgID, emojiType})
	return nil
}

func (m *mockMessageRepo) SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error {
	m.deliveries = append(m.deliveries, delivery{"rich", chatID, title})
	return nil
}

// fakeClock is a settable engine clock
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDispatch(docs map[string]*domain.ChatDocument, msgRepo *mockMessageRepo) (*DispatchUsecase, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	uc := NewDispatchUsecase(&mockDocumentRepo{docs: docs}, msgRepo, NewCooldownTracker())
	uc.SetClock(clock.Now)
	return uc, clock
}

func userMessage(content string) *domain.Message {
	return &domain.Message{
		ChatID:   "oc_1",
		MsgID:    "om_1",
		SenderID: "ou_user",
		Content:  content,
	}
}

func TestHandleMessage_EndToEndCooldownScenario(t *testing.T) {
	docs := map[string]*domain.ChatDocument{
		"oc_1": {Expressions: []domain.Expression{{
			ID:          "aaaaa",
			TriggerType: domain.TriggerPhrase,
			Trigger:     "hello",
			Action:      domain.ActionSend,
			Response:    "hi!",
			Cooldown:    1,
		}}},
	}
	msgRepo := &mockMessageRepo{}
	uc, clock := newTestDispatch(docs, msgRepo)
	ctx := context.Background()

	// T=0: fires
	uc.HandleMessage(ctx, userMessage("well hello there"))
	if len(msgRepo.deliveries) != 1 {
		t.Fatalf("Expected 1 delivery at T=0, got %d", len(msgRepo.deliveries))
	}
	if d := msgRepo.deliveries[0]; d.kind != "send" || d.target != "oc_1" || d.body != "hi!" {
		t.Errorf("Unexpected delivery: %+v", d)
	}

	// T=30s: suppressed
	clock.Advance(30 * time.Second)
	uc.HandleMessage(ctx, userMessage("hello again"))
	if len(msgRepo.deliveries) != 1 {
		t.Fatalf("Expected suppression at T=30s, got %d deliveries", len(msgRepo.deliveries))
	}

	// T=61s: fires again
	clock.Advance(31 * time.Second)
	uc.HandleMessage(ctx, userMessage("hello once more"))
	if len(msgRepo.deliveries) != 2 {
		t.Fatalf("Expected 2 deliveries at T=61s, got %d", len(msgRepo.deliveries))
	}
}

func TestHandleMessage_IndependentRuleFiring(t *testing.T) {
	docs := map[string]*domain.ChatDocument{
		"oc_1": {Expressions: []domain.Expression{
			{ID: "aaaaa", TriggerType: domain.TriggerPhrase, Trigger: "hello", Action: domain.ActionReact, Response: "BROKEN"},
			{ID: "bbbbb", TriggerType: domain.TriggerPhrase, Trigger: "hello", Action: domain.ActionReply, Response: "hey"},
		}},
	}
	msgRepo := &mockMessageRepo{failReact: true}
	uc, _ := newTestDispatch(docs, msgRepo)

	uc.HandleMessage(context.Background(), userMessage("hello"))

	if len(msgRepo.deliveries) != 1 {
		t.Fatalf("Expected the second rule to fire despite the first failing, got %d deliveries", len(msgRepo.deliveries))
	}
	if d := msgRepo.deliveries[0]; d.kind != "reply" || d.target != "om_1" || d.body != "hey" {
		t.Errorf("Unexpected delivery: %+v", d)
	}
}

func TestHandleMessage_MultipleRulesAllFire(t *testing.T) {
	docs := map[string]*domain.ChatDocument{
		"oc_1": {Expressions: []domain.Expression{
			{ID: "aaaaa", TriggerType: domain.TriggerPhrase, Trigger: "hello", Action: domain.ActionSend, Response: "one"},
			{ID: "bbbbb", TriggerType: domain.TriggerUser, Trigger: "ou_user", Action: domain.ActionReact, Response: "THUMBSUP"},
		}},
	}
	msgRepo := &mockMessageRepo{}
	uc, _ := newTestDispatch(docs, msgRepo)

	uc.HandleMessage(context.Background(), userMessage("hello"))

	if len(msgRepo.deliveries) != 2 {
		t.Fatalf("Expected both rules to fire, got %d deliveries", len(msgRepo.deliveries))
	}
	if msgRepo.deliveries[0].kind != "send" || msgRepo.deliveries[1].kind != "react" {
		t.Errorf("Expected document-order firing, got %+v", msgRepo.deliveries)
	}
}

func TestHandleMessage_BotAuthorRejected(t *testing.T) {
	docs := map[string]*domain.ChatDocument{
		"oc_1": {Expressions: []domain.Expression{
			{ID: "aaaaa", TriggerType: domain.TriggerPhrase, Trigger: "hello", Action: domain.ActionSend, Response: "hi!"},
		}},
	}
	msgRepo := &mockMessageRepo{}
	uc, _ := newTestDispatch(docs, msgRepo)

	msg := userMessage("hello")
	msg.FromBot = true
	uc.HandleMessage(context.Background(), msg)

	if len(msgRepo.deliveries) != 0 {
		t.Errorf("Expected no deliveries for automated author, got %d", len(msgRepo.deliveries))
	}
}

func TestHandleMessage_ZeroCooldownFiresBackToBack(t *testing.T) {
	docs := map[string]*domain.ChatDocument{
		"oc_1": {Expressions: []domain.Expression{
			{ID: "aaaaa", TriggerType: domain.TriggerPhrase, Trigger: "hi", Action: domain.ActionSend, Response: "yo", Cooldown: 0},
		}},
	}
	msgRepo := &mockMessageRepo{}
	uc, _ := newTestDispatch(docs, msgRepo)
	ctx := context.Background()

	uc.HandleMessage(ctx, userMessage("hi"))
	uc.HandleMessage(ctx, userMessage("hi"))

	if len(msgRepo.deliveries) != 2 {
		t.Errorf("Expected zero-cooldown rule to fire on every message, got %d deliveries", len(msgRepo.deliveries))
	}
}

func TestHandleMessage_LoadFailureDoesNotCrash(t *testing.T) {
	msgRepo := &mockMessageRepo{}
	uc := NewDispatchUsecase(&mockDocumentRepo{loadErr: fmt.Errorf("database is gone")}, msgRepo, NewCooldownTracker())

	uc.HandleMessage(context.Background(), userMessage("hello"))

	if len(msgRepo.deliveries) != 0 {
		t.Errorf("Expected no deliveries when the document cannot be loaded, got %d", len(msgRepo.deliveries))
	}
}

func TestHandleMessage_MalformedRuleIsSkipped(t *testing.T) {
	docs := map[string]*domain.ChatDocument{
		"oc_1": {Expressions: []domain.Expression{
			{ID: "aaaaa", Trigger: "hello", Action: domain.ActionSend, Response: "broken"}, // no trigger_type
			{ID: "bbbbb", TriggerType: domain.TriggerPhrase, Trigger: "hello", Response: "broken"}, // no action
			{ID: "ccccc", TriggerType: domain.TriggerPhrase, Trigger: "hello", Action: domain.ActionSend, Response: "ok"},
		}},
	}
	msgRepo := &mockMessageRepo{}
	uc, _ := newTestDispatch(docs, msgRepo)

	uc.HandleMessage(context.Background(), userMessage("hello"))

	if len(msgRepo.deliveries) != 1 {
		t.Fatalf("Expected only the well-formed rule to fire, got %d deliveries", len(msgRepo.deliveries))
	}
	if msgRepo.deliveries[0].body != "ok" {
		t.Errorf("Unexpected delivery: %+v", msgRepo.deliveries[0])
	}
}

func TestHandleMessage_FailedActionStillStartsCooldown(t *testing.T) {
	docs := map[string]*domain.ChatDocument{
		"oc_1": {Expressions: []domain.Expression{
			{ID: "aaaaa", TriggerType: domain.TriggerPhrase, Trigger: "hello", Action: domain.ActionSend, Response: "hi!", Cooldown: 5},
		}},
	}
	msgRepo := &mockMessageRepo{failSend: true}
	uc, clock := newTestDispatch(docs, msgRepo)
	ctx := context.Background()

	uc.HandleMessage(ctx, userMessage("hello"))

	// The firing was claimed even though delivery failed
	msgRepo.failSend = false
	clock.Advance(time.Minute)
	uc.HandleMessage(ctx, userMessage("hello"))

	if len(msgRepo.deliveries) != 0 {
		t.Errorf("Expected cooldown to cover the failed firing, got %d deliveries", len(msgRepo.deliveries))
	}
}
