package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TriggerType decides what makes an expression fire
type TriggerType string

const (
	TriggerUser   TriggerType = "user"   // A specific user posting a message
	TriggerPhrase TriggerType = "phrase" // A phrase appearing in a message
)

// Action is what the bot does when an expression fires
type Action string

const (
	ActionSend  Action = "send"  // Send a new message to the chat
	ActionReply Action = "reply" // Reply to the triggering message
	ActionReact Action = "react" // React to the triggering message with an emoji
)

// ExpressionIDLength is the length of generated expression IDs
const ExpressionIDLength = 5

// Expression represents a trigger -> action rule configured per chat
type Expression struct {
	ID          string      `json:"id"`
	TriggerType TriggerType `json:"trigger_type"`
	Trigger     string      `json:"trigger"`
	Action      Action      `json:"action"`
	Response    string      `json:"response"`
	Cooldown    int         `json:"cooldown"` // Minutes, 0 means no cooldown
	CreatedBy   string      `json:"created_by"`
}

// ParseTriggerType normalizes and validates a trigger type string
func ParseTriggerType(s string) (TriggerType, error) {
	switch t := TriggerType(strings.ToLower(s)); t {
	case TriggerUser, TriggerPhrase:
		return t, nil
	default:
		return "", fmt.Errorf("unknown trigger type %q", s)
	}
}

// ParseAction normalizes and validates an action string
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(s)); a {
	case ActionSend, ActionReply, ActionReact:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Validate checks expression invariants
func (e *Expression) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("expression has no id")
	}
	if _, err := ParseTriggerType(string(e.TriggerType)); err != nil {
		return err
	}
	if _, err := ParseAction(string(e.Action)); err != nil {
		return err
	}
	if e.Cooldown < 0 {
		return fmt.Errorf("cooldown must be >= 0, got %d", e.Cooldown)
	}
	return nil
}

// Matches reports whether the message triggers this expression.
// Expressions with an unknown trigger type or action never match.
func (e *Expression) Matches(msg *Message) bool {
	if _, err := ParseAction(string(e.Action)); err != nil {
		return false
	}

	switch e.TriggerType {
	case TriggerUser:
		return msg.SenderID == e.Trigger
	case TriggerPhrase:
		return strings.Contains(strings.ToLower(msg.Content), strings.ToLower(e.Trigger))
	default:
		return false
	}
}

// NewExpressionID generates a short opaque expression ID.
// Uniqueness within a chat is enforced by the caller (regenerate on collision).
func NewExpressionID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:ExpressionIDLength]
}
