package repo

import "context"

// MessageRepo is the outbound message delivery interface
// Responsible for performing expression actions against the Feishu API
type MessageRepo interface {
	// SendText sends a new text message to a chat
	SendText(ctx context.Context, chatID, text string) error

	// ReplyText replies to a specific message
	ReplyText(ctx context.Context, msgID, text string) error

	// AddReaction adds an emoji reaction to a message
	AddReaction(ctx context.Context, msgID, emojiType string) error

	// SendRichText sends a rich text (post) message, used for audit log entries
	SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error
}
