package data

import (
	"context"

	"github.com/idempomlieko/expressive/internal/biz/repo"
	"github.com/idempomlieko/expressive/internal/infra/feishu"
)

// feishuRepo implements the Feishu message repository
type feishuRepo struct {
	client *feishu.Client
}

// NewFeishuRepo creates a new Feishu repository
func NewFeishuRepo(client *feishu.Client) repo.MessageRepo {
	return &feishuRepo{client: client}
}

// SendText sends a text message
func (r *feishuRepo) SendText(ctx context.Context, chatID, text string) error {
	return r.client.SendText(ctx, chatID, text)
}

// ReplyText replies to a message
func (r *feishuRepo) ReplyText(ctx context.Context, msgID, text string) error {
	return r.client.ReplyText(ctx, msgID, text)
}

// AddReaction adds an emoji reaction
func (r *feishuRepo) AddReaction(ctx context.Context, msgID, emojiType string) error {
	return r.client.AddReaction(ctx, msgID, emojiType)
}

// SendRichText sends a rich text post
func (r *feishuRepo) SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error {
	return r.client.SendRichText(ctx, chatID, title, content)
}
