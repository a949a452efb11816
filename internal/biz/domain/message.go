package domain

import "time"

// Message represents an inbound chat message evaluated against expressions
type Message struct {
	ChatID     string
	MsgID      string
	SenderID   string
	SenderName string
	Content    string
	FromBot    bool // Whether the author is the bot or another automated account
	CreateTime time.Time
}
