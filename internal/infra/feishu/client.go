package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"github.com/sirupsen/logrus"
)

// Message represents a received Feishu message
type Message struct {
	ChatID      string
	MsgID       string
	MsgType     string // text, post
	ChatType    string // p2p (private), group
	Content     string // Text content (extracted from all message types)
	SenderID    string
	SenderIsBot bool  // True for app/bot senders
	CreateTime  int64 // Message creation time (milliseconds Unix timestamp from Feishu)
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// Client is the Feishu API client
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	wsCli     *larkws.Client
	onMessage MessageHandler
	ctx       context.Context
	cancel    context.CancelFunc
	botOpenID string // Bot's own open_id, fetched at startup
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start connects to Feishu via WebSocket and starts listening for messages
func (c *Client) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.larkCli = lark.NewClient(c.appID, c.appSecret)

	if err := c.fetchBotOpenID(); err != nil {
		logrus.Warnf("feishu: failed to fetch bot open_id: %v", err)
	}

	// Register event handler
	// Note: Must return quickly so SDK can send ACK, otherwise Feishu will retry due to timeout
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleMessage(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	logrus.Info("feishu: starting WebSocket connection")

	// Start WebSocket (blocking)
	return c.wsCli.Start(c.ctx)
}

// Stop disconnects from Feishu
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// fetchBotOpenID fetches the bot's own open_id
func (c *Client) fetchBotOpenID() error {
	// 1. First get tenant_access_token
	tokenReq := fmt.Sprintf(`{"app_id":"%s","app_secret":"%s"}`, c.appID, c.appSecret)
	tokenResp, err := http.Post(
		"https://open.feishu.cn/open-apis/auth/v3/tenant_access_token/internal",
		"application/json",
		strings.NewReader(tokenReq),
	)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	defer tokenResp.Body.Close()

	var tokenResult struct {
		Code              int    `json:"code"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(tokenResp.Body).Decode(&tokenResult); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}

	// 2. Get bot info
	req, _ := http.NewRequest("GET", "https://open.feishu.cn/open-apis/bot/v3/info", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResult.TenantAccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	defer resp.Body.Close()

	var botResult struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Bot  struct {
			OpenID  string `json:"open_id"`
			AppName string `json:"app_name"`
		} `json:"bot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&botResult); err != nil {
		return fmt.Errorf("decode bot info: %w", err)
	}

	if botResult.Code != 0 {
		return fmt.Errorf("API error: %s", botResult.Msg)
	}

	c.botOpenID = botResult.Bot.OpenID
	logrus.Infof("feishu: bot open_id %s (name=%s)", c.botOpenID, botResult.Bot.AppName)
	return nil
}

// handleMessage processes incoming Feishu messages
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	rawMsg := event.Event.Message
	if rawMsg == nil {
		return
	}

	// Filter out messages sent by the bot itself to prevent trigger loops
	senderType := ""
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil {
		senderType = *event.Event.Sender.SenderType
	}
	if senderType == "app" {
		return
	}

	msg := &Message{
		ChatID:      *rawMsg.ChatId,
		MsgID:       *rawMsg.MessageId,
		MsgType:     *rawMsg.MessageType,
		SenderIsBot: senderType != "" && senderType != "user",
	}

	// Parse create time (milliseconds Unix timestamp)
	if rawMsg.CreateTime != nil {
		if ts, err := strconv.ParseInt(*rawMsg.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}

	if rawMsg.ChatType != nil {
		msg.ChatType = *rawMsg.ChatType
	}

	if event.Event.Sender != nil && event.Event.Sender.SenderId != nil {
		if event.Event.Sender.SenderId.OpenId != nil {
			msg.SenderID = *event.Event.Sender.SenderId.OpenId
		}
	}

	// Second self-exclusion signal: drop events carrying our own open_id,
	// in case the gateway reports the sender type inconsistently
	if c.botOpenID != "" && msg.SenderID == c.botOpenID {
		return
	}

	// Build mention key -> name map so placeholders in the body become names
	mentionMap := make(map[string]string)
	for _, mention := range rawMsg.Mentions {
		if mention.Key != nil && mention.Name != nil {
			mentionMap[*mention.Key] = *mention.Name
		}
	}

	switch msg.MsgType {
	case "text":
		msg.Content = c.parseTextContent(*rawMsg.Content, mentionMap)
	case "post":
		msg.Content = c.parsePostContent(*rawMsg.Content, mentionMap)
	default:
		// Other message types carry no matchable text
		return
	}

	logrus.Debugf("feishu: received %s from %s chat %s: %s", msg.MsgType, msg.ChatType, msg.ChatID, truncate(msg.Content, 50))

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// parseTextContent extracts text from a text message
// It also replaces mention placeholders (@_user_1) with real names
func (c *Client) parseTextContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return replaceMentions(parsed.Text, mentionMap)
}

// parsePostContent extracts the text lines from a rich text message
func (c *Client) parsePostContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag    string `json:"tag"`
			Text   string `json:"text,omitempty"`
			UserID string `json:"user_id,omitempty"` // for "at" tags
		} `json:"content"`
	}

	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}

	var textParts []string
	if parsed.Title != "" {
		textParts = append(textParts, parsed.Title)
	}

	for _, line := range parsed.Content {
		var lineParts []string
		for _, elem := range line {
			switch elem.Tag {
			case "text":
				if elem.Text != "" {
					lineParts = append(lineParts, elem.Text)
				}
			case "at":
				if elem.UserID != "" {
					if name, ok := mentionMap[elem.UserID]; ok {
						lineParts = append(lineParts, "@"+name)
					} else {
						lineParts = append(lineParts, "@"+elem.UserID)
					}
				}
			}
		}
		if len(lineParts) > 0 {
			textParts = append(textParts, strings.Join(lineParts, ""))
		}
	}

	return replaceMentions(strings.Join(textParts, "\n"), mentionMap)
}

// replaceMentions replaces mention placeholders (@_user_1, @_user_2, etc.) with real names
func replaceMentions(text string, mentionMap map[string]string) string {
	if len(mentionMap) == 0 {
		return text
	}
	result := text
	for key, name := range mentionMap {
		result = strings.ReplaceAll(result, key, "@"+name)
	}
	return result
}

// SendText sends a text message to a chat
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}

	logrus.Debugf("feishu: message sent to %s", chatID)
	return nil
}

// ReplyText replies to a specific message, which notifies its author
func (c *Client) ReplyText(ctx context.Context, msgID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewReplyMessageReqBuilder().
		MessageId(msgID).
		Body(larkim.NewReplyMessageReqBodyBuilder().
			Content(string(contentJSON)).
			MsgType(larkim.MsgTypeText).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Reply(ctx, req)
	if err != nil {
		return fmt.Errorf("reply failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("reply error: %s", resp.Msg)
	}

	logrus.Debugf("feishu: reply sent to message %s", msgID)
	return nil
}

// AddReaction adds an emoji reaction to a message
func (c *Client) AddReaction(ctx context.Context, msgID, emojiType string) error {
	req := larkim.NewCreateMessageReactionReqBuilder().
		MessageId(msgID).
		Body(larkim.NewCreateMessageReactionReqBodyBuilder().
			ReactionType(larkim.NewEmojiBuilder().EmojiType(emojiType).Build()).
			Build()).
		Build()

	resp, err := c.larkCli.Im.MessageReaction.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("add reaction failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("add reaction error: %s", resp.Msg)
	}

	logrus.Debugf("feishu: reaction %s added to message %s", emojiType, msgID)
	return nil
}

// SendRichText sends a rich text (post) message to a chat
func (c *Client) SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error {
	post := map[string]interface{}{
		"zh_cn": map[string]interface{}{
			"title":   title,
			"content": content,
		},
	}
	contentJSON, _ := json.Marshal(post)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypePost).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send rich text failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send rich text error: %s", resp.Msg)
	}

	logrus.Debugf("feishu: rich text sent to %s", chatID)
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
