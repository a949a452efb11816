package server

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/usecase"
	"github.com/idempomlieko/expressive/internal/infra/feishu"
)

// defaultDedupWindow is how long processed message IDs are remembered
const defaultDedupWindow = 5 * time.Minute

// FeishuServer receives Feishu message events and feeds them to the
// expression dispatch engine
type FeishuServer struct {
	feishuClient *feishu.Client
	dispatchUC   *usecase.DispatchUsecase
	dedupWindow  time.Duration

	// Message deduplication cache
	seenMsgsMu sync.RWMutex
	seenMsgs   map[string]time.Time // msgID -> timestamp
}

// NewFeishuServer creates a new Feishu server
func NewFeishuServer(feishuClient *feishu.Client, dispatchUC *usecase.DispatchUsecase, dedupWindow time.Duration) *FeishuServer {
	if dedupWindow <= 0 {
		dedupWindow = defaultDedupWindow
	}
	return &FeishuServer{
		feishuClient: feishuClient,
		dispatchUC:   dispatchUC,
		dedupWindow:  dedupWindow,
		seenMsgs:     make(map[string]time.Time),
	}
}

// Start starts the server
func (s *FeishuServer) Start() error {
	s.feishuClient.OnMessage(s.handleMessage)
	return s.feishuClient.Start()
}

// Stop stops the server
func (s *FeishuServer) Stop() {
	s.feishuClient.Stop()
}

// handleMessage handles Feishu messages. Each inbound message is one
// independent unit of work; the gateway may redeliver, so processed
// message IDs are remembered for the dedup window.
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	if s.isMessageSeen(msg.MsgID) {
		logrus.Debugf("server: duplicate message ignored: %s", msg.MsgID)
		return
	}
	s.markMessageSeen(msg.MsgID)

	createTime := time.Now()
	if msg.CreateTime > 0 {
		createTime = time.UnixMilli(msg.CreateTime)
	}

	s.dispatchUC.HandleMessage(context.Background(), &domain.Message{
		ChatID:     msg.ChatID,
		MsgID:      msg.MsgID,
		SenderID:   msg.SenderID,
		Content:    msg.Content,
		FromBot:    msg.SenderIsBot,
		CreateTime: createTime,
	})
}

// isMessageSeen checks if a message has been processed
func (s *FeishuServer) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.RLock()
	defer s.seenMsgsMu.RUnlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen marks a message as processed and sweeps expired entries
func (s *FeishuServer) markMessageSeen(msgID string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	s.seenMsgs[msgID] = time.Now()

	cutoff := time.Now().Add(-s.dedupWindow)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
