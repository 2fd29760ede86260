package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"circular-storefront/internal/client"
	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxMessageLength = 4000

// IsRelevant reports whether viewer should see msg at all: broadcasts go to
// every staff member, private messages only to their two participants.
func IsRelevant(msg *model.AdminMessage, viewer string) bool {
	if msg.RecipientID == nil {
		return true
	}
	return msg.SenderID == viewer || *msg.RecipientID == viewer
}

// BelongsToConversation narrows IsRelevant to the conversation on screen.
// An empty partner is the all-staff channel.
func BelongsToConversation(msg *model.AdminMessage, viewer, partner string) bool {
	if partner == "" {
		return msg.RecipientID == nil
	}
	if msg.RecipientID == nil {
		return false
	}
	return (msg.SenderID == viewer && *msg.RecipientID == partner) ||
		(msg.SenderID == partner && *msg.RecipientID == viewer)
}

// Feed is the message list held by one open chat view.
type Feed struct {
	viewer  string
	partner string

	mu       sync.Mutex
	messages []*model.AdminMessage
	seen     map[string]struct{}
}

func NewFeed(viewer, partner string, history []*model.AdminMessage) *Feed {
	f := &Feed{
		viewer:  viewer,
		partner: partner,
		seen:    make(map[string]struct{}, len(history)),
	}
	for _, msg := range history {
		f.Accept(msg)
	}
	return f
}

// Accept appends msg if it is new and belongs to this feed's conversation.
func (f *Feed) Accept(msg *model.AdminMessage) bool {
	if msg == nil || !IsRelevant(msg, f.viewer) || !BelongsToConversation(msg, f.viewer, f.partner) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.seen[msg.ID]; dup {
		return false
	}
	f.seen[msg.ID] = struct{}{}
	f.messages = append(f.messages, msg)
	return true
}

func (f *Feed) Messages() []*model.AdminMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.AdminMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

type ChatService interface {
	Send(ctx context.Context, senderID string, recipientID *string, content string) (*model.AdminMessage, error)
	History(ctx context.Context, viewer, partner string) ([]*model.AdminMessage, error)
	// Watch replays the conversation history to onMessage, then delivers
	// every accepted insert until ctx is done.
	Watch(ctx context.Context, viewer, partner string, onMessage func(*model.AdminMessage) error) error
}

type chatServiceImpl struct {
	messageRepo  repository.MessageRepository
	broker       client.MessageBroker
	historyLimit int
	log          *zap.Logger
}

func NewChatService(messageRepo repository.MessageRepository, broker client.MessageBroker, historyLimit int, log *zap.Logger) ChatService {
	if historyLimit < 1 {
		historyLimit = 200
	}
	return &chatServiceImpl{
		messageRepo:  messageRepo,
		broker:       broker,
		historyLimit: historyLimit,
		log:          log,
	}
}

func (s *chatServiceImpl) Send(ctx context.Context, senderID string, recipientID *string, content string) (*model.AdminMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if len(content) > maxMessageLength {
		return nil, fmt.Errorf("%w: message is longer than %d characters", ErrValidation, maxMessageLength)
	}
	if recipientID != nil && *recipientID == "" {
		recipientID = nil
	}
	if recipientID != nil && *recipientID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}

	msg := &model.AdminMessage{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if err := s.broker.Publish(ctx, msg); err != nil {
		s.log.Warn("publish chat message failed", zap.String("message_id", msg.ID), zap.Error(err))
	}
	return msg, nil
}

func (s *chatServiceImpl) History(ctx context.Context, viewer, partner string) ([]*model.AdminMessage, error) {
	messages, err := s.messageRepo.ListConversation(ctx, viewer, partner, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (s *chatServiceImpl) Watch(ctx context.Context, viewer, partner string, onMessage func(*model.AdminMessage) error) error {
	// subscribe before loading history so nothing inserted in between is lost;
	// the feed drops the overlap
	sub, err := s.broker.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe chat: %w", err)
	}
	defer sub.Close()

	history, err := s.History(ctx, viewer, partner)
	if err != nil {
		return err
	}
	feed := NewFeed(viewer, partner, history)
	for _, msg := range feed.Messages() {
		if err := onMessage(msg); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if !feed.Accept(msg) {
				continue
			}
			if err := onMessage(msg); err != nil {
				return err
			}
		}
	}
}
