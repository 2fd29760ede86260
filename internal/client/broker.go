package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"circular-storefront/internal/model"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MessageBroker carries admin_messages insert notifications to every
// connected viewer. It does no filtering.
type MessageBroker interface {
	Publish(ctx context.Context, msg *model.AdminMessage) error
	Subscribe(ctx context.Context) (Subscription, error)
	Close() error
}

type Subscription interface {
	Messages() <-chan *model.AdminMessage
	Close() error
}

// --- redis ---

type redisBroker struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisBroker(ctx context.Context, redisURL, channel string, log *zap.Logger) (MessageBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &redisBroker{rdb: rdb, channel: channel, log: log}, nil
}

func (b *redisBroker) Publish(ctx context.Context, msg *model.AdminMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

func (b *redisBroker) Subscribe(ctx context.Context) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, b.channel)
	// wait for the subscription confirmation so no insert published after
	// Subscribe returns can be missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	sub := &redisSubscription{ps: ps, out: make(chan *model.AdminMessage, 16)}
	go sub.pump(ctx, b.log)
	return sub, nil
}

func (b *redisBroker) Close() error {
	return b.rdb.Close()
}

type redisSubscription struct {
	ps  *redis.PubSub
	out chan *model.AdminMessage
}

func (s *redisSubscription) pump(ctx context.Context, log *zap.Logger) {
	defer close(s.out)
	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var msg model.AdminMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				log.Warn("drop malformed chat payload", zap.Error(err))
				continue
			}
			select {
			case s.out <- &msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *redisSubscription) Messages() <-chan *model.AdminMessage { return s.out }

func (s *redisSubscription) Close() error { return s.ps.Close() }

// --- in-process ---

type memoryBroker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*memorySubscription
	log    *zap.Logger
}

// NewMemoryBroker fans out within a single process. Used when no Redis URL is configured.
func NewMemoryBroker(log *zap.Logger) MessageBroker {
	return &memoryBroker{subs: make(map[int]*memorySubscription), log: log}
}

func (b *memoryBroker) Publish(_ context.Context, msg *model.AdminMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		cp := *msg
		select {
		case sub.out <- &cp:
		default:
			b.log.Warn("chat subscriber is full, dropping message",
				zap.Int("subscriber", id), zap.String("message_id", msg.ID))
		}
	}
	return nil
}

func (b *memoryBroker) Subscribe(ctx context.Context) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &memorySubscription{
		id:     b.nextID,
		out:    make(chan *model.AdminMessage, 64),
		broker: b,
	}
	b.subs[sub.id] = sub

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

func (b *memoryBroker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.out)
	}
}

func (b *memoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.out)
	}
	return nil
}

type memorySubscription struct {
	id     int
	out    chan *model.AdminMessage
	broker *memoryBroker
	once   sync.Once
}

func (s *memorySubscription) Messages() <-chan *model.AdminMessage { return s.out }

func (s *memorySubscription) Close() error {
	s.once.Do(func() { s.broker.remove(s.id) })
	return nil
}
