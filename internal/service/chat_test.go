package service

import (
	"context"
	"testing"
	"time"

	"circular-storefront/internal/client"
	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func msg(id, sender string, recipient *string) *model.AdminMessage {
	return &model.AdminMessage{ID: id, SenderID: sender, RecipientID: recipient, Content: "hi"}
}

func TestIsRelevant(t *testing.T) {
	broadcast := msg("1", "alice", nil)
	private := msg("2", "alice", ptr("bob"))

	for _, viewer := range []string{"alice", "bob", "carol"} {
		assert.True(t, IsRelevant(broadcast, viewer), "broadcast for %s", viewer)
	}

	assert.True(t, IsRelevant(private, "alice"))
	assert.True(t, IsRelevant(private, "bob"))
	assert.False(t, IsRelevant(private, "carol"))
}

func TestBelongsToConversation(t *testing.T) {
	tests := []struct {
		name    string
		msg     *model.AdminMessage
		viewer  string
		partner string
		want    bool
	}{
		{"broadcast in staff channel", msg("1", "alice", nil), "bob", "", true},
		{"private not in staff channel", msg("2", "alice", ptr("bob")), "bob", "", false},
		{"private sent to viewer", msg("3", "alice", ptr("bob")), "bob", "alice", true},
		{"private sent by viewer", msg("4", "bob", ptr("alice")), "bob", "alice", true},
		{"private with someone else", msg("5", "carol", ptr("bob")), "bob", "alice", false},
		{"broadcast not in private chat", msg("6", "alice", nil), "bob", "alice", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BelongsToConversation(tt.msg, tt.viewer, tt.partner))
		})
	}
}

func TestFeed_AcceptsOnlyNewRelevantMessages(t *testing.T) {
	feed := NewFeed("bob", "alice", []*model.AdminMessage{msg("1", "alice", ptr("bob"))})

	assert.False(t, feed.Accept(msg("1", "alice", ptr("bob"))), "duplicate")
	assert.False(t, feed.Accept(msg("2", "alice", ptr("carol"))), "not for bob")
	assert.False(t, feed.Accept(msg("3", "alice", nil)), "broadcast")
	assert.True(t, feed.Accept(msg("4", "bob", ptr("alice"))))

	got := feed.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
}

// subscribedBroker reports when a subscription is in place.
type subscribedBroker struct {
	client.MessageBroker
	ready chan struct{}
}

func (b *subscribedBroker) Subscribe(ctx context.Context) (client.Subscription, error) {
	sub, err := b.MessageBroker.Subscribe(ctx)
	close(b.ready)
	return sub, err
}

func TestChatService_SendAndWatch(t *testing.T) {
	db := newTestDB(t)
	broker := &subscribedBroker{MessageBroker: client.NewMemoryBroker(testLogger()), ready: make(chan struct{})}
	svc := NewChatService(repository.NewMessageRepository(db), broker, 50, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *model.AdminMessage, 4)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, "bob", "alice", func(m *model.AdminMessage) error {
			received <- m
			return nil
		})
	}()

	select {
	case <-broker.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("watch never subscribed")
	}

	_, err := svc.Send(ctx, "carol", ptr("alice"), "not for bob")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "alice", nil, "everyone")
	require.NoError(t, err)
	sent, err := svc.Send(ctx, "alice", ptr("bob"), "  parcel for you  ")
	require.NoError(t, err)
	assert.Equal(t, "parcel for you", sent.Content)

	select {
	case m := <-received:
		assert.Equal(t, sent.ID, m.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Empty(t, received)

	history, err := svc.History(context.Background(), "bob", "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sent.ID, history[0].ID)

	staff, err := svc.History(context.Background(), "bob", "")
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "everyone", staff[0].Content)
}

func TestChatService_SendValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewChatService(repository.NewMessageRepository(db), client.NewMemoryBroker(testLogger()), 50, testLogger())

	_, err := svc.Send(context.Background(), "alice", nil, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Send(context.Background(), "alice", ptr("alice"), "private note to self")
	assert.ErrorIs(t, err, ErrValidation)

	history, err := svc.History(context.Background(), "carol", "")
	require.NoError(t, err)
	assert.Empty(t, history, "nothing may reach the staff channel")

	// an empty recipient is the staff channel
	m, err := svc.Send(context.Background(), "alice", ptr(""), "hello all")
	require.NoError(t, err)
	assert.Nil(t, m.RecipientID)
	assert.True(t, IsRelevant(m, "carol"))
}
