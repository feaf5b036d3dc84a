package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	appended []domain.PersistedMessage
	history  []domain.PersistedMessage
	failWith error
	calls    *[]string
}

func (s *fakeStore) Append(_ context.Context, key string, msg domain.Message) (domain.PersistedMessage, error) {
	if s.calls != nil {
		*s.calls = append(*s.calls, "append")
	}
	if s.failWith != nil {
		return domain.PersistedMessage{}, s.failWith
	}
	p := domain.PersistedMessage{
		ID:              uuid.New(),
		ConversationKey: key,
		SenderID:        msg.SenderID,
		ReceiverID:      msg.ReceiverID,
		Text:            msg.Text,
		ImageURL:        msg.ImageURL,
		CreatedAt:       time.Now(),
	}
	s.appended = append(s.appended, p)
	return p, nil
}

func (s *fakeStore) History(_ context.Context, key string, limit int) ([]domain.PersistedMessage, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.history, nil
}

type fakeConn struct {
	id      string
	sent    [][]byte
	sendErr error
	calls   *[]string
}

func (c *fakeConn) ID() string { return c.id }
func (c *fakeConn) Close()     {}

func (c *fakeConn) Send(_ context.Context, data []byte) error {
	if c.calls != nil {
		*c.calls = append(*c.calls, "send")
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, data)
	return nil
}

type fakeRegistry struct {
	entries map[string]contracts.Client
	lookups int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{entries: map[string]contracts.Client{}}
}

func (r *fakeRegistry) Register(user string, c contracts.Client) { r.entries[user] = c }
func (r *fakeRegistry) Unregister(c contracts.Client)            {}
func (r *fakeRegistry) Online() []string                         { return nil }

func (r *fakeRegistry) Lookup(user string) (contracts.Client, bool) {
	r.lookups++
	c, ok := r.entries[user]
	return c, ok
}

func TestRoute_PersistsAndDeliversToOnlineReceiver(t *testing.T) {
	req := require.New(t)
	var calls []string
	store := &fakeStore{calls: &calls}
	reg := newFakeRegistry()
	conn := &fakeConn{id: "H", calls: &calls}
	reg.Register("u2", conn)
	router := NewRouter(slog.Default(), store, reg)

	receipt, err := router.Route(context.Background(), domain.Inbound{
		SenderID:   "u1",
		ReceiverID: "u2",
		Text:       "hi",
	})
	req.NoError(err)
	req.True(receipt.Delivered)

	req.Len(store.appended, 1)
	persisted := store.appended[0]
	req.Equal("u1_u2", persisted.ConversationKey)
	req.False(persisted.Read)
	req.Empty(persisted.ImageURL)

	req.Len(conn.sent, 1)
	var delivered domain.ChatMessage
	req.NoError(json.Unmarshal(conn.sent[0], &delivered))
	req.Equal("u1_u2", delivered.ChatRoomID)
	req.Equal("hi", delivered.Text)
	req.Equal("u1", delivered.SenderID)

	// persistence strictly precedes the delivery attempt
	req.Equal([]string{"append", "send"}, calls)
}

func TestRoute_OfflineReceiverPersistsWithoutDelivery(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	router := NewRouter(slog.Default(), store, newFakeRegistry())

	receipt, err := router.Route(context.Background(), domain.Inbound{
		SenderID:   "u1",
		ReceiverID: "u2",
		Text:       "hi",
	})
	req.NoError(err)
	req.False(receipt.Delivered)
	req.Len(store.appended, 1)
	req.Equal("u1_u2", store.appended[0].ConversationKey)
}

func TestRoute_InvalidPayloadHasNoSideEffects(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	reg := newFakeRegistry()
	router := NewRouter(slog.Default(), store, reg)

	_, err := router.Route(context.Background(), domain.Inbound{
		SenderID: "u1", // receiver missing
		Text:     "hi",
	})
	req.ErrorIs(err, domain.ErrInvalidPayload)
	req.Empty(store.appended)
	req.Zero(reg.lookups)
}

func TestRoute_UnderscoreReceiverIsRejected(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	reg := newFakeRegistry()
	router := NewRouter(slog.Default(), store, reg)

	// "a" → "b_c" and "c" → "a_b" would both derive the key "a_b_c"; the
	// underscore never reaches the key derivation
	_, err := router.Route(context.Background(), domain.Inbound{
		SenderID:   "a",
		ReceiverID: "b_c",
		Text:       "hi",
	})
	req.ErrorIs(err, domain.ErrInvalidPayload)
	req.Empty(store.appended)
	req.Zero(reg.lookups)

	_, err = router.Route(context.Background(), domain.Inbound{
		SenderID:   "c",
		ReceiverID: "a_b",
		Text:       "hi",
	})
	req.ErrorIs(err, domain.ErrInvalidPayload)
	req.Empty(store.appended)
}

func TestRoute_EmptyMessageIsAccepted(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	router := NewRouter(slog.Default(), store, newFakeRegistry())

	_, err := router.Route(context.Background(), domain.Inbound{
		SenderID:   "u1",
		ReceiverID: "u2",
	})
	req.NoError(err)
	req.Len(store.appended, 1)
	req.Empty(store.appended[0].Text)
}

func TestRoute_StoreUnavailableStopsRouting(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{failWith: domain.ErrStoreUnavailable}
	reg := newFakeRegistry()
	conn := &fakeConn{id: "H"}
	reg.Register("u2", conn)
	router := NewRouter(slog.Default(), store, reg)

	_, err := router.Route(context.Background(), domain.Inbound{
		SenderID:   "u1",
		ReceiverID: "u2",
		Text:       "hi",
	})
	req.ErrorIs(err, domain.ErrStoreUnavailable)
	req.Empty(conn.sent)
	req.Zero(reg.lookups, "registry must not be consulted when persistence fails")
}

func TestRoute_DeliveryFailureIsSwallowed(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	reg := newFakeRegistry()
	conn := &fakeConn{id: "H", sendErr: errors.New("peer gone")}
	reg.Register("u2", conn)
	router := NewRouter(slog.Default(), store, reg)

	receipt, err := router.Route(context.Background(), domain.Inbound{
		SenderID:   "u1",
		ReceiverID: "u2",
		Text:       "hi",
	})
	req.NoError(err, "a stored message never fails routing on transport errors")
	req.False(receipt.Delivered)
	req.Len(store.appended, 1)
}

func TestHistory(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{history: []domain.PersistedMessage{
		{ConversationKey: "u1_u2", Text: "one"},
		{ConversationKey: "u1_u2", Text: "two"},
	}}
	router := NewRouter(slog.Default(), store, newFakeRegistry())

	msgs, err := router.History(context.Background(), "u1", "u2", 0)
	req.NoError(err)
	req.Len(msgs, 2)

	_, err = router.History(context.Background(), "u1", "not valid", 0)
	req.ErrorIs(err, domain.ErrInvalidIdentity)
}
