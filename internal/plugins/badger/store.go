package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"courier/internal/core/domain"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// MessageStore keeps the durable message log in an embedded BadgerDB. Keys
// are "msg:<conversation key>:<padded unixnano>:<id>", so a prefix scan over
// one conversation yields messages in append order.
type MessageStore struct {
	db *badgerdb.DB

	mu       sync.Mutex
	lastNano int64
}

func Open(path string) (*MessageStore, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, err
	}
	return &MessageStore{db: db}, nil
}

func (s *MessageStore) Close() error {
	return s.db.Close()
}

// stamp hands out strictly increasing timestamps, so two appends in the same
// nanosecond cannot produce colliding or reordered keys.
func (s *MessageStore) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	nano := time.Now().UnixNano()
	if nano <= s.lastNano {
		nano = s.lastNano + 1
	}
	s.lastNano = nano
	return time.Unix(0, nano)
}

func messageKey(convKey string, ts time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%020d:%s", convKey, ts.UnixNano(), id))
}

func (s *MessageStore) Append(ctx context.Context, key string, msg domain.Message) (domain.PersistedMessage, error) {
	p := domain.PersistedMessage{
		ID:              uuid.New(),
		ConversationKey: key,
		SenderID:        msg.SenderID,
		ReceiverID:      msg.ReceiverID,
		Text:            msg.Text,
		ImageURL:        msg.ImageURL,
		CreatedAt:       s.stamp(),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return domain.PersistedMessage{}, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(messageKey(key, p.CreatedAt, p.ID), data)
	})
	if err != nil {
		return domain.PersistedMessage{}, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	return p, nil
}

func (s *MessageStore) History(ctx context.Context, key string, limit int) ([]domain.PersistedMessage, error) {
	var msgs []domain.PersistedMessage
	prefix := []byte("msg:" + key + ":")

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var m domain.PersistedMessage
				if err := json.Unmarshal(v, &m); err != nil {
					return err
				}
				msgs = append(msgs, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:] // keep the newest
	}
	return msgs, nil
}
