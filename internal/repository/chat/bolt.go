package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/docusort/internal/domain"
	domchat "github.com/kailas-cloud/docusort/internal/domain/chat"
)

var bucketSessions = []byte("chat_sessions")

// BoltStore persists sessions as JSON values in a bbolt file, keyed by session ID.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// OpenBoltStore opens (or creates) the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open chat store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db, now: utcNow}, nil
}

// Get returns a session or ErrChatNotFound.
func (s *BoltStore) Get(_ context.Context, id string) (domchat.Session, error) {
	var sess domchat.Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		found, err := load(tx.Bucket(bucketSessions), id, &sess)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("chat %s: %w", id, domain.ErrChatNotFound)
		}
		return nil
	})
	return sess, err
}

// List returns summaries, most recently updated first.
func (s *BoltStore) List(_ context.Context) ([]domchat.Summary, error) {
	var out []domchat.Summary
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, v []byte) error {
			var sess domchat.Session
			if err := json.Unmarshal(v, &sess); err != nil {
				return fmt.Errorf("decode chat %s: %w", k, err)
			}
			out = append(out, sess.Summarize())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortSummaries(out)
	return out, nil
}

// Create stores a new session under a fresh ID.
func (s *BoltStore) Create(_ context.Context, title string, msgs []domchat.Message) (domchat.Session, error) {
	sess := newSession(uuid.NewString(), title, msgs, s.now())
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return save(tx.Bucket(bucketSessions), sess)
	})
	if err != nil {
		return domchat.Session{}, err
	}
	return sess, nil
}

// Append adds messages to a session in one transaction, creating it under id when absent.
func (s *BoltStore) Append(
	_ context.Context, id string, msgs []domchat.Message, titleHint string,
) (domchat.Session, error) {
	var sess domchat.Session
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		found, err := load(b, id, &sess)
		if err != nil {
			return err
		}
		if found {
			sess = sess.Extend(msgs, titleHint, s.now())
		} else {
			sess = newSession(id, titleHint, msgs, s.now())
		}
		return save(b, sess)
	})
	if err != nil {
		return domchat.Session{}, err
	}
	return sess, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func load(b *bbolt.Bucket, id string, sess *domchat.Session) (bool, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, sess); err != nil {
		return false, fmt.Errorf("decode chat %s: %w", id, err)
	}
	return true, nil
}

func save(b *bbolt.Bucket, sess domchat.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode chat %s: %w", sess.ID, err)
	}
	return b.Put([]byte(sess.ID), data)
}
