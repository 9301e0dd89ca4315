// Package chat stores conversation sessions.
package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docusort/internal/domain"
	domchat "github.com/kailas-cloud/docusort/internal/domain/chat"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domchat.Session
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domchat.Session), now: utcNow}
}

// Get returns a session or ErrChatNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (domchat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domchat.Session{}, fmt.Errorf("chat %s: %w", id, domain.ErrChatNotFound)
	}
	return sess, nil
}

// List returns summaries, most recently updated first.
func (s *MemoryStore) List(_ context.Context) ([]domchat.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domchat.Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Summarize())
	}
	sortSummaries(out)
	return out, nil
}

// Create stores a new session under a fresh ID.
func (s *MemoryStore) Create(_ context.Context, title string, msgs []domchat.Message) (domchat.Session, error) {
	sess := newSession(uuid.NewString(), title, msgs, s.now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

// Append adds messages to a session, creating it under id when absent.
func (s *MemoryStore) Append(
	_ context.Context, id string, msgs []domchat.Message, titleHint string,
) (domchat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok {
		sess = sess.Extend(msgs, titleHint, s.now())
	} else {
		sess = newSession(id, titleHint, msgs, s.now())
	}
	s.sessions[id] = sess
	return sess, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func newSession(id, title string, msgs []domchat.Message, now time.Time) domchat.Session {
	if title == "" {
		title = domchat.DefaultTitle
	}
	return domchat.Session{
		ID:        id,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  append([]domchat.Message(nil), msgs...),
	}
}

func sortSummaries(s []domchat.Summary) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].UpdatedAt.After(s[j].UpdatedAt) })
}

func utcNow() time.Time { return time.Now().UTC() }
