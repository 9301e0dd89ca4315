package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	// RoleUser is a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant is a generated answer.
	RoleAssistant Role = "assistant"
)

// RelatedChunk references a retrieved chunk shown alongside an answer.
type RelatedChunk struct {
	DocumentID   string  `json:"docId"`
	ChunkID      string  `json:"chunkId"`
	Score        float64 `json:"score"`
	Snippet      string  `json:"snippet"`
	DocumentName string  `json:"documentName"`
}

// GeneratedPnL describes a P&L package produced during a chat turn.
type GeneratedPnL struct {
	Property        string   `json:"property"`
	Summary         string   `json:"summary"`
	CSVURL          string   `json:"csvUrl"`
	XLSXURL         string   `json:"xlsxUrl"`
	Totals          Totals   `json:"totals"`
	RetrievedChunks int      `json:"retrievedChunks"`
	Sources         []string `json:"sources"`
}

// Totals are the headline P&L numbers.
type Totals struct {
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	NOI      float64 `json:"noi"`
}

// MessageMetadata carries retrieval details attached to a message.
type MessageMetadata struct {
	RetrievedChunks  *int           `json:"retrievedChunks,omitempty"`
	RelatedDocuments []RelatedChunk `json:"relatedDocuments,omitempty"`
	DocumentName     *string        `json:"documentName"`
	GeneratedPnL     []GeneratedPnL `json:"generatedPnl,omitempty"`
}

// Message is a single turn in a conversation.
type Message struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"createdAt"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// Session is a persisted conversation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// Summary is the list view of a session.
type Summary struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	UpdatedAt          time.Time `json:"updatedAt"`
	LastMessagePreview string    `json:"lastMessagePreview,omitempty"`
}

// DefaultTitle is used when neither the session nor the caller supplies a title.
const DefaultTitle = "Conversation"

// previewLen is the rune length of LastMessagePreview.
const previewLen = 120

// Summarize builds the list view of a session.
func (s *Session) Summarize() Summary {
	sum := Summary{ID: s.ID, Title: s.Title, UpdatedAt: s.UpdatedAt}
	if n := len(s.Messages); n > 0 {
		sum.LastMessagePreview = truncateRunes(s.Messages[n-1].Content, previewLen)
	}
	return sum
}

// Extend returns a copy of s with msgs appended. An empty title is replaced by
// titleHint, then DefaultTitle. UpdatedAt follows the last appended message.
func (s Session) Extend(msgs []Message, titleHint string, now time.Time) Session {
	if s.Title == "" {
		s.Title = titleHint
	}
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	s.UpdatedAt = now
	if n := len(msgs); n > 0 && !msgs[n-1].CreatedAt.IsZero() {
		s.UpdatedAt = msgs[n-1].CreatedAt
	}
	merged := make([]Message, 0, len(s.Messages)+len(msgs))
	s.Messages = append(append(merged, s.Messages...), msgs...)
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
