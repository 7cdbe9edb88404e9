// Package memory keeps a short, bounded conversation transcript per user so
// follow-up questions can be resolved. Nothing survives a process restart.
package memory

import (
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type record struct {
	messages     []Message
	lastActivity time.Time
}

// ConversationMemory tracks per-user transcripts. Each user's transcript is
// bounded by message count and expires after inactivity; the total number of
// tracked users is bounded too, evicting the oldest-inserted user first.
type ConversationMemory struct {
	mu          sync.Mutex
	records     map[string]*record
	order       []string // user insertion order, oldest first
	maxMessages int
	maxUsers    int
	idleTimeout time.Duration
	now         func() time.Time
}

func New(maxMessages, maxUsers int, idleTimeout time.Duration) *ConversationMemory {
	return &ConversationMemory{
		records:     make(map[string]*record),
		maxMessages: maxMessages,
		maxUsers:    maxUsers,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// NewWithClock is like New but with an injectable clock for tests.
func NewWithClock(maxMessages, maxUsers int, idleTimeout time.Duration, now func() time.Time) *ConversationMemory {
	m := New(maxMessages, maxUsers, idleTimeout)
	m.now = now
	return m
}

// History returns the user's transcript in order, oldest first. A record
// idle past the timeout is deleted and an empty history returned.
func (m *ConversationMemory) History(userID string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[userID]
	if !ok {
		return nil
	}
	if m.now().Sub(r.lastActivity) > m.idleTimeout {
		m.remove(userID)
		return nil
	}

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Append adds a message to the user's transcript, creating it if needed,
// trimming the oldest messages past the bound, and refreshing last activity.
func (m *ConversationMemory) Append(userID, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[userID]
	if !ok {
		if m.maxUsers > 0 && len(m.records) >= m.maxUsers {
			m.remove(m.order[0])
		}
		r = &record{}
		m.records[userID] = r
		m.order = append(m.order, userID)
	}

	r.messages = append(r.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: m.now(),
	})
	if m.maxMessages > 0 && len(r.messages) > m.maxMessages {
		r.messages = r.messages[len(r.messages)-m.maxMessages:]
	}
	r.lastActivity = m.now()
}

// Clear discards the user's transcript so a fresh conversation can start.
func (m *ConversationMemory) Clear(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(userID)
}

// Users returns the number of tracked users, idle ones included.
func (m *ConversationMemory) Users() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// remove must be called with the mutex held.
func (m *ConversationMemory) remove(userID string) {
	if _, ok := m.records[userID]; !ok {
		return
	}
	delete(m.records, userID)
	for i, id := range m.order {
		if id == userID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
