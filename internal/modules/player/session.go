package player

import (
	"context"
	"sync"
	"time"
)

const DefaultSessionTTL = 2 * time.Hour

// SessionStore keeps player snapshots between requests.
type SessionStore interface {
	// Load returns ok=false when no live snapshot exists.
	Load(ctx context.Context, userID, lessonID string) (State, bool, error)
	Save(ctx context.Context, st State) error
	Delete(ctx context.Context, userID, lessonID string) error
}

func sessionKey(userID, lessonID string) string {
	return "player:" + userID + ":" + lessonID
}

type memoryEntry struct {
	state   State
	expires time.Time
}

type MemorySessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemorySessions(ttl time.Duration) *MemorySessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessions{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (m *MemorySessions) Load(_ context.Context, userID, lessonID string) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey(userID, lessonID)
	e, ok := m.entries[key]
	if !ok {
		return State{}, false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return State{}, false, nil
	}
	return e.state, true, nil
}

func (m *MemorySessions) Save(_ context.Context, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	st.UpdatedAt = now
	m.entries[sessionKey(st.UserID, st.LessonID)] = memoryEntry{state: st, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemorySessions) Delete(_ context.Context, userID, lessonID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionKey(userID, lessonID))
	return nil
}
