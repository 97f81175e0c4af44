package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freshpick/smartshop/backend/internal/model/chat"
)

// DefaultSessionID is used when the caller does not supply a session id.
const DefaultSessionID = "anon"

// Service keeps per-session conversation history in memory. History lives for
// the process lifetime only; Clear is the sole removal path.
type Service struct {
	mu       sync.RWMutex
	sessions map[string][]chat.Turn
}

// NewService bootstraps the in-memory session store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string][]chat.Turn),
	}
}

// Append inserts a turn at the tail of the session history, creating the
// session on first use, and returns the stored turn.
func (s *Service) Append(sessionID string, role chat.Role, content string) chat.Turn {
	turn := chat.Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	s.mu.Unlock()

	return turn
}

// Recent returns the last n turns in arrival order. Unknown sessions yield an
// empty slice; the returned slice is a copy and never aliases internal state.
func (s *Service) Recent(sessionID string, n int) []chat.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if n <= 0 {
		return []chat.Turn{}
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied
}

// Clear removes the session entirely. Clearing an unknown session is a no-op.
func (s *Service) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}
