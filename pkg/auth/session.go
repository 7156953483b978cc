package auth

import (
	"sync"
	"time"
)

// SessionInfo is what a bearer token maps to: when it stops being
// valid, and which roles it was issued with.
type SessionInfo struct {
	Expiry time.Time
	Roles  []string
}

// SessionTable is the process-wide token -> SessionInfo map. Expired
// entries are never proactively swept; they are dropped the next time
// their own token is looked up.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[string]SessionInfo
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: map[string]SessionInfo{}}
}

func (t *SessionTable) Put(token string, info SessionInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[token] = info
}

// Get returns the roles for token if it exists and has not expired,
// purging it from the table if it has.
func (t *SessionTable) Get(token string) ([]string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.sessions[token]
	if !ok {
		return nil, false
	}
	if time.Now().UTC().After(info.Expiry) {
		delete(t.sessions, token)
		return nil, false
	}
	return info.Roles, true
}
