package application

import (
	"sync"
	"time"
)

// session maps a durable player identity to its transient connection.
type session struct {
	connID    string
	createdAt time.Time
	lastSeen  time.Time
}

// SessionRegistry tracks, per player, the last-known connection and when
// it was last seen. A player who disconnects may reconnect within the
// grace period; after that the entry is invalid and an idle sweep removes
// it, notifying the expiry callback so the room can fold the seat.
type SessionRegistry struct {
	mu       sync.RWMutex
	grace    time.Duration
	now      func() time.Time
	entries  map[string]*session
	onExpire func(playerID string)

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionRegistry creates a registry with the given grace period.
func NewSessionRegistry(grace time.Duration) *SessionRegistry {
	return &SessionRegistry{
		grace:   grace,
		now:     time.Now,
		entries: make(map[string]*session),
		stop:    make(chan struct{}),
	}
}

// OnExpire registers the callback invoked for each entry the idle sweep
// removes. Set it before Start.
func (r *SessionRegistry) OnExpire(fn func(playerID string)) {
	r.mu.Lock()
	r.onExpire = fn
	r.mu.Unlock()
}

// Create registers a player's connection, stamping last-seen to now.
// Calling it for an existing player refreshes the connection.
func (r *SessionRegistry) Create(playerID, connID string) {
	now := r.now()
	r.mu.Lock()
	if entry, ok := r.entries[playerID]; ok {
		entry.connID = connID
		entry.lastSeen = now
	} else {
		r.entries[playerID] = &session{connID: connID, createdAt: now, lastSeen: now}
	}
	r.mu.Unlock()
}

// Touch refreshes the player's last-seen timestamp.
func (r *SessionRegistry) Touch(playerID string) {
	r.mu.Lock()
	if entry, ok := r.entries[playerID]; ok {
		entry.lastSeen = r.now()
	}
	r.mu.Unlock()
}

// Reconnect installs a new connection for the player iff the grace
// period has not elapsed since they were last seen. On failure the stale
// entry is removed and the caller must treat the player as gone.
func (r *SessionRegistry) Reconnect(playerID, newConnID string) bool {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[playerID]
	if !ok {
		return false
	}
	if now.Sub(entry.lastSeen) > r.grace {
		delete(r.entries, playerID)
		return false
	}
	entry.connID = newConnID
	entry.lastSeen = now
	return true
}

// IsValid reports whether the player's session is within the grace
// period. Pure timestamp comparison.
func (r *SessionRegistry) IsValid(playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[playerID]
	return ok && r.now().Sub(entry.lastSeen) <= r.grace
}

// ConnID returns the player's last-known connection handle.
func (r *SessionRegistry) ConnID(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[playerID]
	if !ok {
		return "", false
	}
	return entry.connID, true
}

// Remove deletes the player's session.
func (r *SessionRegistry) Remove(playerID string) {
	r.mu.Lock()
	delete(r.entries, playerID)
	r.mu.Unlock()
}

// Sweep removes every entry past the grace period and returns the
// removed player ids, invoking the expiry callback for each.
func (r *SessionRegistry) Sweep() []string {
	now := r.now()
	var expired []string

	r.mu.Lock()
	for playerID, entry := range r.entries {
		if now.Sub(entry.lastSeen) > r.grace {
			delete(r.entries, playerID)
			expired = append(expired, playerID)
		}
	}
	onExpire := r.onExpire
	r.mu.Unlock()

	if onExpire != nil {
		for _, playerID := range expired {
			onExpire(playerID)
		}
	}
	return expired
}

// Start runs the periodic idle sweep until Stop is called.
func (r *SessionRegistry) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// Stop halts the idle sweep. Idempotent.
func (r *SessionRegistry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}
