package application

import (
	"sync"
	"time"

	"github.com/fukuta0614/holdem-room/domain/poker"
)

// RoomState is the lifecycle tag of a room.
type RoomState string

const (
	RoomWaiting    RoomState = "waiting"
	RoomInProgress RoomState = "in_progress"
	RoomEnded      RoomState = "ended"
)

// Room is one table: a host, its seated players, blind sizes, the dealer
// button, and at most one active round. All access to a room's mutable
// state is serialized by its mutex; timer callbacks and transport-driven
// actions take the same lock.
type Room struct {
	mu sync.Mutex

	ID         string
	HostID     string
	State      RoomState
	SmallBlind int
	BigBlind   int
	Button     int
	Players    []*poker.Player
	Round      *poker.Round

	nextHand *time.Timer // pending next-hand schedule, cancellable
}

// playerByID returns the seated player, or nil. Callers hold mu.
func (r *Room) playerByID(playerID string) *poker.Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// cancelNextHand stops a pending next-hand schedule. Callers hold mu.
func (r *Room) cancelNextHand() {
	if r.nextHand != nil {
		r.nextHand.Stop()
		r.nextHand = nil
	}
}

// seats returns the public seat list. Callers hold mu.
func (r *Room) seats() []map[string]any {
	out := make([]map[string]any, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, map[string]any{
			"playerId": p.ID,
			"name":     p.Name,
			"seat":     p.Seat,
			"stack":    p.Stack,
		})
	}
	return out
}

// RoomStore is the owned registry of live rooms. Cross-room operations
// are independent; the store lock only guards the map itself.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomStore creates an empty room registry.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*Room)}
}

// Put registers a room under its id.
func (s *RoomStore) Put(room *Room) {
	s.mu.Lock()
	s.rooms[room.ID] = room
	s.mu.Unlock()
}

// Get returns the room, or ErrRoomNotFound.
func (s *RoomStore) Get(roomID string) (*Room, error) {
	s.mu.RLock()
	room, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Delete removes the room from the registry.
func (s *RoomStore) Delete(roomID string) {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
}

// FindByPlayer returns the room in which the player is seated, or
// ErrRoomNotFound. The room set is snapshotted first so the store lock
// is never held while waiting on a room lock; callers holding a room
// lock may therefore use the store freely.
func (s *RoomStore) FindByPlayer(playerID string) (*Room, error) {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	for _, room := range rooms {
		room.mu.Lock()
		seated := room.playerByID(playerID) != nil
		room.mu.Unlock()
		if seated {
			return room, nil
		}
	}
	return nil, ErrRoomNotFound
}

// Len returns the number of registered rooms.
func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
