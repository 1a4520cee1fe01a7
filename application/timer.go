package application

import (
	"math"
	"sync"
	"time"
)

// TickFunc receives the remaining whole seconds (ceiling-rounded) once
// per second, with warning set once remaining drops to the warn
// threshold or below.
type TickFunc func(remaining int, warning bool)

// TurnTimers runs at most one countdown per room. Arming a room replaces
// any previous timer; the timer removes itself before firing its timeout
// so it can never double-fire, and Cancel is idempotent.
type TurnTimers struct {
	mu      sync.Mutex
	warnAt  time.Duration
	entries map[string]*turnTimer
	gens    map[string]uint64
}

type turnTimer struct {
	roomID    string
	playerID  string
	gen       uint64
	duration  time.Duration
	startedAt time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewTurnTimers creates a timer registry with the given warning threshold.
func NewTurnTimers(warnAt time.Duration) *TurnTimers {
	return &TurnTimers{
		warnAt:  warnAt,
		entries: make(map[string]*turnTimer),
		gens:    make(map[string]uint64),
	}
}

// Arm starts a countdown for the acting player in a room, replacing any
// existing timer for that room, and returns the countdown's generation.
// onTimeout fires once with that generation when the countdown elapses;
// onTick, if given, fires every second until then. Each Arm advances the
// room's generation, so a fire whose generation no longer matches
// Generation lapsed before a newer countdown replaced it.
func (t *TurnTimers) Arm(roomID, playerID string, d time.Duration, onTimeout func(gen uint64), onTick TickFunc) uint64 {
	entry := &turnTimer{
		roomID:    roomID,
		playerID:  playerID,
		duration:  d,
		startedAt: time.Now(),
		stop:      make(chan struct{}),
	}

	t.mu.Lock()
	if old := t.entries[roomID]; old != nil {
		old.cancel()
	}
	t.gens[roomID]++
	entry.gen = t.gens[roomID]
	t.entries[roomID] = entry
	t.mu.Unlock()

	go entry.run(t, onTimeout, onTick)
	return entry.gen
}

// Generation returns the room's current arm counter. Cancel does not
// advance it; only Arm does.
func (t *TurnTimers) Generation(roomID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gens[roomID]
}

// Cancel stops the room's countdown and ticks. Safe to call when no
// timer is armed.
func (t *TurnTimers) Cancel(roomID string) {
	t.mu.Lock()
	if entry := t.entries[roomID]; entry != nil {
		entry.cancel()
		delete(t.entries, roomID)
	}
	t.mu.Unlock()
}

// Armed returns the player the room's active timer is waiting on.
func (t *TurnTimers) Armed(roomID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[roomID]
	if !ok {
		return "", false
	}
	return entry.playerID, true
}

func (e *turnTimer) cancel() {
	e.stopOnce.Do(func() { close(e.stop) })
}

func (e *turnTimer) run(t *TurnTimers, onTimeout func(gen uint64), onTick TickFunc) {
	timer := time.NewTimer(e.duration)
	ticker := time.NewTicker(time.Second)
	defer timer.Stop()
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-timer.C:
			// Remove ourselves before invoking the callback so a
			// concurrent Arm or Cancel cannot race a second fire.
			t.mu.Lock()
			if t.entries[e.roomID] == e {
				delete(t.entries, e.roomID)
			}
			t.mu.Unlock()
			onTimeout(e.gen)
			return
		case now := <-ticker.C:
			if onTick == nil {
				continue
			}
			remaining := e.duration - now.Sub(e.startedAt)
			secs := int(math.Ceil(remaining.Seconds()))
			if secs < 0 {
				secs = 0
			}
			onTick(secs, remaining <= t.warnAt)
		}
	}
}
