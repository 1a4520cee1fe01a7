package application

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fukuta0614/holdem-room/domain/poker"
)

// eventLog collects events pushed through the async emit sink. Timer and
// schedule goroutines write concurrently with test assertions.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) find(t EventType) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range l.events {
		if ev.Type == t {
			return ev, true
		}
	}
	return Event{}, false
}

// waitFor polls until an event of the given type arrives or the deadline
// passes.
func (l *eventLog) waitFor(t *testing.T, typ EventType, timeout time.Duration) Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ev, ok := l.find(typ); ok {
			return ev
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %s event within %v", typ, timeout)
	return Event{}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TurnTimeout = time.Hour
	cfg.NextHandDelay = time.Hour
	return cfg
}

func newTestOrchestrator(cfg Config) (*Orchestrator, *eventLog) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := NewOrchestrator(cfg, log, NewRoomStore(), NewTurnTimers(cfg.TurnWarning), NewSessionRegistry(cfg.GracePeriod))
	sink := &eventLog{}
	o.SetEmitter(sink.add)
	return o, sink
}

func findEvent(events []Event, typ EventType) (Event, bool) {
	for _, ev := range events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return Event{}, false
}

// headsUpRoom creates a room with alice hosting and bob seated, and
// returns its id. The caller starts the round.
func headsUpRoom(t *testing.T, o *Orchestrator) string {
	t.Helper()
	events, err := o.CreateRoom("alice", "Alice", "conn-a")
	require.NoError(t, err)
	roomID := events[0].RoomID
	_, err = o.JoinRoom(roomID, "bob", "Bob", "conn-b")
	require.NoError(t, err)
	t.Cleanup(func() {
		o.timers.Cancel(roomID)
		if room, err := o.rooms.Get(roomID); err == nil {
			room.mu.Lock()
			room.cancelNextHand()
			room.mu.Unlock()
		}
	})
	return roomID
}

func TestCreateRoomSeatsHost(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())

	events, err := o.CreateRoom("alice", "Alice", "conn-a")
	require.NoError(t, err)
	require.Len(t, events, 2)

	created, ok := findEvent(events, EventRoomCreated)
	require.True(t, ok)
	assert.Equal(t, "alice", created.Data["hostId"])

	joined, ok := findEvent(events, EventJoinedRoom)
	require.True(t, ok)
	assert.Equal(t, "alice", joined.Private, "joinedRoom must be private to the host")
	assert.Equal(t, 0, joined.Data["seat"])

	assert.Equal(t, 1, o.rooms.Len())
	assert.True(t, o.sessions.IsValid("alice"))
}

func TestJoinRoomRejections(t *testing.T) {
	cfg := testConfig()
	cfg.SeatCap = 2
	o, _ := newTestOrchestrator(cfg)
	roomID := headsUpRoom(t, o)

	_, err := o.JoinRoom("nope", "carol", "Carol", "conn-c")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = o.JoinRoom(roomID, "bob", "Bob", "conn-b2")
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = o.JoinRoom(roomID, "carol", "Carol", "conn-c")
	assert.ErrorIs(t, err, ErrRoomFull)

	cfg.SeatCap = 9
	o2, _ := newTestOrchestrator(cfg)
	roomID2 := headsUpRoom(t, o2)
	_, err = o2.StartRound(roomID2, "alice")
	require.NoError(t, err)
	_, err = o2.JoinRoom(roomID2, "carol", "Carol", "conn-c")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestStartRoundGuards(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())

	events, err := o.CreateRoom("alice", "Alice", "conn-a")
	require.NoError(t, err)
	roomID := events[0].RoomID

	_, err = o.StartRound(roomID, "alice")
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = o.JoinRoom(roomID, "bob", "Bob", "conn-b")
	require.NoError(t, err)

	_, err = o.StartRound(roomID, "bob")
	assert.ErrorIs(t, err, ErrNotHost)

	_, err = o.StartRound(roomID, "alice")
	require.NoError(t, err)
	o.timers.Cancel(roomID)

	_, err = o.StartRound(roomID, "alice")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestStartRoundDealsAndNotifies(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)

	events, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	_, ok := findEvent(events, EventGameStarted)
	assert.True(t, ok)
	_, ok = findEvent(events, EventRoundStarted)
	assert.True(t, ok)

	var deals []Event
	for _, ev := range events {
		if ev.Type == EventDealHand {
			deals = append(deals, ev)
		}
	}
	require.Len(t, deals, 2)
	for _, d := range deals {
		assert.NotEmpty(t, d.Private, "hole cards must go to their owner only")
	}

	// Heads-up the dealer posts the small blind and acts first preflop.
	turn, ok := findEvent(events, EventTurnNotification)
	require.True(t, ok)
	assert.Equal(t, "alice", turn.Data["playerId"])
	assert.Equal(t, o.cfg.SmallBlind, turn.Data["callAmount"])

	armedFor, armed := o.timers.Armed(roomID)
	require.True(t, armed)
	assert.Equal(t, "alice", armedFor)
}

func TestHandleActionRejectsWithoutBroadcast(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)

	_, err := o.HandleAction(roomID, "bob", poker.ActionFold, 0)
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = o.StartRound(roomID, "alice")
	require.NoError(t, err)

	events, err := o.HandleAction(roomID, "bob", poker.ActionCheck, 0)
	assert.ErrorIs(t, err, poker.ErrNotYourTurn)
	assert.Empty(t, events)

	_, err = o.HandleAction(roomID, "carol", poker.ActionFold, 0)
	assert.ErrorIs(t, err, ErrNotInRoom)

	room, err := o.rooms.Get(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	assert.Equal(t, poker.PreFlop, room.Round.Street())
	room.mu.Unlock()
}

func TestWinByFoldSettlesHand(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)
	_, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	events, err := o.HandleAction(roomID, "alice", poker.ActionFold, 0)
	require.NoError(t, err)

	acted, ok := findEvent(events, EventActionPerformed)
	require.True(t, ok)
	assert.Equal(t, o.cfg.SmallBlind, acted.Data["streetBet"], "the folded blind stays committed")
	assert.Equal(t, o.cfg.SmallBlind, acted.Data["totalBet"])

	showdown, ok := findEvent(events, EventShowdown)
	require.True(t, ok)
	payouts := showdown.Data["payouts"].(map[string]int)
	assert.Equal(t, o.cfg.SmallBlind+o.cfg.BigBlind, payouts["bob"])
	assert.NotContains(t, showdown.Data, "hands", "a fold win reveals no cards")

	room, err := o.rooms.Get(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Nil(t, room.Round)
	assert.Equal(t, RoomInProgress, room.State)
	assert.NotNil(t, room.nextHand, "next hand must be scheduled")
	assert.Equal(t, o.cfg.BuyIn-o.cfg.SmallBlind, room.playerByID("alice").Stack)
	assert.Equal(t, o.cfg.BuyIn+o.cfg.SmallBlind, room.playerByID("bob").Stack)
}

func TestCheckedDownHandReachesShowdown(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)
	_, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	_, err = o.HandleAction(roomID, "alice", poker.ActionCall, 0)
	require.NoError(t, err)
	events, err := o.HandleAction(roomID, "bob", poker.ActionCheck, 0)
	require.NoError(t, err)

	street, ok := findEvent(events, EventNewStreet)
	require.True(t, ok)
	assert.Equal(t, poker.Flop, street.Data["street"])

	// Postflop the non-dealer acts first, heads-up.
	var last []Event
	for _, id := range []string{"bob", "alice", "bob", "alice", "bob", "alice"} {
		last, err = o.HandleAction(roomID, id, poker.ActionCheck, 0)
		require.NoError(t, err)
	}

	showdown, ok := findEvent(last, EventShowdown)
	require.True(t, ok)
	assert.Contains(t, showdown.Data, "hands", "a contested showdown reveals live hands")
	assert.Len(t, showdown.Data["community"].([]poker.Card), 5)

	room, err := o.rooms.Get(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	total := room.playerByID("alice").Stack + room.playerByID("bob").Stack
	room.mu.Unlock()
	assert.Equal(t, 2*o.cfg.BuyIn, total, "chips are conserved across the hand")
}

// failingRanker refuses every evaluation, stranding a contested
// showdown.
type failingRanker struct{}

func (failingRanker) Evaluate([2]poker.Card, []poker.Card) (poker.HandValue, error) {
	return 0, errors.New("no evaluation available")
}

func TestActionsAfterFailedShowdownAreRejected(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	o.ranker = failingRanker{}
	roomID := headsUpRoom(t, o)
	_, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	_, err = o.HandleAction(roomID, "alice", poker.ActionCall, 0)
	require.NoError(t, err)
	var last []Event
	for _, id := range []string{"bob", "bob", "alice", "bob", "alice", "bob", "alice"} {
		last, err = o.HandleAction(roomID, id, poker.ActionCheck, 0)
		require.NoError(t, err)
	}

	_, ok := findEvent(last, EventError)
	require.True(t, ok, "the stranded showdown surfaces as an error event")

	// The round is settled but still in place; further actions bounce.
	_, err = o.HandleAction(roomID, "alice", poker.ActionCheck, 0)
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestNextHandStartsAfterDelay(t *testing.T) {
	cfg := testConfig()
	cfg.NextHandDelay = 20 * time.Millisecond
	o, sink := newTestOrchestrator(cfg)
	roomID := headsUpRoom(t, o)
	_, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	_, err = o.HandleAction(roomID, "alice", poker.ActionFold, 0)
	require.NoError(t, err)

	started := sink.waitFor(t, EventRoundStarted, time.Second)
	// Button rotates: bob deals the second hand.
	assert.Equal(t, 1, started.Data["button"])

	room, err := o.rooms.Get(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	assert.NotNil(t, room.Round)
	room.mu.Unlock()
}

func TestTurnTimeoutFoldsActor(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 30 * time.Millisecond
	o, sink := newTestOrchestrator(cfg)
	roomID := headsUpRoom(t, o)
	_, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	timeout := sink.waitFor(t, EventPlayerTimeout, time.Second)
	assert.Equal(t, "alice", timeout.Data["playerId"])

	showdown := sink.waitFor(t, EventShowdown, time.Second)
	payouts := showdown.Data["payouts"].(map[string]int)
	assert.Equal(t, cfg.SmallBlind+cfg.BigBlind, payouts["bob"])
}

func TestStaleTimeoutIsNoOp(t *testing.T) {
	o, sink := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)
	_, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	// The clock is on alice; a leftover timeout for bob must change nothing.
	o.handleTurnTimeout(roomID, "bob", o.timers.Generation(roomID))

	_, found := sink.find(EventPlayerTimeout)
	assert.False(t, found)
	room, err := o.rooms.Get(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	assert.False(t, room.Round.Folded("bob"))
	assert.Equal(t, poker.PreFlop, room.Round.Street())
	room.mu.Unlock()
}

func TestLapsedTimerFireIsDroppedAfterRearm(t *testing.T) {
	o, sink := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)
	_, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	// The preflop clock on alice lapses, but its fire only wins the room
	// lock after the flop has cycled the turn back to her.
	stale := o.timers.Generation(roomID)
	_, err = o.HandleAction(roomID, "alice", poker.ActionCall, 0)
	require.NoError(t, err)
	_, err = o.HandleAction(roomID, "bob", poker.ActionCheck, 0)
	require.NoError(t, err)
	_, err = o.HandleAction(roomID, "bob", poker.ActionCheck, 0)
	require.NoError(t, err)

	room, err := o.rooms.Get(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	require.Equal(t, "alice", room.Round.CurrentBettor().ID)
	room.mu.Unlock()

	o.handleTurnTimeout(roomID, "alice", stale)

	_, found := sink.find(EventPlayerTimeout)
	assert.False(t, found, "a fire from a superseded clock must not fold the fresh turn")
	room.mu.Lock()
	assert.False(t, room.Round.Folded("alice"))
	assert.Equal(t, poker.Flop, room.Round.Street())
	room.mu.Unlock()
}

func TestBustedPlayersDropAndButtonSkipsThem(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	room := &Room{
		ID:     "tbl",
		HostID: "a",
		State:  RoomInProgress,
		Button: 0,
		Players: []*poker.Player{
			{ID: "a", Name: "a", Seat: 0, Stack: 100},
			{ID: "b", Name: "b", Seat: 1, Stack: 0},
			{ID: "c", Name: "c", Seat: 2, Stack: 100},
		},
	}
	o.rooms.Put(room)

	room.mu.Lock()
	events := o.finishHandLocked(room)
	room.cancelNextHand()
	room.mu.Unlock()

	assert.Empty(t, events)
	require.Len(t, room.Players, 2)
	assert.Nil(t, room.playerByID("b"))
	// c was the first surviving seat clockwise from the old button.
	assert.Equal(t, "c", room.Players[room.Button].ID)
	assert.Equal(t, []int{0, 1}, []int{room.Players[0].Seat, room.Players[1].Seat})
}

func TestGameEndsWithOneSurvivor(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	room := &Room{
		ID:     "tbl",
		HostID: "a",
		State:  RoomInProgress,
		Button: 1,
		Players: []*poker.Player{
			{ID: "a", Name: "a", Seat: 0, Stack: 2000},
			{ID: "b", Name: "b", Seat: 1, Stack: 0},
		},
	}
	o.rooms.Put(room)

	room.mu.Lock()
	events := o.finishHandLocked(room)
	room.mu.Unlock()

	ended, ok := findEvent(events, EventGameEnded)
	require.True(t, ok)
	assert.Equal(t, "a", ended.Data["winner"])
	assert.Equal(t, 2000, ended.Data["stack"])
	assert.Equal(t, RoomEnded, room.State)
	assert.Nil(t, room.nextHand)
}

func TestReconnectRestoresView(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)
	_, err := o.StartRound(roomID, "alice")
	require.NoError(t, err)

	state, events, err := o.Reconnect("bob", "conn-b2")
	require.NoError(t, err)

	assert.Equal(t, roomID, state.RoomID)
	assert.Equal(t, RoomInProgress, state.State)
	require.NotNil(t, state.Round)
	assert.Len(t, state.Round.HoleCards, 2, "reconnecting player gets their own hole cards")
	assert.Len(t, state.Round.Seats, 2)

	rejoined, ok := findEvent(events, EventPlayerReconnected)
	require.True(t, ok)
	assert.Equal(t, "bob", rejoined.Data["playerId"])

	connID, ok := o.sessions.ConnID("bob")
	require.True(t, ok)
	assert.Equal(t, "conn-b2", connID)
}

func TestReconnectUnknownPlayerFails(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())

	_, _, err := o.Reconnect("ghost", "conn-x")
	assert.ErrorIs(t, err, ErrReconnectFailed)
}

func TestDisconnectAnnouncesButKeepsSeat(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)

	events := o.Disconnect("bob")
	ev, ok := findEvent(events, EventPlayerDisconnected)
	require.True(t, ok)
	assert.Equal(t, "bob", ev.Data["playerId"])

	room, err := o.rooms.Get(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	assert.NotNil(t, room.playerByID("bob"))
	room.mu.Unlock()
	assert.True(t, o.sessions.IsValid("bob"))
}

func TestSessionExpiryReleasesWaitingSeat(t *testing.T) {
	o, sink := newTestOrchestrator(testConfig())
	roomID := headsUpRoom(t, o)

	o.handleSessionExpiry("bob")

	room, err := o.rooms.Get(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	assert.Nil(t, room.playerByID("bob"))
	assert.Len(t, room.Players, 1)
	room.mu.Unlock()

	gone, ok := sink.find(EventPlayerDisconnected)
	require.True(t, ok)
	assert.Equal(t, true, gone.Data["permanent"])
}

func TestSessionExpiryOfLastPlayerRemovesRoom(t *testing.T) {
	o, _ := newTestOrchestrator(testConfig())
	events, err := o.CreateRoom("alice", "Alice", "conn-a")
	require.NoError(t, err)
	roomID := events[0].RoomID

	o.handleSessionExpiry("alice")

	_, err = o.rooms.Get(roomID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
