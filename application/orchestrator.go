package application

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/fukuta0614/holdem-room/domain/poker"
)

// Config carries the table parameters every room is created with.
type Config struct {
	SmallBlind    int
	BigBlind      int
	BuyIn         int
	SeatCap       int
	TurnTimeout   time.Duration
	TurnWarning   time.Duration
	GracePeriod   time.Duration
	NextHandDelay time.Duration
}

// DefaultConfig returns the standard table parameters.
func DefaultConfig() Config {
	return Config{
		SmallBlind:    10,
		BigBlind:      20,
		BuyIn:         1000,
		SeatCap:       9,
		TurnTimeout:   60 * time.Second,
		TurnWarning:   10 * time.Second,
		GracePeriod:   120 * time.Second,
		NextHandDelay: 3 * time.Second,
	}
}

// Orchestrator drives the room lifecycle: seating, starting hands,
// routing player actions into the active round, timing out slow actors
// and scheduling the next hand. Every mutation of a room happens with
// that room's lock held, whether it arrives from a connection or from a
// timer goroutine, so the round below never sees concurrent access.
//
// Synchronous requests return the events they produced; events born on
// timer goroutines are pushed through the emit sink instead.
type Orchestrator struct {
	cfg      Config
	log      *slog.Logger
	rooms    *RoomStore
	timers   *TurnTimers
	sessions *SessionRegistry
	ranker   poker.HandRanker

	newDeck func() *poker.Deck
	emit    func(Event)
}

// NewOrchestrator wires the orchestrator to its stores. The session
// registry's expiry callback is claimed here; grace-expired players are
// unseated from waiting rooms and folded out of running hands when their
// turn comes.
func NewOrchestrator(cfg Config, log *slog.Logger, rooms *RoomStore, timers *TurnTimers, sessions *SessionRegistry) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		log:      log,
		rooms:    rooms,
		timers:   timers,
		sessions: sessions,
		ranker:   poker.Eval7Ranker{},
		newDeck: func() *poker.Deck {
			return poker.NewDeck(rand.New(rand.NewSource(time.Now().UnixNano())))
		},
		emit: func(Event) {},
	}
	sessions.OnExpire(o.handleSessionExpiry)
	return o
}

// SetEmitter installs the sink for events produced outside a request,
// by turn timers and the next-hand schedule. Set it before any room is
// created.
func (o *Orchestrator) SetEmitter(fn func(Event)) {
	o.emit = fn
}

func (o *Orchestrator) emitAll(events []Event) {
	for _, ev := range events {
		o.emit(ev)
	}
}

// CreateRoom opens a new room with the caller as host and seats them.
func (o *Orchestrator) CreateRoom(hostID, hostName, connID string) ([]Event, error) {
	room := &Room{
		ID:         uuid.NewString(),
		HostID:     hostID,
		State:      RoomWaiting,
		SmallBlind: o.cfg.SmallBlind,
		BigBlind:   o.cfg.BigBlind,
		Players: []*poker.Player{
			{ID: hostID, Name: hostName, Seat: 0, Stack: o.cfg.BuyIn},
		},
	}
	o.rooms.Put(room)
	o.sessions.Create(hostID, connID)

	o.log.Info("room created", "room", room.ID, "host", hostID)
	return []Event{
		broadcastEvent(EventRoomCreated, room.ID, map[string]any{
			"roomId":     room.ID,
			"hostId":     hostID,
			"smallBlind": room.SmallBlind,
			"bigBlind":   room.BigBlind,
		}),
		privateEvent(EventJoinedRoom, room.ID, hostID, map[string]any{
			"roomId": room.ID,
			"seat":   0,
			"stack":  o.cfg.BuyIn,
			"seats":  room.seats(),
		}),
	}, nil
}

// JoinRoom seats a player in a waiting room with a fresh buy-in.
func (o *Orchestrator) JoinRoom(roomID, playerID, name, connID string) ([]Event, error) {
	room, err := o.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.State != RoomWaiting {
		return nil, ErrGameInProgress
	}
	if room.playerByID(playerID) != nil {
		return nil, ErrAlreadyJoined
	}
	if len(room.Players) >= o.cfg.SeatCap {
		return nil, ErrRoomFull
	}

	seat := len(room.Players)
	room.Players = append(room.Players, &poker.Player{
		ID:    playerID,
		Name:  name,
		Seat:  seat,
		Stack: o.cfg.BuyIn,
	})
	o.sessions.Create(playerID, connID)

	o.log.Info("player joined", "room", roomID, "player", playerID, "seat", seat)
	return []Event{
		broadcastEvent(EventPlayerJoined, roomID, map[string]any{
			"playerId": playerID,
			"name":     name,
			"seat":     seat,
			"stack":    o.cfg.BuyIn,
		}),
		privateEvent(EventJoinedRoom, roomID, playerID, map[string]any{
			"roomId": roomID,
			"seat":   seat,
			"stack":  o.cfg.BuyIn,
			"seats":  room.seats(),
		}),
	}, nil
}

// StartRound begins play in a waiting room. Host only; at least two
// seated players are required. The first hand is dealt immediately.
func (o *Orchestrator) StartRound(roomID, playerID string) ([]Event, error) {
	room, err := o.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if playerID != room.HostID {
		return nil, ErrNotHost
	}
	if room.State != RoomWaiting {
		return nil, ErrGameInProgress
	}
	if len(room.Players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	room.State = RoomInProgress
	events := []Event{broadcastEvent(EventGameStarted, roomID, map[string]any{
		"seats": room.seats(),
	})}

	handEvents, err := o.startHandLocked(room)
	if err != nil {
		room.State = RoomWaiting
		return nil, err
	}
	return append(events, handEvents...), nil
}

// HandleAction routes one player intent into the room's active round.
// On a domain rejection the round is untouched and the error goes back
// to the acting connection alone; nothing is broadcast.
func (o *Orchestrator) HandleAction(roomID, playerID string, kind poker.ActionType, amount int) (events []Event, err error) {
	room, err := o.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	// A fault inside the engine must not take the server down or leave
	// the room's timer orphaned.
	defer func() {
		if rec := recover(); rec != nil {
			o.log.Error("action handling panicked", "room", roomID, "player", playerID, "panic", rec)
			o.timers.Cancel(roomID)
			events = nil
			err = fmt.Errorf("internal error handling action for player %s", playerID)
		}
	}()

	// A failed showdown leaves a settled round in place; treat it like
	// no round at all.
	if room.State != RoomInProgress || room.Round == nil || room.Round.Settled() {
		return nil, ErrNoActiveRound
	}
	if room.playerByID(playerID) == nil {
		return nil, ErrNotInRoom
	}

	if err := room.Round.ExecuteAction(playerID, kind, amount); err != nil {
		return nil, err
	}
	o.timers.Cancel(roomID)
	o.sessions.Touch(playerID)

	events = []Event{broadcastEvent(EventActionPerformed, roomID, map[string]any{
		"playerId":   playerID,
		"action":     kind,
		"amount":     amount,
		"streetBet":  room.Round.StreetBet(playerID),
		"totalBet":   room.Round.TotalBet(playerID),
		"pot":        room.Round.Pot(),
		"currentBet": room.Round.CurrentBet(),
	})}
	return append(events, o.progressLocked(room)...), nil
}

// startHandLocked deals a fresh hand into the room. Callers hold mu.
func (o *Orchestrator) startHandLocked(room *Room) ([]Event, error) {
	round, err := poker.NewRound(room.Players, room.Button, room.SmallBlind, room.BigBlind, o.newDeck(), o.ranker)
	if err != nil {
		return nil, err
	}
	if err := round.Start(); err != nil {
		return nil, err
	}
	room.Round = round

	o.log.Info("hand started", "room", room.ID, "button", room.Button, "players", len(room.Players))
	events := []Event{broadcastEvent(EventRoundStarted, room.ID, map[string]any{
		"button":     room.Button,
		"smallBlind": room.SmallBlind,
		"bigBlind":   room.BigBlind,
		"seats":      room.seats(),
	})}
	for _, p := range room.Players {
		hole, ok := round.HoleCards(p.ID)
		if !ok {
			continue
		}
		events = append(events, privateEvent(EventDealHand, room.ID, p.ID, map[string]any{
			"cards": []poker.Card{hole[0], hole[1]},
		}))
	}
	return append(events, o.progressLocked(room)...), nil
}

// progressLocked drives the round forward after a state change: settles
// when one player remains or the river is bet out, deals the next street
// when betting closes, and otherwise notifies the next actor and arms
// their clock. Callers hold mu.
func (o *Orchestrator) progressLocked(room *Room) []Event {
	var events []Event
	round := room.Round
	for {
		if round.LiveCount() <= 1 {
			return append(events, o.settleLocked(room)...)
		}
		if !round.BettingComplete() {
			return append(events, o.turnEventsLocked(room)...)
		}
		if round.Street() == poker.River {
			return append(events, o.settleLocked(room)...)
		}
		if err := round.AdvanceStreet(); err != nil {
			o.log.Error("street advance failed", "room", room.ID, "err", err)
			return append(events, broadcastEvent(EventError, room.ID, map[string]any{
				"message": "internal error advancing the hand",
			}))
		}
		events = append(events, broadcastEvent(EventNewStreet, room.ID, map[string]any{
			"street":    round.Street(),
			"community": round.Community(),
			"pot":       round.Pot(),
		}))
	}
}

// turnEventsLocked announces whose turn it is, with their legal actions
// and prices, and arms the turn clock. Callers hold mu.
func (o *Orchestrator) turnEventsLocked(room *Room) []Event {
	round := room.Round
	bettor := round.CurrentBettor()
	if bettor == nil {
		return nil
	}

	roomID, playerID := room.ID, bettor.ID
	o.timers.Arm(roomID, playerID, o.cfg.TurnTimeout,
		func(gen uint64) { o.handleTurnTimeout(roomID, playerID, gen) },
		func(remaining int, warning bool) {
			o.emit(broadcastEvent(EventTimerUpdate, roomID, map[string]any{
				"playerId":  playerID,
				"remaining": remaining,
				"warning":   warning,
			}))
		})

	return []Event{broadcastEvent(EventTurnNotification, roomID, map[string]any{
		"playerId":     playerID,
		"legalActions": round.LegalActions(playerID),
		"callAmount":   round.CallAmount(playerID),
		"minRaise":     round.MinRaise(),
		"timeout":      int(o.cfg.TurnTimeout.Seconds()),
	})}
}

// settleLocked runs the showdown, pays out, drops busted seats, rotates
// the button and either schedules the next hand or ends the game.
// Callers hold mu.
func (o *Orchestrator) settleLocked(room *Room) []Event {
	round := room.Round
	o.timers.Cancel(room.ID)

	payouts, err := round.PerformShowdown()
	if err != nil {
		o.log.Error("showdown failed", "room", room.ID, "err", err)
		return []Event{broadcastEvent(EventError, room.ID, map[string]any{
			"message": "internal error settling the hand",
		})}
	}

	data := map[string]any{
		"payouts":   payouts,
		"community": round.Community(),
		"seats":     room.seats(),
	}
	if round.LiveCount() > 1 {
		hands := make(map[string]any)
		for _, p := range room.Players {
			if round.Folded(p.ID) {
				continue
			}
			hole, ok := round.HoleCards(p.ID)
			if !ok {
				continue
			}
			hand := map[string]any{"cards": []poker.Card{hole[0], hole[1]}}
			if desc, err := poker.DescribeHand(hole, round.Community()); err == nil {
				hand["description"] = desc
			}
			hands[p.ID] = hand
		}
		data["hands"] = hands
	}
	events := []Event{broadcastEvent(EventShowdown, room.ID, data)}

	return append(events, o.finishHandLocked(room)...)
}

// finishHandLocked removes busted players, moves the button to the next
// surviving seat, and schedules the next hand unless fewer than two
// players still have chips. Callers hold mu.
func (o *Orchestrator) finishHandLocked(room *Room) []Event {
	room.Round = nil

	var survivors []*poker.Player
	var busted []string
	for _, p := range room.Players {
		if p.Stack > 0 {
			survivors = append(survivors, p)
		} else {
			busted = append(busted, p.ID)
			o.sessions.Remove(p.ID)
		}
	}

	// The button moves to the next surviving seat clockwise from the old
	// button, even when the old dealer busted.
	newButton := 0
	old := room.Players
	for i := 1; i <= len(old); i++ {
		cand := old[(room.Button+i)%len(old)]
		if cand.Stack > 0 {
			for idx, p := range survivors {
				if p.ID == cand.ID {
					newButton = idx
				}
			}
			break
		}
	}
	for i, p := range survivors {
		p.Seat = i
	}
	room.Players = survivors
	room.Button = newButton

	if len(busted) > 0 {
		o.log.Info("players busted", "room", room.ID, "players", busted)
	}

	if len(survivors) < 2 {
		room.State = RoomEnded
		room.cancelNextHand()
		data := map[string]any{}
		if len(survivors) == 1 {
			data["winner"] = survivors[0].ID
			data["stack"] = survivors[0].Stack
		}
		o.log.Info("game ended", "room", room.ID)
		return []Event{broadcastEvent(EventGameEnded, room.ID, data)}
	}

	roomID := room.ID
	room.nextHand = time.AfterFunc(o.cfg.NextHandDelay, func() {
		o.startScheduledHand(roomID)
	})
	return nil
}

// startScheduledHand deals the next hand after the inter-hand pause. The
// room may have ended or vanished in the meantime; then this is a no-op.
func (o *Orchestrator) startScheduledHand(roomID string) {
	room, err := o.rooms.Get(roomID)
	if err != nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.State != RoomInProgress || room.Round != nil {
		return
	}
	room.nextHand = nil

	events, err := o.startHandLocked(room)
	if err != nil {
		o.log.Error("scheduled hand failed to start", "room", roomID, "err", err)
		return
	}
	o.emitAll(events)
}

// handleTurnTimeout fires when the acting player's clock runs out. The
// player may have acted in the window between the timer firing and the
// lock being acquired; then the timeout is stale and nothing happens.
// The generation check catches the narrower race where the turn has
// already cycled back to the same player on a fresh clock.
func (o *Orchestrator) handleTurnTimeout(roomID, playerID string, gen uint64) {
	room, err := o.rooms.Get(roomID)
	if err != nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if o.timers.Generation(roomID) != gen {
		return
	}
	if room.State != RoomInProgress || room.Round == nil {
		return
	}
	bettor := room.Round.CurrentBettor()
	if bettor == nil || bettor.ID != playerID {
		return
	}

	if err := room.Round.ExecuteAction(playerID, poker.ActionFold, 0); err != nil {
		o.log.Error("timeout fold rejected", "room", roomID, "player", playerID, "err", err)
		return
	}
	o.log.Info("player timed out", "room", roomID, "player", playerID)

	events := []Event{
		broadcastEvent(EventPlayerTimeout, roomID, map[string]any{"playerId": playerID}),
		broadcastEvent(EventActionPerformed, roomID, map[string]any{
			"playerId":   playerID,
			"action":     poker.ActionFold,
			"amount":     0,
			"streetBet":  room.Round.StreetBet(playerID),
			"totalBet":   room.Round.TotalBet(playerID),
			"pot":        room.Round.Pot(),
			"currentBet": room.Round.CurrentBet(),
		}),
	}
	o.emitAll(append(events, o.progressLocked(room)...))
}

// ResumeState is everything a reconnecting player needs to rebuild their
// view: the room, its seats, and, mid-hand, their private round snapshot.
type ResumeState struct {
	RoomID     string                `json:"roomId"`
	State      RoomState             `json:"state"`
	HostID     string                `json:"hostId"`
	SmallBlind int                   `json:"smallBlind"`
	BigBlind   int                   `json:"bigBlind"`
	Seats      []map[string]any     `json:"seats"`
	Round      *poker.RoundSnapshot `json:"round,omitempty"`
}

// Reconnect restores a player's session within the grace period and
// rebuilds their table view. Past the grace period, or if the seat is
// gone, the player must rejoin as new.
func (o *Orchestrator) Reconnect(playerID, connID string) (ResumeState, []Event, error) {
	if !o.sessions.Reconnect(playerID, connID) {
		return ResumeState{}, nil, ErrReconnectFailed
	}

	room, err := o.rooms.FindByPlayer(playerID)
	if err != nil {
		o.sessions.Remove(playerID)
		return ResumeState{}, nil, ErrReconnectFailed
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	state := ResumeState{
		RoomID:     room.ID,
		State:      room.State,
		HostID:     room.HostID,
		SmallBlind: room.SmallBlind,
		BigBlind:   room.BigBlind,
		Seats:      room.seats(),
	}
	if room.Round != nil {
		snap := room.Round.Snapshot(playerID)
		state.Round = &snap
	}

	o.log.Info("player reconnected", "room", room.ID, "player", playerID)
	return state, []Event{broadcastEvent(EventPlayerReconnected, room.ID, map[string]any{
		"playerId": playerID,
	})}, nil
}

// Disconnect records that a player's connection dropped. The seat and
// any live hand stay as they are; the session clock starts and the turn
// timer, if it is on this player, keeps running and will fold them.
func (o *Orchestrator) Disconnect(playerID string) []Event {
	o.sessions.Touch(playerID)

	room, err := o.rooms.FindByPlayer(playerID)
	if err != nil {
		return nil
	}
	o.log.Info("player disconnected", "room", room.ID, "player", playerID)
	return []Event{broadcastEvent(EventPlayerDisconnected, room.ID, map[string]any{
		"playerId": playerID,
	})}
}

// handleSessionExpiry runs when a player's grace period lapses. In a
// waiting room the seat is released; mid-hand the seat stays and the
// turn clock folds them whenever action reaches it. An empty waiting
// room is removed.
func (o *Orchestrator) handleSessionExpiry(playerID string) {
	room, err := o.rooms.FindByPlayer(playerID)
	if err != nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	o.log.Info("session expired", "room", room.ID, "player", playerID)
	events := []Event{broadcastEvent(EventPlayerDisconnected, room.ID, map[string]any{
		"playerId":  playerID,
		"permanent": true,
	})}

	if room.State == RoomWaiting {
		var kept []*poker.Player
		for _, p := range room.Players {
			if p.ID != playerID {
				kept = append(kept, p)
			}
		}
		for i, p := range kept {
			p.Seat = i
		}
		room.Players = kept
		if len(kept) == 0 {
			o.rooms.Delete(room.ID)
			return
		}
		if room.HostID == playerID {
			room.HostID = kept[0].ID
		}
	}

	o.emitAll(events)
}
