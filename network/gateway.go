// Package network exposes the tables over websockets: one connection
// per player, JSON frames both ways, with room events fanned out to
// every seated connection except for hole cards, which only ever go to
// their owner.
package network

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fukuta0614/holdem-room/application"
)

// Gateway upgrades HTTP connections to websockets and shuttles frames
// between connections and the orchestrator. It owns the room membership
// index used to fan broadcast events out, and hands itself to the
// orchestrator as the sink for timer-born events.
//
// Delivery rule: an event with Private set reaches that player's
// connection and nobody else; everything else reaches every member of
// the event's room.
type Gateway struct {
	log  *slog.Logger
	orch *application.Orchestrator

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client             // by connection id
	players map[string]*Client             // bound player -> live connection
	rooms   map[string]map[string]struct{} // room -> member player ids
}

// NewGateway wires the gateway to the orchestrator and installs itself
// as the orchestrator's event emitter.
func NewGateway(log *slog.Logger, orch *application.Orchestrator) *Gateway {
	g := &Gateway{
		log:  log,
		orch: orch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*Client),
		players: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
	}
	orch.SetEmitter(g.Deliver)
	return g
}

// ServeHTTP upgrades the request and starts the connection's pumps.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := newClient(g, conn, uuid.NewString())
	g.mu.Lock()
	g.clients[client.connID] = client
	g.mu.Unlock()

	g.log.Debug("connection opened", "conn", client.connID)
	go client.writePump()
	go client.readPump()
}

// Deliver routes one event to its audience. Safe to call from any
// goroutine; the orchestrator's timers use it directly.
func (g *Gateway) Deliver(ev application.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		g.log.Error("event marshal failed", "type", ev.Type, "err", err)
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if ev.Private != "" {
		if target, ok := g.players[ev.Private]; ok {
			target.enqueue(payload)
		}
		return
	}
	for playerID := range g.rooms[ev.RoomID] {
		if member, ok := g.players[playerID]; ok {
			member.enqueue(payload)
		}
	}
}

func (g *Gateway) deliverAll(events []application.Event) {
	for _, ev := range events {
		g.Deliver(ev)
	}
}

// handleMessage dispatches one inbound frame. Rejections go back to the
// sending connection alone as an error event.
func (g *Gateway) handleMessage(c *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		g.sendError(c, "", "malformed message")
		return
	}

	switch msg.Type {
	case MsgCreateRoom:
		g.handleCreateRoom(c, msg)
	case MsgJoinRoom:
		g.handleJoinRoom(c, msg)
	case MsgStartRound:
		g.handleStartRound(c, msg)
	case MsgAction:
		g.handleAction(c, msg)
	case MsgReconnect:
		g.handleReconnect(c, msg)
	default:
		g.sendError(c, msg.RoomID, "unknown message type: "+msg.Type)
	}
}

func (g *Gateway) handleCreateRoom(c *Client, msg ClientMessage) {
	playerID := msg.PlayerID
	if playerID == "" {
		playerID = uuid.NewString()
	}
	events, err := g.orch.CreateRoom(playerID, msg.Name, c.connID)
	if err != nil {
		g.sendError(c, "", err.Error())
		return
	}
	g.bind(c, playerID, events[0].RoomID)
	g.deliverAll(events)
}

func (g *Gateway) handleJoinRoom(c *Client, msg ClientMessage) {
	playerID := msg.PlayerID
	if playerID == "" {
		playerID = uuid.NewString()
	}
	events, err := g.orch.JoinRoom(msg.RoomID, playerID, msg.Name, c.connID)
	if err != nil {
		g.sendError(c, msg.RoomID, err.Error())
		return
	}
	g.bind(c, playerID, msg.RoomID)
	g.deliverAll(events)
}

func (g *Gateway) handleStartRound(c *Client, msg ClientMessage) {
	if c.playerID == "" {
		g.sendError(c, msg.RoomID, "join a room first")
		return
	}
	events, err := g.orch.StartRound(c.roomID, c.playerID)
	if err != nil {
		g.sendError(c, c.roomID, err.Error())
		return
	}
	g.deliverAll(events)
}

func (g *Gateway) handleAction(c *Client, msg ClientMessage) {
	if c.playerID == "" {
		g.sendError(c, msg.RoomID, "join a room first")
		return
	}
	events, err := g.orch.HandleAction(c.roomID, c.playerID, msg.Action, msg.Amount)
	if err != nil {
		g.sendError(c, c.roomID, err.Error())
		return
	}
	g.deliverAll(events)
}

func (g *Gateway) handleReconnect(c *Client, msg ClientMessage) {
	state, events, err := g.orch.Reconnect(msg.PlayerID, c.connID)
	if err != nil {
		g.sendError(c, "", err.Error())
		return
	}
	g.bind(c, msg.PlayerID, state.RoomID)

	payload, err := json.Marshal(resumePayload{Type: "resume", State: state})
	if err != nil {
		g.log.Error("resume marshal failed", "player", msg.PlayerID, "err", err)
		return
	}
	c.enqueue(payload)
	g.deliverAll(events)
}

// bind ties the connection to its player identity and room membership.
func (g *Gateway) bind(c *Client, playerID, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c.playerID = playerID
	c.roomID = roomID
	g.players[playerID] = c
	members, ok := g.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		g.rooms[roomID] = members
	}
	members[playerID] = struct{}{}
}

// unregister drops a closed connection. The player's room membership
// survives so a reconnect within grace resumes delivery; the
// orchestrator decides what the disconnect means for the game.
func (g *Gateway) unregister(c *Client) {
	g.mu.Lock()
	delete(g.clients, c.connID)
	if c.playerID != "" && g.players[c.playerID] == c {
		delete(g.players, c.playerID)
	}
	// Closed under the lock so Deliver can never write to a dead channel.
	close(c.send)
	g.mu.Unlock()
	g.log.Debug("connection closed", "conn", c.connID, "player", c.playerID)

	if c.playerID != "" {
		g.deliverAll(g.orch.Disconnect(c.playerID))
	}
}

func (g *Gateway) sendError(c *Client, roomID, message string) {
	payload, err := json.Marshal(application.Event{
		Type:   application.EventError,
		RoomID: roomID,
		Data:   map[string]any{"message": message},
	})
	if err != nil {
		return
	}
	c.enqueue(payload)
}
