package application

// EventType tags one entry of the ordered event stream a room produces.
type EventType string

const (
	EventRoomCreated        EventType = "roomCreated"
	EventJoinedRoom         EventType = "joinedRoom"
	EventPlayerJoined       EventType = "playerJoined"
	EventGameStarted        EventType = "gameStarted"
	EventRoundStarted       EventType = "roundStarted"
	EventDealHand           EventType = "dealHand"
	EventTurnNotification   EventType = "turnNotification"
	EventActionPerformed    EventType = "actionPerformed"
	EventNewStreet          EventType = "newStreet"
	EventShowdown           EventType = "showdown"
	EventGameEnded          EventType = "gameEnded"
	EventPlayerTimeout      EventType = "playerTimeout"
	EventPlayerDisconnected EventType = "playerDisconnected"
	EventPlayerReconnected  EventType = "playerReconnected"
	EventTimerUpdate        EventType = "timerUpdate"
	EventError              EventType = "error"
)

// Event is one broadcastable room event. Private, when set, names the
// only player whose connection may receive it; dealHand events are
// always private.
type Event struct {
	Type    EventType      `json:"type"`
	RoomID  string         `json:"roomId"`
	Private string         `json:"-"`
	Data    map[string]any `json:"data,omitempty"`
}

func broadcastEvent(t EventType, roomID string, data map[string]any) Event {
	return Event{Type: t, RoomID: roomID, Data: data}
}

func privateEvent(t EventType, roomID, playerID string, data map[string]any) Event {
	return Event{Type: t, RoomID: roomID, Private: playerID, Data: data}
}
