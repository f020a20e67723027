package signaling

import "encoding/json"

type EventType string

const (
	EventCreateRoom    EventType = "create-room"
	EventRoomCreated   EventType = "room-created"
	EventJoinRequest   EventType = "join-request"
	EventJoinAccepted  EventType = "join-accepted"
	EventJoinRejected  EventType = "join-rejected"
	EventRoomNotFound  EventType = "room-not-found"
	EventJoinRoom      EventType = "join-room"
	EventExistingUsers EventType = "existing-users"
	EventUserJoined    EventType = "user-joined"
	EventLeaveRoom     EventType = "leave-room"
	EventUserLeft      EventType = "user-left"
	EventOffer         EventType = "offer"
	EventAnswer        EventType = "answer"
	EventICECandidate  EventType = "ice-candidate"
	EventError         EventType = "error"
)

// User is one roster entry as it appears on the wire.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is the single envelope for everything that crosses the signaling
// channel. Unused fields stay empty and are omitted on the wire.
type Event struct {
	Type    EventType       `json:"type"`
	Room    string          `json:"room,omitempty"`
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Ticket  string          `json:"ticket,omitempty"`
	Target  string          `json:"target,omitempty"`
	Users   []User          `json:"users,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}
