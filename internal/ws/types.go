package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady    = "ready"
	MsgReminder = "reminder"
	MsgPong     = "pong"
)

// Envelope is every frame the server writes.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}
