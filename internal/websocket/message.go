// Package websocket bridges a live notification session to a browser over a
// websocket connection.
package websocket

const (
	MessageTypeSnapshot    = "snapshot"
	MessageTypeStatus      = "status"
	MessageTypeAlert       = "alert"
	MessageTypeError       = "error"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeMarkRead    = "mark_read"
	MessageTypeMarkAllRead = "mark_all_read"
	MessageTypeDelete      = "delete"
)

// Message is a server to client frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Command is a client to server frame.
type Command struct {
	Type string `json:"type"`
	ID   uint64 `json:"id,omitempty"`
}

type ErrorData struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

type StatusData struct {
	Status string `json:"status"`
}
