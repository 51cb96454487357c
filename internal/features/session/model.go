package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-dashboard/internal/features/board"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrMalformed      = errors.New("malformed message")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrSessionClosed  = errors.New("session closed")
)

type MessageType string

const (
	MessagePing           MessageType = "ping"
	MessageDrop           MessageType = "drop"
	MessageQuickAdd       MessageType = "quick_add"
	MessageMove           MessageType = "move"
	MessageResize         MessageType = "resize"
	MessageSelect         MessageType = "select"
	MessageDelete         MessageType = "delete"
	MessageDeleteSelected MessageType = "delete_selected"
	MessageUpdateProps    MessageType = "update_props"
	MessageSetTheme       MessageType = "set_theme"
	MessageClearCanvas    MessageType = "clear_canvas"
	MessageAuth           MessageType = "auth"

	MessagePong  MessageType = "pong"
	MessageState MessageType = "state"
	MessageError MessageType = "error"
)

var inbound = map[MessageType]bool{
	MessagePing:           true,
	MessageDrop:           true,
	MessageQuickAdd:       true,
	MessageMove:           true,
	MessageResize:         true,
	MessageSelect:         true,
	MessageDelete:         true,
	MessageDeleteSelected: true,
	MessageUpdateProps:    true,
	MessageSetTheme:       true,
	MessageClearCanvas:    true,
	MessageAuth:           true,
}

// Envelope is the frame every inbound websocket message arrives in.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutboundMessage is the frame written back to the tab.
type OutboundMessage struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type DropData struct {
	Payload json.RawMessage `json:"payload"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
}

type QuickAddData struct {
	WidgetType string `json:"widgetType"`
}

type MoveData struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type ResizeData struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type IDData struct {
	ID string `json:"id"`
}

type UpdatePropsData struct {
	ID   string                 `json:"id"`
	Data map[string]interface{} `json:"data"`
}

type ThemeData struct {
	Theme string `json:"theme"`
}

type AuthData struct {
	Token string `json:"token"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// StateView is what a tab renders: the store state plus session details
// and the transient overlap flags.
type StateView struct {
	board.State
	DashboardID string   `json:"dashboardId"`
	WriterID    string   `json:"writerId"`
	Overlapping []string `json:"overlappingWidgetIds"`
}

// Info describes a live session for the presence endpoint.
type Info struct {
	SessionID   string    `json:"sessionId"`
	DashboardID string    `json:"dashboardId"`
	WriterID    string    `json:"writerId"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// ParseEnvelope decodes one inbound frame and rejects unknown types.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !inbound[env.Type] {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
	return env, nil
}

// Decode unmarshals the envelope data into v.
func (e Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: %s requires data", ErrMalformed, e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
