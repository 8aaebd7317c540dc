package models

import "time"

// Message types for WebSocket communication
const (
	// server -> client
	MessageTypeLeaderboards = "leaderboards"
	MessageTypeSearch       = "search"
	MessageTypeBoard        = "board"
	MessageTypePlayer       = "player"
	MessageTypeHeartbeat    = "heartbeat"
	MessageTypeError        = "error"

	// client -> server
	MessageTypeSubscribe       = "subscribe"
	MessageTypeUnsubscribe     = "unsubscribe"
	MessageTypeSentinelVisible = "sentinel_visible"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter limits which server message types a client receives.
// An empty filter receives everything.
type SubscriptionFilter struct {
	Topics []string `json:"topics,omitempty"`
}

// Matches reports whether a message type passes the filter
func (f SubscriptionFilter) Matches(msgType string) bool {
	if len(f.Topics) == 0 {
		return true
	}
	for _, t := range f.Topics {
		if t == msgType {
			return true
		}
	}
	return false
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID          string    `json:"client_id"`
	ConnectedAt       time.Time `json:"connected_at"`
	MessagesSent      int64     `json:"messages_sent"`
	MessagesReceived  int64     `json:"messages_received"`
	LastMessageAt     time.Time `json:"last_message_at"`
	BufferSize        int       `json:"buffer_size"`
	BufferUtilization float64   `json:"buffer_utilization"` // Percentage
	Topics            []string  `json:"topics,omitempty"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON envelope for failed HTTP requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
