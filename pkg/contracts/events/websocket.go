// Package events contains the WebSocket message contracts used to stream
// conversion progress to viewer clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Conversion messages
	MessageTypeOperationStarted   MessageType = "operation:started"
	MessageTypeFileProgress       MessageType = "operation:progress"
	MessageTypeOperationCompleted MessageType = "operation:completed"
	MessageTypeOperationFailed    MessageType = "operation:failed"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`       // Unique message ID
	Type      MessageType `json:"type"`               // Message type
	Timestamp time.Time   `json:"timestamp"`          // Message timestamp
	TraceID   string      `json:"trace_id,omitempty"` // Request trace ID
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// NewMessage stamps a message of the given type with the current time.
func NewMessage(msgType MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			Type:      msgType,
			Timestamp: time.Now().UTC(),
		},
		Data: data,
	}
}

// ErrorData is the payload of MessageTypeError.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectData is sent to a client right after it connects.
type ConnectData struct {
	ClientID   string `json:"client_id"`
	APIVersion string `json:"api_version"`
}
