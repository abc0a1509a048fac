package hub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType defines the message types carried to group members
type MessageType string

const (
	MessageTypeChat      MessageType = "chat_message"
	MessageTypeSystem    MessageType = "system"
	MessageTypeConnected MessageType = "connected"
	MessageTypeKeepAlive MessageType = "keepalive"
	MessageTypeError     MessageType = "error"
)

// LeftChatNotice is sent to a group after one of its members disconnects.
const LeftChatNotice = "A user has left the chat"

// MessageBuilder helps build messages with fluent interface
type MessageBuilder struct {
	message *Message
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: &Message{
			Headers: make(map[string]string),
		},
	}
}

func (mb *MessageBuilder) WithID(id string) *MessageBuilder {
	mb.message.ID = id
	return mb
}

func (mb *MessageBuilder) WithType(msgType MessageType) *MessageBuilder {
	mb.message.Type = string(msgType)
	return mb
}

func (mb *MessageBuilder) WithGroup(groupID string) *MessageBuilder {
	mb.message.GroupID = groupID
	return mb
}

func (mb *MessageBuilder) WithData(data interface{}) *MessageBuilder {
	mb.message.Data = data
	return mb
}

func (mb *MessageBuilder) WithHeader(key, value string) *MessageBuilder {
	if mb.message.Headers == nil {
		mb.message.Headers = make(map[string]string)
	}
	mb.message.Headers[key] = value
	return mb
}

func (mb *MessageBuilder) WithTimestamp() *MessageBuilder {
	return mb.WithHeader("timestamp", time.Now().UTC().Format(time.RFC3339))
}

// Build returns the message, filling in an ID and timestamp when missing.
func (mb *MessageBuilder) Build() *Message {
	if mb.message.ID == "" {
		mb.message.ID = NewMessageID()
	}
	if _, exists := mb.message.Headers["timestamp"]; !exists {
		mb.WithTimestamp()
	}
	return mb.message
}

// ChatMessage wraps text relayed from one member to its group.
func ChatMessage(groupID, text string) *Message {
	return NewMessageBuilder().
		WithType(MessageTypeChat).
		WithGroup(groupID).
		WithData("Message: " + text).
		Build()
}

// SystemMessage carries a server-originated notice to a group.
func SystemMessage(groupID, text string) *Message {
	return NewMessageBuilder().
		WithType(MessageTypeSystem).
		WithGroup(groupID).
		WithData(text).
		Build()
}

// ConnectedMessage is the first message a new member receives.
func ConnectedMessage(groupID, connID string) *Message {
	return NewMessageBuilder().
		WithType(MessageTypeConnected).
		WithGroup(groupID).
		WithData(map[string]interface{}{
			"connection_id": connID,
			"group_id":      groupID,
		}).
		Build()
}

func KeepAliveMessage() *Message {
	return NewMessageBuilder().
		WithType(MessageTypeKeepAlive).
		WithData(map[string]interface{}{
			"timestamp": time.Now().Unix(),
			"message":   "connection alive",
		}).
		Build()
}

func ErrorMessage(code string, message string) *Message {
	return NewMessageBuilder().
		WithType(MessageTypeError).
		WithData(map[string]interface{}{
			"code":    code,
			"message": message,
		}).
		Build()
}

// NewMessageID generates a unique message ID
func NewMessageID() string {
	return "msg-" + uuid.NewString()
}

// NewConnectionID generates a unique connection ID with the given prefix.
func NewConnectionID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// MessageValidator validates messages before sending
type MessageValidator struct{}

func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

func (mv *MessageValidator) Validate(message *Message) error {
	if message == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if message.ID == "" {
		return fmt.Errorf("message ID cannot be empty")
	}
	if !IsValidMessageType(message.Type) {
		return fmt.Errorf("message type %q is not supported", message.Type)
	}
	if message.Data != nil {
		if _, err := json.Marshal(message.Data); err != nil {
			return fmt.Errorf("message data must be JSON serializable: %w", err)
		}
	}
	return nil
}

func IsValidMessageType(msgType string) bool {
	switch MessageType(msgType) {
	case MessageTypeChat, MessageTypeSystem, MessageTypeConnected, MessageTypeKeepAlive, MessageTypeError:
		return true
	}
	return false
}
