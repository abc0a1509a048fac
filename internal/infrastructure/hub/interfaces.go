package hub

import (
	"context"
	"time"
)

// Connection represents any type of group member connection (SSE, WebSocket, etc.).
// The registry holds a non-owning reference; the gateway that created the
// connection owns its lifetime.
type Connection interface {
	ID() string
	Type() string
	Send(ctx context.Context, message *Message) error
	Close() error
	IsClosed() bool
	Context() context.Context
}

// Message represents a message to be sent through connections
type Message struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	GroupID string            `json:"group_id,omitempty"`
	Data    interface{}       `json:"data"`
	Headers map[string]string `json:"headers,omitempty"`
}

// InboundHandler receives payloads read from a connection, in receipt order.
type InboundHandler func(ctx context.Context, conn Connection, payload string)

// Recorder observes registry and dispatcher activity.
type Recorder interface {
	MembershipChanged(groups, connections int)
	BroadcastCompleted(report *DeliveryReport, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) MembershipChanged(int, int)                        {}
func (nopRecorder) BroadcastCompleted(*DeliveryReport, time.Duration) {}
