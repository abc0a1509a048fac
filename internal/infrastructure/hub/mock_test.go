package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"go-group-relay/internal/infrastructure/logger"
)

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewNopLogger(), nil)
}

type mockConnection struct {
	id  string
	ctx context.Context

	mu               sync.Mutex
	closed           bool
	sendErr          error
	receivedMessages []*Message

	// onSend runs before the message is recorded
	onSend   func()
	attempts atomic.Int32
}

func newMockConnection(id string) *mockConnection {
	return &mockConnection{id: id, ctx: context.Background()}
}

func (m *mockConnection) ID() string   { return m.id }
func (m *mockConnection) Type() string { return "mock" }

func (m *mockConnection) Send(ctx context.Context, message *Message) error {
	m.attempts.Add(1)
	if m.onSend != nil {
		m.onSend()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.receivedMessages = append(m.receivedMessages, message)
	return nil
}

func (m *mockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConnection) Context() context.Context { return m.ctx }

func (m *mockConnection) received() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Message(nil), m.receivedMessages...)
}

func memberIDs(conns []Connection) []string {
	ids := make([]string, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.ID())
	}
	return ids
}
