package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-group-relay/internal/infrastructure/logger"
)

// Options configures a Hub.
type Options struct {
	Dispatcher      DispatcherOptions
	CleanupInterval time.Duration
	Recorder        Recorder
}

// Hub is the contract the connection gateways talk to. It owns one registry
// and one dispatcher for the lifetime of the process.
type Hub struct {
	registry   *Registry
	dispatcher *Dispatcher

	running   bool
	runningMu sync.RWMutex

	cleanupInterval time.Duration
	logger          logger.Logger

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Hub instance
func New(log logger.Logger, opts Options) *Hub {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 30 * time.Second
	}
	registry := NewRegistry(log, opts.Recorder)
	return &Hub{
		registry:        registry,
		dispatcher:      NewDispatcher(registry, opts.Dispatcher, log, opts.Recorder),
		cleanupInterval: opts.CleanupInterval,
		logger:          log.WithField("component", "hub"),
	}
}

func (h *Hub) Registry() *Registry     { return h.registry }
func (h *Hub) Dispatcher() *Dispatcher { return h.dispatcher }

// Start starts the hub and its cleanup loop
func (h *Hub) Start(ctx context.Context) error {
	h.runningMu.Lock()
	defer h.runningMu.Unlock()

	if h.running {
		return ErrHubRunning
	}

	h.ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})
	h.running = true

	go h.run(h.ctx, h.done)

	h.logger.Info("Hub started successfully")
	return nil
}

// Stop halts the cleanup loop and closes every member connection. The
// gateways observe the closed connections and leave their groups.
func (h *Hub) Stop(ctx context.Context) error {
	h.runningMu.Lock()
	if !h.running {
		h.runningMu.Unlock()
		return nil
	}
	h.running = false
	h.cancel()
	done := h.done
	h.runningMu.Unlock()

	// members are closed even when the loop does not finish in time
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for hub loop: %w", ctx.Err())
	}

	var members []Connection
	h.registry.Prune(func(_ string, conn Connection) bool {
		members = append(members, conn)
		return true
	})
	for _, conn := range members {
		if closeErr := conn.Close(); closeErr != nil {
			h.logger.Errorf("Failed to close connection %s: %v", conn.ID(), closeErr)
		}
	}

	if err != nil {
		h.logger.Warnf("Hub stopped with %v, closed %d connections", err, len(members))
		return err
	}
	h.logger.Infof("Hub stopped successfully, closed %d connections", len(members))
	return nil
}

// IsRunning returns true if the hub is currently running
func (h *Hub) IsRunning() bool {
	h.runningMu.RLock()
	defer h.runningMu.RUnlock()
	return h.running
}

// Join registers conn as a member of groupID. It holds the running state
// while registering, so a concurrent Stop either sees the member or makes
// Join fail.
func (h *Hub) Join(groupID string, conn Connection) error {
	h.runningMu.RLock()
	defer h.runningMu.RUnlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.registry.Register(groupID, conn)
	return nil
}

// Leave removes conn from groupID. It always succeeds, even after Stop or
// when called more than once.
func (h *Hub) Leave(groupID string, conn Connection) {
	h.registry.Unregister(groupID, conn)
}

// Publish broadcasts message to groupID and unregisters the members whose
// connection turned out to be closed.
func (h *Hub) Publish(ctx context.Context, groupID string, message *Message) *DeliveryReport {
	report := h.dispatcher.BroadcastMessage(ctx, groupID, message)
	for _, conn := range report.PermanentFailures() {
		h.registry.Unregister(groupID, conn)
	}
	return report
}

// PublishText relays text from a member to its group.
func (h *Hub) PublishText(ctx context.Context, groupID, text string) *DeliveryReport {
	return h.Publish(ctx, groupID, ChatMessage(groupID, text))
}

// ConnectionCount returns the number of registered members across groups
func (h *Hub) ConnectionCount() int {
	return h.registry.ConnectionCount()
}

func (h *Hub) GroupCount() int {
	return h.registry.GroupCount()
}

// run periodically drops members whose connection closed without leaving.
func (h *Hub) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(h.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.cleanupClosedConnections()

		case <-ctx.Done():
			h.logger.Info("Hub run loop stopped")
			return
		}
	}
}

// cleanupClosedConnections checks members outside the registry lock, so a
// slow IsClosed never blocks Join, Leave or Stop.
func (h *Hub) cleanupClosedConnections() {
	for _, group := range h.registry.Groups() {
		for _, conn := range h.registry.MembersOf(group.GroupID) {
			if conn.IsClosed() {
				h.registry.Unregister(group.GroupID, conn)
				h.logger.Infof("Cleaned up closed connection %s in group %s", conn.ID(), group.GroupID)
			}
		}
	}
}
