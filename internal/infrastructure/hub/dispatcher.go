package hub

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"go-group-relay/internal/infrastructure/logger"
)

// DeliveryFailure records one member that did not get a message.
type DeliveryFailure struct {
	ConnectionID string
	Connection   Connection
	Err          error
	Permanent    bool
}

// DeliveryReport summarises one broadcast.
type DeliveryReport struct {
	GroupID   string
	MessageID string
	Attempted int
	Delivered int
	Failures  []DeliveryFailure
}

// OK reports whether every member received the message.
func (r *DeliveryReport) OK() bool {
	return len(r.Failures) == 0
}

// PermanentFailures returns the members whose channel is closed.
func (r *DeliveryReport) PermanentFailures() []Connection {
	var conns []Connection
	for _, f := range r.Failures {
		if f.Permanent {
			conns = append(conns, f.Connection)
		}
	}
	return conns
}

// DispatcherOptions tunes fan-out.
type DispatcherOptions struct {
	// SendTimeout bounds each individual send.
	SendTimeout time.Duration
	// Concurrency bounds the number of sends in flight per broadcast.
	Concurrency int
}

func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{
		SendTimeout: 5 * time.Second,
		Concurrency: 64,
	}
}

// Dispatcher fans messages out to the members of a group. It only reads the
// registry; pruning failed members is left to the caller.
type Dispatcher struct {
	registry  *Registry
	opts      DispatcherOptions
	validator *MessageValidator
	logger    logger.Logger
	recorder  Recorder
}

func NewDispatcher(registry *Registry, opts DispatcherOptions, log logger.Logger, recorder Recorder) *Dispatcher {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	defaults := DefaultDispatcherOptions()
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaults.SendTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}
	return &Dispatcher{
		registry:  registry,
		opts:      opts,
		validator: NewMessageValidator(),
		logger:    log.WithField("component", "dispatcher"),
		recorder:  recorder,
	}
}

// Broadcast sends payload as a chat message to every member of groupID.
func (d *Dispatcher) Broadcast(ctx context.Context, groupID, payload string) *DeliveryReport {
	return d.BroadcastMessage(ctx, groupID, ChatMessage(groupID, payload))
}

// BroadcastMessage snapshots the members of groupID and attempts delivery to
// each of them. A failed send never stops the others; the call returns once
// every member has been attempted. A message that fails validation reaches
// nobody and yields an empty report.
func (d *Dispatcher) BroadcastMessage(ctx context.Context, groupID string, message *Message) *DeliveryReport {
	if err := d.validator.Validate(message); err != nil {
		d.logger.Warnf("Dropping invalid message for group %s: %v", groupID, err)
		report := &DeliveryReport{GroupID: groupID}
		if message != nil {
			report.MessageID = message.ID
		}
		return report
	}

	start := time.Now()
	members := d.registry.MembersOf(groupID)

	report := &DeliveryReport{
		GroupID:   groupID,
		MessageID: message.ID,
		Attempted: len(members),
	}

	var (
		mu sync.Mutex
		eg errgroup.Group
	)
	eg.SetLimit(d.opts.Concurrency)

	for _, conn := range members {
		eg.Go(func() error {
			err := d.send(ctx, conn, message)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, DeliveryFailure{
					ConnectionID: conn.ID(),
					Connection:   conn,
					Err:          err,
					Permanent:    IsPermanent(err),
				})
				return nil
			}
			report.Delivered++
			return nil
		})
	}
	// sends never return errors; failures live in the report
	_ = eg.Wait()

	elapsed := time.Since(start)
	d.recorder.BroadcastCompleted(report, elapsed)

	if len(report.Failures) > 0 {
		d.logger.Warnf(
			"Broadcast %s to group %s: delivered %d/%d, %d failed",
			message.ID, groupID, report.Delivered, report.Attempted, len(report.Failures),
		)
	} else {
		d.logger.Debugf("Broadcast %s to group %s: delivered %d in %s", message.ID, groupID, report.Delivered, elapsed)
	}
	return report
}

func (d *Dispatcher) send(ctx context.Context, conn Connection, message *Message) error {
	if conn.IsClosed() {
		return ErrConnectionClosed
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	if err := conn.Send(sendCtx, message); err != nil {
		d.logger.Debugf("Failed to deliver %s to connection %s: %v", message.ID, conn.ID(), err)
		return err
	}
	return nil
}
