package hub

import "errors"

var (
	// ErrConnectionClosed marks a permanent member failure: the member's
	// channel is gone and it should be unregistered.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrSendBufferFull marks a transient failure: the member is alive but
	// could not accept the message in time.
	ErrSendBufferFull = errors.New("send buffer full")

	ErrHubNotRunning = errors.New("hub is not running")
	ErrHubRunning    = errors.New("hub is already running")
)

// IsPermanent reports whether a delivery error means the member is gone.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrConnectionClosed)
}
