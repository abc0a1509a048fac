package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server is a component with a blocking Start and a graceful Stop.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Timeouts bound the lifetime of HTTP requests; zero disables a limit.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

type HTTPServer struct {
	srv *http.Server
}

var _ Server = (*HTTPServer)(nil)

func NewHTTPServer(addr string, handler http.Handler, timeouts Timeouts) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  timeouts.Read,
			WriteTimeout: timeouts.Write,
			IdleTimeout:  timeouts.Idle,
		},
	}
}

// Addr is the address the server listens on.
func (h *HTTPServer) Addr() string {
	return h.srv.Addr
}

// Start serves until Stop is called. A graceful stop is not an error.
func (h *HTTPServer) Start(ctx context.Context) error {
	h.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	err := h.srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *HTTPServer) Stop(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
