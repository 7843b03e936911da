package sse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrStreamClosed is returned by Send after Close
var ErrStreamClosed = errors.New("stream closed")

// Stream is one SSE response. Send may be called from any goroutine;
// Serve writes the events in order until Close or client disconnect.
type Stream struct {
	ctx       *gin.Context
	events    chan Event
	heartbeat time.Duration
	onError   func(error)

	mu     sync.RWMutex // guards events against send after close
	closed atomic.Bool
	done   chan struct{}
}

// StreamBuilder configures a Stream
type StreamBuilder struct {
	ginCtx     *gin.Context
	bufferSize int
	heartbeat  time.Duration
	onError    func(error)
}

// NewStream starts building a stream for c
func NewStream(c *gin.Context) *StreamBuilder {
	return &StreamBuilder{
		ginCtx:     c,
		bufferSize: 16,
		heartbeat:  15 * time.Second,
	}
}

// WithBufferSize sets the event buffer size
func (b *StreamBuilder) WithBufferSize(size int) *StreamBuilder {
	if size > 0 {
		b.bufferSize = size
	}
	return b
}

// WithHeartbeat sets the comment heartbeat interval; 0 disables it
func (b *StreamBuilder) WithHeartbeat(interval time.Duration) *StreamBuilder {
	b.heartbeat = interval
	return b
}

// OnError sets the write error hook
func (b *StreamBuilder) OnError(fn func(error)) *StreamBuilder {
	b.onError = fn
	return b
}

// Build creates the stream
func (b *StreamBuilder) Build() *Stream {
	return &Stream{
		ctx:       b.ginCtx,
		events:    make(chan Event, b.bufferSize),
		heartbeat: b.heartbeat,
		onError:   b.onError,
		done:      make(chan struct{}),
	}
}

// Send queues an event. It blocks while the buffer is full and gives up
// when the stream closes or ctx ends.
func (s *Stream) Send(ctx context.Context, eventType string, data interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return ErrStreamClosed
	}
	select {
	case s.events <- Event{Type: eventType, Data: data}:
		return nil
	case <-s.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream after queued events are written. It is idempotent.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.CompareAndSwap(false, true) {
		close(s.events)
	}
}

// IsClosed reports whether Close was called
func (s *Stream) IsClosed() bool {
	return s.closed.Load()
}

// Serve writes the SSE headers and then every queued event until the
// stream is closed and drained or the client goes away.
func (s *Stream) Serve() {
	defer close(s.done)

	s.ctx.Header("Content-Type", "text/event-stream")
	s.ctx.Header("Cache-Control", "no-cache")
	s.ctx.Header("Connection", "keep-alive")
	s.ctx.Header("X-Accel-Buffering", "no")
	s.ctx.Status(200)
	s.ctx.Writer.Flush()

	var tick <-chan time.Time
	if s.heartbeat > 0 {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}
	clientGone := s.ctx.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-s.events:
			if !ok {
				return
			}
			if !s.write(event.FormatSSE()) {
				return
			}
		case <-tick:
			if !s.write(": heartbeat\n\n") {
				return
			}
		}
	}
}

func (s *Stream) write(frame string) bool {
	if _, err := fmt.Fprint(s.ctx.Writer, frame); err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return false
	}
	s.ctx.Writer.Flush()
	return true
}
