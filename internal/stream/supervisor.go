// Package stream supervises long-lived server-streamed subscriptions.
//
// A Supervisor waits for a precondition, opens its stream, hands every
// message to OnMessage in arrival order and, when the stream ends for any
// reason, calls OnEnd and starts over. Each phase that can fail goes
// through the retry driver, so a subscription survives any backend outage.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/retry"
)

// ErrAlreadySubscribed is returned by Subscribe while a subscription is live.
var ErrAlreadySubscribed = errors.New("stream: already subscribed")

// Receiver yields stream messages until it returns an error. io.EOF marks
// a graceful close by the server.
type Receiver[M any] interface {
	Recv() (M, error)
}

// Precondition must succeed before the stream is opened.
type Precondition func(ctx context.Context) error

// Opener opens the stream for filter. The stream must end when ctx is done.
type Opener[M any] func(ctx context.Context, filter string) (Receiver[M], error)

// Handlers are bound once per Supervisor and survive reconnects.
type Handlers[M any] struct {
	OnMessage func(M)
	// OnEnd runs after the stream ended and before the reconnect starts.
	// It is not called when the subscription is closed.
	OnEnd func(err error)
}

// Supervisor owns one logical subscription.
type Supervisor[M any] struct {
	name         string
	precondition Precondition
	open         Opener[M]
	handlers     Handlers[M]
	retry        retry.Options
	log          *slog.Logger

	mu          sync.Mutex
	state       ConnState
	filter      string
	initialized bool
	reconnects  uint64
	cancel      context.CancelFunc
	done        chan struct{}
}

// New creates an idle Supervisor. precondition may be nil.
func New[M any](name string, precondition Precondition, open Opener[M], h Handlers[M], opts retry.Options) *Supervisor[M] {
	log := hwlog.For("stream").With("stream", name)
	if opts.Log == nil {
		opts.Log = log
	}
	return &Supervisor[M]{
		name:         name,
		precondition: precondition,
		open:         open,
		handlers:     h,
		retry:        opts,
		log:          log,
	}
}

// Subscribe starts supervising the stream for filter and returns at once.
// The subscription lives until Close is called or ctx is done.
func (s *Supervisor[M]) Subscribe(ctx context.Context, filter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
			// Previous run stopped on its own (ceiling or parent context).
		default:
			if s.state != StateFailed && s.state != StateIdle {
				return ErrAlreadySubscribed
			}
			// A failed or abandoned run is returning; it takes no lock
			// on the way out.
			<-s.done
		}
		s.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.filter = filter
	s.initialized = false
	s.state = StateConnecting

	s.log.Info("subscribing", "filter", filter)
	go s.run(ctx, filter, done)
	return nil
}

// Close cancels the subscription, closes the open stream and waits for the
// supervision goroutine to exit. Afterwards the Supervisor is idle and can
// be subscribed again. Close on an idle Supervisor is a no-op.
func (s *Supervisor[M]) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	if done == nil {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	if s.done == done {
		s.cancel = nil
		s.done = nil
		s.initialized = false
		s.state = StateIdle
	}
	s.mu.Unlock()
	s.log.Info("subscription closed")
}

// State returns a snapshot of the subscription.
func (s *Supervisor[M]) State() SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SubscriptionState{
		Name:        s.name,
		Filter:      s.filter,
		State:       s.state,
		Connected:   s.state == StateStreaming,
		Initialized: s.initialized,
		Reconnects:  s.reconnects,
	}
}

// setState records st unless Close is in progress.
func (s *Supervisor[M]) setState(st ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = st
	if st == StateStreaming {
		s.initialized = true
	}
}

func (s *Supervisor[M]) run(ctx context.Context, filter string, done chan struct{}) {
	defer close(done)

	for {
		recv, closeStream, err := s.connect(ctx, filter)
		if err != nil {
			if ctx.Err() != nil {
				s.abandoned(done)
				return
			}
			s.setState(StateFailed)
			s.log.Error("subscription failed", "error", err)
			return
		}

		s.setState(StateStreaming)
		s.log.Info("stream open", "filter", filter)

		endErr := s.pump(recv)
		closeStream()
		if ctx.Err() != nil {
			s.abandoned(done)
			return
		}
		s.ended(endErr)
	}
}

// abandoned resets the subscription after its parent context ended. Close
// owns the reset when it is the one cancelling.
func (s *Supervisor[M]) abandoned(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != done || s.state == StateClosed {
		return
	}
	s.state = StateIdle
	s.initialized = false
	s.log.Info("subscription context ended")
}

// connect runs the precondition and opens the stream as one retried
// operation, so the attempt ceiling covers both and an open failure
// re-checks the precondition. The returned func releases the stream.
func (s *Supervisor[M]) connect(ctx context.Context, filter string) (Receiver[M], context.CancelFunc, error) {
	s.setState(StateConnecting)

	var (
		recv        Receiver[M]
		closeStream context.CancelFunc
	)
	err := retry.Forever(ctx, s.name+".connect", func(ctx context.Context) error {
		if s.precondition != nil {
			if err := s.precondition(ctx); err != nil {
				return fmt.Errorf("%s precondition: %w", s.name, err)
			}
		}
		streamCtx, cancel := context.WithCancel(ctx)
		r, err := s.open(streamCtx, filter)
		if err != nil {
			cancel()
			return fmt.Errorf("open %s stream: %w", s.name, err)
		}
		recv, closeStream = r, cancel
		return nil
	}, s.retry)
	if err != nil {
		return nil, nil, err
	}
	return recv, closeStream, nil
}

func (s *Supervisor[M]) pump(recv Receiver[M]) error {
	for {
		m, err := recv.Recv()
		if err != nil {
			return err
		}
		if s.handlers.OnMessage != nil {
			s.handlers.OnMessage(m)
		}
	}
}

func (s *Supervisor[M]) ended(err error) {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()

	switch {
	case errors.Is(err, io.EOF):
		s.log.Info("stream closed by server, reconnecting")
	case status.Code(err) == codes.Canceled:
		s.log.Debug("stream canceled, reconnecting", "error", err)
	default:
		s.log.Warn("stream interrupted, reconnecting", "error", err)
	}
	s.retry.Stats.StreamEnded(s.name)

	if s.handlers.OnEnd != nil {
		s.handlers.OnEnd(err)
	}
}
