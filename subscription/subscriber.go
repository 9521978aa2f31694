package subscription

import (
	"context"
	"io"
	"sync"

	"github.com/streamingfast/defi-subgraphs/state"
)

type Subscriber struct {
	input     chan state.StateDelta
	done      chan struct{}
	closeOnce sync.Once
}

func NewSubscriber() *Subscriber {
	return &Subscriber{
		input: make(chan state.StateDelta, 100),
		done:  make(chan struct{}),
	}
}

// Next returns the next delta, io.EOF once unsubscribed.
func (s *Subscriber) Next(ctx context.Context) (*state.StateDelta, error) {
	select {
	case next := <-s.input:
		return &next, nil
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
