package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBufferFull is returned by async Emit when the inbox is saturated and the
// caller's context has no room to wait. The transition itself is already
// committed; losing the notification is acceptable, losing the commit is not.
var ErrBufferFull = errors.New("event buffer full")

// Publisher stamps and forwards transition events to a sink. By default Emit
// is synchronous; WithAsyncBuffer moves delivery onto a background goroutine
// so slow sinks stay off the request path.
type Publisher struct {
	sink  Sink
	inbox chan Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer enables buffered asynchronous delivery with the given
// capacity. Close drains whatever is buffered before returning.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

func NewPublisher(sink Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for e := range p.inbox {
		// Delivery errors are swallowed in async mode; the sink contract
		// requires duplicate tolerance, not guaranteed receipt.
		_ = p.sink.Append(context.Background(), e)
	}
}

func (p *Publisher) Emit(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if p.inbox == nil {
		return p.sink.Append(ctx, e)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.inbox <- e:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events and waits for buffered ones to reach the sink.
// Safe to call more than once.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
		}
	})
	p.wg.Wait()
}
