package engine

import "sync"

const subscriberBuffer = 64

// Publisher fans out values to subscribers. Each subscriber receives the
// latest value on subscribe and every later value in order. A subscriber
// that falls behind by a full buffer loses its oldest values.
type Publisher[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	next   int
	last   T
	has    bool
	closed bool
}

// NewPublisher returns an empty publisher.
func NewPublisher[T any]() *Publisher[T] {
	return &Publisher[T]{subs: make(map[int]chan T)}
}

// Subscribe returns a channel of values and a func that unsubscribes. The
// channel is closed on unsubscribe or Close.
func (p *Publisher[T]) Subscribe() (<-chan T, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan T, subscriberBuffer)
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	if p.has {
		ch <- p.last
	}

	id := p.next
	p.next++
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}
}

// Publish stores v as the latest value and delivers it without blocking.
func (p *Publisher[T]) Publish(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.last, p.has = v, true
	for _, ch := range p.subs {
		select {
		case ch <- v:
		default:
			// drop the oldest value to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Last returns the latest published value.
func (p *Publisher[T]) Last() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.has
}

// Close closes every subscriber channel. Later publishes are dropped.
func (p *Publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}
