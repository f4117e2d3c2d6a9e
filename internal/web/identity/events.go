package identity

import (
	"sync"
	"sync/atomic"
)

// Events delivers identity changes to listeners from a single goroutine.
//
// Publish and Subscribe only enqueue, so they are safe to call while holding
// the caller's state lock; doing so makes the delivery order match the order
// of the state changes. Listeners run one at a time, in registration order.
type Events struct {
	mu        sync.Mutex
	listeners []*subscription
	queue     []delivery

	notify chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

type subscription struct {
	fn     Listener
	active atomic.Bool
}

type delivery struct {
	targets  []*subscription
	identity *Identity
}

func NewEvents() *Events {
	return &Events{
		notify: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the dispatcher. Events published earlier are delivered
// once it runs.
func (e *Events) Start() {
	e.startOnce.Do(func() { go e.run() })
}

// Stop waits for the in-flight delivery to finish and drops the rest.
func (e *Events) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		e.startOnce.Do(func() { close(e.doneCh) })
	})
	<-e.doneCh
}

// Subscribe registers fn and queues its initial event carrying current.
func (e *Events) Subscribe(fn Listener, current *Identity) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	sub.active.Store(true)

	e.mu.Lock()
	e.listeners = append(e.listeners, sub)
	e.queue = append(e.queue, delivery{targets: []*subscription{sub}, identity: clone(current)})
	e.mu.Unlock()
	e.wake()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)

			e.mu.Lock()
			defer e.mu.Unlock()
			for i, l := range e.listeners {
				if l == sub {
					e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish queues id for every listener registered right now.
func (e *Events) Publish(id *Identity) {
	e.mu.Lock()
	targets := append([]*subscription(nil), e.listeners...)
	if len(targets) > 0 {
		e.queue = append(e.queue, delivery{targets: targets, identity: clone(id)})
	}
	e.mu.Unlock()
	e.wake()
}

func (e *Events) wake() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *Events) next() (delivery, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return delivery{}, false
	}
	d := e.queue[0]
	e.queue[0] = delivery{}
	e.queue = e.queue[1:]
	return d, true
}

func (e *Events) run() {
	defer close(e.doneCh)

	for {
		select {
		case <-e.stopCh:
			return
		case <-e.notify:
		}

		for {
			d, ok := e.next()
			if !ok {
				break
			}
			for _, sub := range d.targets {
				select {
				case <-e.stopCh:
					return
				default:
				}
				if sub.active.Load() {
					sub.fn(clone(d.identity))
				}
			}
		}
	}
}

func clone(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
