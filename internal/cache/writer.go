// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// writeMessage is a single queued background write.
type writeMessage struct {
	key  string
	json []byte
	ttl  time.Duration
}

// writer is an unbounded producer/consumer queue draining into a Store on a
// single goroutine, mirroring the mpsc-unbounded-channel-plus-drain-loop
// design of the system this cache replaces: SetInBackground never blocks
// enqueuing, and shutdown flushes every message already queued before it
// returns.
type writer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []writeMessage
	closed bool
	done   chan struct{}

	store  Store
	logger zerolog.Logger
}

func newWriter(store Store, logger zerolog.Logger) *writer {
	w := &writer{store: store, logger: logger, done: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// enqueue appends msg to the queue. It is a no-op once shutdown has begun.
func (w *writer) enqueue(msg writeMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.queue = append(w.queue, msg)
	w.cond.Signal()
}

// run drains the queue until shutdown, at which point it keeps draining
// whatever remains before exiting.
func (w *writer) run() {
	defer close(w.done)

	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 && w.closed {
			w.mu.Unlock()
			return
		}
		msg := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.flush(msg)
	}
}

func (w *writer) flush(msg writeMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.store.SetEX(ctx, msg.key, msg.json, msg.ttl); err != nil {
		w.logger.Error().Err(err).Str("key", msg.key).Msg("cache: background write failed")
	}
}

// shutdown signals the writer to stop accepting new work and blocks until
// every message already queued has been flushed.
func (w *writer) shutdown() {
	w.mu.Lock()
	w.closed = true
	w.cond.Signal()
	w.mu.Unlock()
	<-w.done
}
