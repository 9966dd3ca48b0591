//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: golang.org/x/sync/errgroup fan-out/join usage, applied here
// to the async sink group of spec §4.5.
//

package stream

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Broadcaster is the async sink group of spec §4.5: it fans a value to
// every child sink concurrently, each with its own completion token, and
// signals upstream demand only once every child has responded. Upstream
// demand is "any true ⇒ demand next", implementing backpressure for
// broadcast: a single child asking for more keeps the stream alive even if
// the others are done.
type Broadcaster[T any] struct {
	mu        sync.Mutex
	children  []AsyncSink[T]
	exhausted []bool
}

// NewBroadcaster builds a [*Broadcaster] fanning out to children.
func NewBroadcaster[T any](children ...AsyncSink[T]) *Broadcaster[T] {
	return &Broadcaster[T]{children: children, exhausted: make([]bool, len(children))}
}

// Call fans v to every child that has not yet signaled it is done wanting
// more, waits for all of them to respond, then invokes upstream with the
// joined demand decision computed only over the still-live children. A
// child that answers false is marked exhausted and is never invoked again
// on subsequent calls (spec §8 scenario S5: a sink that stops demanding
// after N values must not keep receiving values N+1, N+2, ...). Once every
// child is exhausted, upstream is told false without fanning out at all.
func (b *Broadcaster[T]) Call(ctx context.Context, v T, upstream func(more bool)) {
	b.mu.Lock()
	live := make([]int, 0, len(b.children))
	for i, done := range b.exhausted {
		if !done {
			live = append(live, i)
		}
	}
	b.mu.Unlock()

	if len(live) == 0 {
		upstream(false)
		return
	}

	var (
		mu      sync.Mutex
		anyMore bool
		g       errgroup.Group
	)
	for _, i := range live {
		child := b.children[i]
		i := i
		g.Go(func() error {
			result := make(chan bool, 1)
			child(v, func(more bool) { result <- more })
			select {
			case more := <-result:
				mu.Lock()
				anyMore = anyMore || more
				mu.Unlock()
				if !more {
					b.mu.Lock()
					b.exhausted[i] = true
					b.mu.Unlock()
				}
			case <-ctx.Done():
			}
			return nil
		})
	}
	g.Wait()
	upstream(anyMore)
}

// AsSink adapts b into an [AsyncSink], ignoring the background context
// (equivalent to context.Background) for callers composing it into a
// chain that only deals in the [AsyncSink] shape.
func (b *Broadcaster[T]) AsSink() AsyncSink[T] {
	return func(v T, completionToken func(bool)) {
		b.Call(context.Background(), v, completionToken)
	}
}
