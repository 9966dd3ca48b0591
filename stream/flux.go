// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import "github.com/bassosimone/runtimex"

// Flux emits zero or more values then completes, per spec §4.5.
//
// Exactly one subscriber may attach to a Flux; a second Subscribe or
// SubscribeAsync call panics (spec: "Exactly one subscriber per chain").
type Flux[T any] struct {
	source     Source[T]
	onFinish   func()
	subscribed bool
}

// NewFlux wraps source as a [Flux].
func NewFlux[T any](source Source[T]) *Flux[T] {
	return &Flux[T]{source: source}
}

// OnFinish installs a closure invoked once the source is drained, whether
// via sync or async subscription. Returns f for chaining.
func (f *Flux[T]) OnFinish(onFinish func()) *Flux[T] {
	f.onFinish = onFinish
	return f
}

// Subscribe attaches a synchronous subscriber: after each delivery the
// Flux automatically re-demands the next value until the source is
// exhausted (spec §4.5).
func (f *Flux[T]) Subscribe(consumer func(T)) {
	runtimex.Assert(!f.subscribed)
	f.subscribed = true
	for f.source.HasNext() {
		f.source.Next(consumer)
	}
	if f.onFinish != nil {
		f.onFinish()
	}
}

// SubscribeAsync attaches an asynchronous subscriber: consumer receives
// each value plus a completion token; calling the token with true demands
// the next value, false stops the subscription (spec §4.5).
func (f *Flux[T]) SubscribeAsync(consumer func(value T, completionToken func(more bool))) {
	runtimex.Assert(!f.subscribed)
	f.subscribed = true

	var step func()
	step = func() {
		if !f.source.HasNext() {
			if f.onFinish != nil {
				f.onFinish()
			}
			return
		}
		f.source.Next(func(v T) {
			consumer(v, func(more bool) {
				if more {
					step()
					return
				}
				if f.onFinish != nil {
					f.onFinish()
				}
			})
		})
	}
	step()
}

// Lazy detaches f into a [LazyFlux] handle that defers building the chain
// until it is subscribed, per spec §4.5's "make_lazy()".
func (f *Flux[T]) Lazy() *LazyFlux[T] {
	return &LazyFlux[T]{build: func() *Flux[T] { return f }}
}

// LazyFlux keeps a [Flux] chain alive without subscribing it, per spec
// §4.5. Build runs exactly once, on the first Subscribe/SubscribeAsync
// call.
type LazyFlux[T any] struct {
	build func() *Flux[T]
	built *Flux[T]
}

func (l *LazyFlux[T]) resolve() *Flux[T] {
	if l.built == nil {
		l.built = l.build()
	}
	return l.built
}

// Subscribe builds the underlying [Flux], if not already built, and
// subscribes synchronously.
func (l *LazyFlux[T]) Subscribe(consumer func(T)) {
	l.resolve().Subscribe(consumer)
}

// SubscribeAsync builds the underlying [Flux], if not already built, and
// subscribes asynchronously.
func (l *LazyFlux[T]) SubscribeAsync(consumer func(value T, completionToken func(more bool))) {
	l.resolve().SubscribeAsync(consumer)
}
