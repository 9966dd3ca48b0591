// SPDX-License-Identifier: GPL-3.0-or-later

package stream

// Mono emits at most one value then completes, per spec §4.5. It is
// implemented as a thin wrapper over a [Flux] whose source yields a single
// item, reusing the same subscribe/adapter machinery.
type Mono[T any] struct {
	flux *Flux[T]
}

// NewMono wraps source as a [Mono]. Callers normally use [JustMono] or
// [FromFnMono] instead of calling this directly.
func NewMono[T any](source Source[T]) *Mono[T] {
	return &Mono[T]{flux: NewFlux(source)}
}

// JustMono returns a [Mono] that yields v, per spec §4.5's "just(v)".
func JustMono[T any](v T) *Mono[T] {
	return NewMono[T](JustSource(v))
}

// FromFnMono returns a [Mono] that yields the result of calling f, computed
// lazily on subscribe, per spec §4.5's "from_fn(f)".
func FromFnMono[T any](f func() T) *Mono[T] {
	return NewMono[T](FromFnSource(f))
}

// OnFinish installs a closure invoked once the value has been delivered
// (or immediately, if the source never yields). Returns m for chaining.
func (m *Mono[T]) OnFinish(onFinish func()) *Mono[T] {
	m.flux.OnFinish(onFinish)
	return m
}

// Subscribe attaches a synchronous subscriber.
func (m *Mono[T]) Subscribe(consumer func(T)) {
	m.flux.Subscribe(consumer)
}

// SubscribeAsync attaches an asynchronous subscriber. Since a Mono yields
// at most one value, the completion token's decision is moot: the
// underlying Flux always terminates after that single value regardless of
// what the caller passes back.
func (m *Mono[T]) SubscribeAsync(consumer func(value T, completionToken func(more bool))) {
	m.flux.SubscribeAsync(func(v T, token func(bool)) {
		consumer(v, func(bool) { token(false) })
	})
}
