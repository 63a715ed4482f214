package iter

import (
	"context"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
	"github.com/TaffyWrinkle/jacdac/internal/optional"
)

// NewSlice iterates over vs in order.
func NewSlice[T any](vs []T) idl.Iterator[T] {
	return &sliceIterator[T]{values: vs}
}

type sliceIterator[T any] struct {
	values []T
	next   int
}

func (self *sliceIterator[T]) Next(ctx context.Context) optional.Optional[T] {
	if self.next >= len(self.values) {
		return optional.None[T]()
	}
	v := self.values[self.next]
	self.next = self.next + 1
	return optional.Some(v)
}

func (self *sliceIterator[T]) Close(ctx context.Context) error {
	return nil
}

// NewIteratorFilter yields only the values of it that f keeps. Closing the
// filter closes it.
func NewIteratorFilter[T any](it idl.Iterator[T], f idl.Filter[T]) idl.Iterator[T] {
	return &filterIterator[T]{source: it, filter: f}
}

type filterIterator[T any] struct {
	source idl.Iterator[T]
	filter idl.Filter[T]
}

func (self *filterIterator[T]) Next(ctx context.Context) optional.Optional[T] {
	v := self.source.Next(ctx)
	for v.IsPresent() && !self.filter.Keep(ctx, v.Value()) {
		v = self.source.Next(ctx)
	}
	return v
}

func (self *filterIterator[T]) Close(ctx context.Context) error {
	return self.source.Close(ctx)
}

// NewLookahead allows peeking up to n values past the current one. Values
// are pulled from it only when a peek or Next needs them.
func NewLookahead[T any](it idl.Iterator[T], n uint8) idl.Lookahead[T] {
	return &lookahead[T]{source: it, depth: int(n)}
}

type lookahead[T any] struct {
	source idl.Iterator[T]
	depth  int
	// window[0] is the current value once Next has been called and the
	// upcoming value before that.
	window  []optional.Optional[T]
	started bool
}

func (self *lookahead[T]) fill(ctx context.Context, size int) {
	for len(self.window) < size {
		self.window = append(self.window, self.source.Next(ctx))
	}
}

func (self *lookahead[T]) Next(ctx context.Context) optional.Optional[T] {
	if self.started && len(self.window) > 0 {
		self.window = append(self.window[:0], self.window[1:]...)
	}
	self.started = true
	self.fill(ctx, 1)
	return self.window[0]
}

func (self *lookahead[T]) Lookahead(ctx context.Context, n uint8) optional.Optional[T] {
	if int(n) > self.depth {
		return optional.None[T]()
	}
	self.fill(ctx, int(n)+1)
	return self.window[n]
}

func (self *lookahead[T]) Close(ctx context.Context) error {
	return self.source.Close(ctx)
}

// FilterFunc adapts a plain function to idl.Filter. Signatures should take
// idl.Filter rather than this type.
type FilterFunc[T any] func(ctx context.Context, val T) bool

func (f FilterFunc[T]) Keep(ctx context.Context, val T) bool {
	return f(ctx, val)
}

// Collect drains an iterator into a slice and closes it.
func Collect[T any](ctx context.Context, it idl.Iterator[T]) ([]T, error) {
	var out []T
	for v := it.Next(ctx); v.IsPresent(); v = it.Next(ctx) {
		out = append(out, v.Value())
	}
	return out, it.Close(ctx)
}
