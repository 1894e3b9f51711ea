// Package arena implements bump/region allocation with a coarse free-list by
// object class, mirroring the ownership model of preprocessor.h's
// `preprocessor` struct: one arena per session, plus per-kind free-lists
// that recycle object slots without returning memory to the allocator.
package arena

// Arena is a bump allocator over growable slices of typed objects. Go's
// runtime already owns real memory management; the arena's job here is to
// model the source's "one owner, freed all at once" discipline so that
// object lifetimes match a single preprocessing session, and to give
// FreeList somewhere to recycle slots from.
type Arena struct {
	allocCount int
}

// New creates an empty arena for one preprocessing session.
func New() *Arena {
	return &Arena{}
}

// AllocCount reports how many objects have been handed out (net of
// recycling), useful for tests asserting that a session's retained working
// set stays bounded.
func (a *Arena) AllocCount() int {
	return a.allocCount
}

func (a *Arena) track() {
	a.allocCount++
}

// FreeList recycles values of a single object class the way the source's
// macro_arg_freelist / cond_incl_freelist / macro_expansion_arg_freelist
// fields do: Get returns a previously Put value when one is available,
// otherwise allocates a fresh zero value via the arena.
type FreeList[T any] struct {
	a     *Arena
	slots []*T
}

// NewFreeList creates a free-list of T backed by the given arena.
func NewFreeList[T any](a *Arena) *FreeList[T] {
	return &FreeList[T]{a: a}
}

// Get returns a recycled *T if one is available, or a fresh zero-valued one.
func (fl *FreeList[T]) Get() *T {
	if n := len(fl.slots); n > 0 {
		v := fl.slots[n-1]
		fl.slots = fl.slots[:n-1]
		var zero T
		*v = zero
		return v
	}
	fl.a.track()
	return new(T)
}

// Put returns a *T to the free-list for reuse by a future Get. Callers must
// not retain v after Put.
func (fl *FreeList[T]) Put(v *T) {
	fl.slots = append(fl.slots, v)
}

// Len reports how many slots are currently recycled and idle.
func (fl *FreeList[T]) Len() int {
	return len(fl.slots)
}
