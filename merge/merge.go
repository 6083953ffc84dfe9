// Package merge implements the k-way ordered merge over tagged iterators
// used to interleave several events' occurrence streams (or several geo
// candidates' occurrence streams) into one ascending sequence. Grounded
// on spec.md §4.5; container/heap is the idiomatic stdlib fit for a
// k-way merge and nothing in the example pack reaches for a third-party
// priority-queue library for one (see DESIGN.md).
package merge

import "container/heap"

// Item is one yielded value, read from an inner iterator.
type Item interface{}

// Less orders two Items. Implementations define the merge's total
// order (ascending dtstart, (dtstart, geodist), or (geodist, dtstart)).
type Less func(a, b Item) bool

// Source is one of the merge's inputs: anything that can yield a
// sequence of Items in the merge's ascending order on its own.
type Source interface {
	Next() (Item, bool)
}

type wrapper struct {
	tag  string
	item Item
	src  Source
}

type byItemThenTag struct {
	less  Less
	items []*wrapper
}

func (h *byItemThenTag) Len() int { return len(h.items) }

func (h *byItemThenTag) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if h.less(a.item, b.item) {
		return true
	}
	if h.less(b.item, a.item) {
		return false
	}
	return a.tag < b.tag
}

func (h *byItemThenTag) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *byItemThenTag) Push(x interface{}) { h.items = append(h.items, x.(*wrapper)) }

func (h *byItemThenTag) Pop() interface{} {
	n := len(h.items)
	w := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	return w
}

// MergedIterator interleaves any number of tagged Sources into one
// ascending-order sequence, disambiguating equal items by tag so a
// single merge can hold several sources that may legitimately produce
// the same ordering key (e.g. two events both starting at the same
// instant).
type MergedIterator struct {
	heap *byItemThenTag
}

// New returns an empty merged iterator ordered by less.
func New(less Less) *MergedIterator {
	h := &byItemThenTag{less: less}
	heap.Init(h)
	return &MergedIterator{heap: h}
}

// AddSource registers src under tag, pulling its first item immediately.
// A source with no first value (already exhausted) is not inserted and
// contributes nothing to the merge.
func (m *MergedIterator) AddSource(tag string, src Source) {
	item, ok := src.Next()
	if !ok {
		return
	}
	heap.Push(m.heap, &wrapper{tag: tag, item: item, src: src})
}

// Next pops the minimum (item, tag) pair, advances that source, and
// re-inserts it if it produced another value. Returns (nil, "", false)
// once every source is exhausted.
func (m *MergedIterator) Next() (Item, string, bool) {
	if m.heap.Len() == 0 {
		return nil, "", false
	}
	w := heap.Pop(m.heap).(*wrapper)
	item, tag := w.item, w.tag

	if next, ok := w.src.Next(); ok {
		w.item = next
		heap.Push(m.heap, w)
	}
	return item, tag, true
}

// Len reports how many sources are still live in the merge.
func (m *MergedIterator) Len() int { return m.heap.Len() }
