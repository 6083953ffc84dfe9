package instance

import "github.com/calquery/calquery/merge"

// AsSource adapts it to merge.Source, so an event's occurrence stream
// can be registered directly with a merge.MergedIterator.
func (it *Iterator) AsSource() merge.Source {
	return (*iteratorSource)(it)
}

type iteratorSource Iterator

func (s *iteratorSource) Next() (merge.Item, bool) {
	inst, ok := (*Iterator)(s).Next()
	if !ok {
		return nil, false
	}
	return inst, true
}
