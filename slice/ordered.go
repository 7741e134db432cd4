package slice

// Keyed is implemented by entities that carry their own identifier.
type Keyed interface {
	Key() string
}

// Ordered is a sequence of entities indexed by id. Each id appears at most
// once; the order of ids is the display order.
type Ordered[T Keyed] struct {
	ids   []string
	items map[string]T
}

// NewOrdered builds a collection from items in the given order. A repeated id
// keeps the position of its first occurrence and the value of its last one.
func NewOrdered[T Keyed](items []T) *Ordered[T] {
	o := &Ordered[T]{
		ids:   make([]string, 0, len(items)),
		items: make(map[string]T, len(items)),
	}
	for _, item := range items {
		o.Append(item)
	}
	return o
}

// Len returns the number of entities.
func (o *Ordered[T]) Len() int {
	if o == nil {
		return 0
	}
	return len(o.ids)
}

// Get returns the entity stored under id.
func (o *Ordered[T]) Get(id string) (T, bool) {
	if o == nil {
		var zero T
		return zero, false
	}
	item, ok := o.items[id]
	return item, ok
}

// Append adds item at the end. An item whose id is already present replaces
// the stored value in place instead.
func (o *Ordered[T]) Append(item T) {
	id := item.Key()
	if _, ok := o.items[id]; !ok {
		o.ids = append(o.ids, id)
	}
	o.items[id] = item
}

// Replace swaps the stored value for item's id, keeping its position. It
// reports false and leaves the collection untouched when the id is unknown.
func (o *Ordered[T]) Replace(item T) bool {
	id := item.Key()
	if _, ok := o.items[id]; !ok {
		return false
	}
	o.items[id] = item
	return true
}

// Remove drops id, preserving the relative order of the remaining entities.
func (o *Ordered[T]) Remove(id string) bool {
	if _, ok := o.items[id]; !ok {
		return false
	}
	delete(o.items, id)
	kept := o.ids[:0]
	for _, k := range o.ids {
		if k != id {
			kept = append(kept, k)
		}
	}
	o.ids = kept
	return true
}

// Values returns a copy of the entities in display order.
func (o *Ordered[T]) Values() []T {
	if o == nil {
		return nil
	}
	out := make([]T, 0, len(o.ids))
	for _, id := range o.ids {
		out = append(out, o.items[id])
	}
	return out
}
