// Package list implements the doubly linked list primitive behind the
// transport package's header collection. It preserves the
// source's iterator semantics: Next returns nodes in insertion order and
// wraps back to the head once the list is exhausted, so "exhausted" is
// itself an observable, distinguishable state rather than a sticky nil.
package list

// Node is a single element of a List. Callers receive *Node from Add and
// Next and pass it back to Remove/RemoveWithContent.
type Node[T any] struct {
	data       T
	prev, next *Node[T]
}

// Data returns the value held by the node.
func (n *Node[T]) Data() T { return n.data }

// List is a doubly linked list with an internal iteration cursor.
type List[T any] struct {
	head, last, current *Node[T]
	count                int
}

// New returns an empty list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// Len returns the number of elements currently in the list.
func (l *List[T]) Len() int { return l.count }

// Add appends data as a new last node.
func (l *List[T]) Add(data T) *Node[T] {
	node := &Node[T]{data: data, prev: l.last}

	if l.count == 0 {
		l.head = node
		l.last = node
		l.current = node
	} else {
		l.last.next = node
		l.last = node
	}
	l.count++
	return node
}

// Next returns the node at the iteration cursor and advances the cursor.
// When the cursor runs past the last node it wraps to the head, and the
// returned bool is false exactly once per pass over an empty-or-exhausted
// list (ok is false when the returned node is nil).
func (l *List[T]) Next() (node *Node[T], ok bool) {
	node = l.current
	if l.current == nil {
		l.current = l.head
	} else {
		l.current = l.current.next
	}
	return node, node != nil
}

// Reset rewinds the iteration cursor to the head without disturbing the
// list's contents.
func (l *List[T]) Reset() {
	l.current = l.head
}

// Remove splices node out of the list and frees it. It does not touch
// node.Data(); callers that own heap state referenced by T should call
// RemoveWithContent instead.
func (l *List[T]) Remove(node *Node[T]) {
	if node == nil || l.count == 0 {
		return
	}

	switch {
	case node.prev == nil && node.next == nil:
		// Only node in the list; nothing to relink.
	case node.prev == nil:
		node.next.prev = nil
	case node.next == nil:
		node.prev.next = nil
	default:
		node.prev.next = node.next
		node.next.prev = node.prev
	}

	if l.head == node {
		l.head = node.next
	}
	if l.last == node {
		l.last = node.prev
	}
	if l.current == node {
		l.current = node.next
	}

	node.prev, node.next = nil, nil
	l.count--
}

// RemoveWithContent removes node and invokes destroy on its data, mirroring
// the source's remove_with_content (splice + free node + caller-destroy item).
func (l *List[T]) RemoveWithContent(node *Node[T], destroy func(T)) {
	if node == nil {
		return
	}
	data := node.data
	l.Remove(node)
	if destroy != nil {
		destroy(data)
	}
}

// Exist performs a linear scan from head using cmp, returning the first
// matching element's data without disturbing the iteration cursor.
func Exist[T any](l *List[T], target any, cmp func(data T, target any) bool) (T, bool) {
	for n := l.head; n != nil; n = n.next {
		if cmp(n.data, target) {
			return n.data, true
		}
	}
	var zero T
	return zero, false
}

// Destroy releases every node in the list. Equivalent to the source's
// mcl_list_destroy; garbage collection does the actual freeing, so this
// exists to reset the list to an empty, reusable state.
func (l *List[T]) Destroy() {
	l.DestroyWithContent(nil)
}

// DestroyWithContent releases every node, invoking destroy on each node's
// data first when destroy is non-nil.
func (l *List[T]) DestroyWithContent(destroy func(T)) {
	for n := l.head; n != nil; {
		next := n.next
		if destroy != nil {
			destroy(n.data)
		}
		n.prev, n.next = nil, nil
		n = next
	}
	l.head, l.last, l.current = nil, nil, nil
	l.count = 0
}

// ToSlice returns the list's elements in insertion order without disturbing
// the iteration cursor.
func (l *List[T]) ToSlice() []T {
	out := make([]T, 0, l.count)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.data)
	}
	return out
}
