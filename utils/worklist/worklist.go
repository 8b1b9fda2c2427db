// Package worklist provides the FIFO queue driving the interpreter's
// instruction and event processing.
package worklist

// Queue is a FIFO queue. The zero value is an empty queue.
type Queue[T any] struct {
	items []T
	head  int
}

// Drain runs do on start and on every element do pushes, in FIFO order,
// until no work is left.
func Drain[T any](start T, do func(next T, push func(T))) {
	var q Queue[T]
	q.Push(start)
	for !q.Empty() {
		next, _ := q.Pop()
		do(next, q.Push)
	}
}

func (q *Queue[T]) Push(el T) {
	q.items = append(q.items, el)
}

// Peek returns the head of the queue without removing it.
func (q *Queue[T]) Peek() (ret T, ok bool) {
	if q.Empty() {
		return
	}
	return q.items[q.head], true
}

// Pop removes and returns the head of the queue.
func (q *Queue[T]) Pop() (ret T, ok bool) {
	if q.Empty() {
		return
	}
	ret = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	// Reuse the backing array once more than half of it is consumed.
	if q.head > len(q.items)/2 {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return ret, true
}

func (q *Queue[T]) Empty() bool { return q.head == len(q.items) }

func (q *Queue[T]) Len() int { return len(q.items) - q.head }
