package worklist

import "testing"

func TestQueue(t *testing.T) {
	var q Queue[int]
	if _, ok := q.Pop(); ok {
		t.Fatal("pop from an empty queue")
	}
	for i := 0; i < 10; i++ {
		q.Push(i)
	}
	for i := 0; i < 10; i++ {
		if v, _ := q.Peek(); v != i {
			t.Fatalf("peek: expected %d, got %d", i, v)
		}
		if v, ok := q.Pop(); !ok || v != i {
			t.Fatalf("pop: expected %d, got %d", i, v)
		}
		if q.Len() != 9-i {
			t.Fatalf("expected %d pending, got %d", 9-i, q.Len())
		}
	}
	if !q.Empty() {
		t.Error("queue is not empty")
	}
}

func TestDrain(t *testing.T) {
	var order []int
	Drain(1, func(n int, push func(int)) {
		order = append(order, n)
		if n < 4 {
			push(2 * n)
			push(2*n + 1)
		}
	})
	for i, n := range order {
		if n != i+1 {
			t.Fatalf("unexpected order %v", order)
		}
	}
	if len(order) != 7 {
		t.Errorf("visited %d elements", len(order))
	}
}
