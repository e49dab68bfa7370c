package async

import "container/heap"

// timerEntry is one scheduled timer. Timers are ordered by deadline, tied
// by registration order (lower id first), matching spec.md §4.F's
// deterministic tie-break rule and the teacher's timerHeap shape
// (eventloop/loop.go).
type timerEntry struct {
	id       uint64
	deadline int64 // virtual milliseconds since scheduler epoch
	interval int64 // 0 for one-shot timers, >0 for setInterval
	fn       func()
	canceled bool
}

// timerHeap is a min-heap of timerEntry by (deadline, id), the same
// container/heap.Interface shape as the teacher's timerHeap.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].id < h[j].id
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*timerEntry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ = heap.Interface(&timerHeap{})
