package bus

import "container/heap"

// priorityBuffer delivers entries ordered by (priority, arrival) ascending:
// lower priority values first, FIFO within a tier. The tie-break is part of
// the ordering key, not an accident of heap layout.
type priorityBuffer struct {
	h entryHeap
}

func (b *priorityBuffer) add(e entry) {
	heap.Push(&b.h, e)
}

func (b *priorityBuffer) next() (entry, bool) {
	if b.h.Len() == 0 {
		return entry{}, false
	}
	return heap.Pop(&b.h).(entry), true
}

func (b *priorityBuffer) size() int {
	return b.h.Len()
}

// entryHeap implements heap.Interface over (priority, arrival).
type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].arrival < h[j].arrival
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = entry{}
	*h = old[:n-1]
	return e
}
