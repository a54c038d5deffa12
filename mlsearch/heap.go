package mlsearch

// labelHeap is a min-heap of arena indices. Entries are never removed out of
// order; stale ones are skipped when popped.
type labelHeap struct {
	items []int
	less  func(a, b int) bool
}

func (h *labelHeap) Len() int { return len(h.items) }

func (h *labelHeap) Push(id int) {
	h.items = append(h.items, id)
	h.siftUp(len(h.items) - 1)
}

func (h *labelHeap) Pop() int {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *labelHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(h.items[i], h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *labelHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.less(h.items[left], h.items[smallest]) {
			smallest = left
		}
		if right < n && h.less(h.items[right], h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
