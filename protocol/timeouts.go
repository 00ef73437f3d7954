package protocol

import "container/heap"

type timeoutEntry struct {
	deadline int64
	opID     OperationID
}

// timeoutHeap is a min-heap of (deadline, operation id) ordered by deadline,
// giving service() an O(log n) way to find and evict everything whose
// deadline has elapsed without scanning the whole operation table.
type timeoutHeap []timeoutEntry

func (h timeoutHeap) Len() int            { return len(h) }
func (h timeoutHeap) Less(i, j int) bool  { return h[i].deadline < h[j].deadline }
func (h timeoutHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timeoutHeap) Push(x interface{}) { *h = append(*h, x.(timeoutEntry)) }
func (h *timeoutHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// operationTimeouts wraps timeoutHeap with the remove-by-id support a plain
// container/heap doesn't give you: an operation can complete before its
// deadline, leaving a stale entry that must be skipped rather than acted on.
type operationTimeouts struct {
	h       timeoutHeap
	removed map[OperationID]bool
}

func newOperationTimeouts() *operationTimeouts {
	return &operationTimeouts{removed: make(map[OperationID]bool)}
}

func (t *operationTimeouts) add(opID OperationID, deadline int64) {
	heap.Push(&t.h, timeoutEntry{deadline: deadline, opID: opID})
}

func (t *operationTimeouts) cancel(opID OperationID) {
	t.removed[opID] = true
}

// peekDeadline returns the earliest live deadline, if any.
func (t *operationTimeouts) peekDeadline() (int64, bool) {
	for len(t.h) > 0 {
		top := t.h[0]
		if t.removed[top.opID] {
			heap.Pop(&t.h)
			delete(t.removed, top.opID)
			continue
		}
		return top.deadline, true
	}
	return 0, false
}

// popExpired removes and returns every operation id whose deadline is <= now.
func (t *operationTimeouts) popExpired(now int64) []OperationID {
	var expired []OperationID
	for len(t.h) > 0 && t.h[0].deadline <= now {
		entry := heap.Pop(&t.h).(timeoutEntry)
		if t.removed[entry.opID] {
			delete(t.removed, entry.opID)
			continue
		}
		expired = append(expired, entry.opID)
	}
	return expired
}

func (t *operationTimeouts) empty() bool {
	_, ok := t.peekDeadline()
	return !ok
}

// foldTimeMin returns the minimum of the present values in vs, treating an
// absent (ok=false) value as identity (ignored) rather than as zero.
func foldTimeMin(vs ...timepoint) (int64, bool) {
	var min int64
	found := false
	for _, v := range vs {
		if !v.ok {
			continue
		}
		if !found || v.value < min {
			min = v.value
			found = true
		}
	}
	return min, found
}

// timepoint is an optional absolute elapsed-millis instant.
type timepoint struct {
	value int64
	ok    bool
}

func tp(value int64, ok bool) timepoint { return timepoint{value: value, ok: ok} }
func tpSet(value int64) timepoint       { return timepoint{value: value, ok: true} }

var tpUnset = timepoint{}
