package sim

import "container/heap"

// wakeup is a pending timed resumption of a suspended process.
type wakeup struct {
	time float64
	seq  int64 // scheduling order; breaks ties at equal time
	proc *Process
}

// wakeupQueue is a min-heap ordered by (time, seq).
// Implements heap.Interface.
type wakeupQueue []*wakeup

func (q wakeupQueue) Len() int { return len(q) }

func (q wakeupQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}

func (q wakeupQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *wakeupQueue) Push(x any) {
	*q = append(*q, x.(*wakeup))
}

func (q *wakeupQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// schedule pushes a wake-up for p at time t.
func (q *wakeupQueue) schedule(t float64, seq int64, p *Process) {
	heap.Push(q, &wakeup{time: t, seq: seq, proc: p})
}

// peek returns the earliest wake-up without removing it, or nil.
func (q wakeupQueue) peek() *wakeup {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

// popNext removes and returns the earliest wake-up, or nil.
func (q *wakeupQueue) popNext() *wakeup {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*wakeup)
}
