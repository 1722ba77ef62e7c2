// Implements the ReadyQueue and IOQueue, which hold process ids waiting for
// a CPU or for IO service. Both preserve arrival order.

package sim

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
)

// idQueue is a FIFO of process ids.
type idQueue struct {
	queue []int64
}

// Enqueue adds a process id to the back of the queue.
func (q *idQueue) Enqueue(id int64) {
	q.queue = append(q.queue, id)
}

// Len returns the number of processes in the queue.
func (q *idQueue) Len() int {
	return len(q.queue)
}

// Peek returns the id at the front of the queue without removing it.
// Returns NoProcess if the queue is empty.
func (q *idQueue) Peek() int64 {
	if len(q.queue) == 0 {
		return NoProcess
	}
	return q.queue[0]
}

// Items returns a copy of the queue contents in order.
func (q *idQueue) Items() []int64 {
	return slices.Clone(q.queue)
}

// Contains reports whether id is queued.
func (q *idQueue) Contains(id int64) bool {
	return slices.Contains(q.queue, id)
}

// Remove deletes id from the queue, preserving the order of the rest.
// Returns false if id was not queued.
func (q *idQueue) Remove(id int64) bool {
	i := slices.Index(q.queue, id)
	if i < 0 {
		return false
	}
	q.queue = slices.Delete(q.queue, i, i+1)
	return true
}

// Dequeue removes and returns the id at the front of the queue.
// Returns NoProcess if the queue is empty.
func (q *idQueue) Dequeue() int64 {
	if len(q.queue) == 0 {
		return NoProcess
	}
	id := q.queue[0]
	q.queue = q.queue[1:]
	return id
}

// Clear empties the queue.
func (q *idQueue) Clear() {
	q.queue = nil
}

func (q *idQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, id := range q.queue {
		sb.WriteString(fmt.Sprint(id))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// ReadyQueue holds Ready processes waiting to be assigned to a CPU.
// Assignment is driven by the input adapter; the queue applies no policy.
type ReadyQueue struct {
	idQueue
}

// IOQueue holds IOWait processes detached from their CPU. It is a single
// server: only the head's IO timer is serviced each tick, and processes
// behind the head do not age.
type IOQueue struct {
	idQueue

	dispatchDelay Range
	dispatchTimer int // ticks before the head's IO service starts
}

// NewIOQueue creates an IOQueue whose head waits a delay drawn from
// dispatchDelay before its IO timer starts counting.
func NewIOQueue(dispatchDelay Range) *IOQueue {
	return &IOQueue{dispatchDelay: dispatchDelay}
}

// enqueue appends id and arms the dispatch delay if id became the head.
func (q *IOQueue) enqueue(id int64, rng *rand.Rand) {
	q.Enqueue(id)
	if q.Len() == 1 {
		q.dispatchTimer = q.dispatchDelay.Draw(rng)
	}
}

// DispatchTimer returns the ticks left before the head's IO service starts.
func (q *IOQueue) DispatchTimer() int {
	return q.dispatchTimer
}

// serviceHead runs one tick of IO service on the head process. When the
// head's IO completes it is dequeued and returned; otherwise nil.
func (q *IOQueue) serviceHead(procs map[int64]*Process, rng *rand.Rand) *Process {
	if q.Len() == 0 {
		return nil
	}
	if q.dispatchTimer > 0 {
		q.dispatchTimer--
		return nil
	}
	p := procs[q.Peek()]
	if p == nil || !p.tickIO() {
		return nil
	}
	q.Dequeue()
	if q.Len() > 0 {
		q.dispatchTimer = q.dispatchDelay.Draw(rng)
	}
	return p
}
