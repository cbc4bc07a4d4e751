package models

// WorkQueue is a FIFO of profile jobs, built once per discovery and drained once.
type WorkQueue struct {
	jobs []ProfileJob
	next int
}

// NewWorkQueue takes ownership of jobs in their listing order.
func NewWorkQueue(jobs []ProfileJob) *WorkQueue {
	return &WorkQueue{jobs: jobs}
}

// Size is the number of jobs the queue was created with.
func (q *WorkQueue) Size() int {
	return len(q.jobs)
}

// Remaining is the number of jobs not yet dequeued.
func (q *WorkQueue) Remaining() int {
	return len(q.jobs) - q.next
}

// Dequeue pops the oldest job; ok is false once the queue is drained.
func (q *WorkQueue) Dequeue() (ProfileJob, bool) {
	if q.next >= len(q.jobs) {
		return ProfileJob{}, false
	}
	job := q.jobs[q.next]
	q.next++
	return job, true
}
