package queue

import "sync"

// Queue is an ordered list of pending records. It is created by the command
// that owns a run and passed to every producer; there is no package-level
// queue. A Queue is safe for concurrent use, but a run is expected to build,
// confirm and flush from a single goroutine.
type Queue struct {
	mu      sync.Mutex
	records []Record
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Push appends r. Duplicates are allowed; they are resolved when flushing.
func (q *Queue) Push(r Record) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, r)
}

// Remove deletes the first record with the given name and category. It is a
// no-op when there is none.
func (q *Queue) Remove(name string, c Category) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.records {
		if r.Name() == name && r.Category() == c {
			q.records = append(q.records[:i], q.records[i+1:]...)
			return
		}
	}
}

// Find returns the first record named name, whatever its category.
func (q *Queue) Find(name string) (Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, r := range q.records {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// FindFile returns the first record named name if it is a FileWrite. A first
// match of another category is reported as not found.
func (q *Queue) FindFile(name string) (FileWrite, bool) {
	r, ok := q.Find(name)
	if !ok {
		return FileWrite{}, false
	}
	fw, ok := r.(FileWrite)
	return fw, ok
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = nil
}

// Len reports the number of queued records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Records returns a snapshot of the queue in insertion order.
func (q *Queue) Records() []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Record, len(q.records))
	copy(out, q.records)
	return out
}

// OfCategory returns the records of category c in insertion order.
func (q *Queue) OfCategory(c Category) []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Record
	for _, r := range q.records {
		if r.Category() == c {
			out = append(out, r)
		}
	}
	return out
}

// retain drops every record except those in keep. Records are matched by
// value, one queue entry per element of keep.
func (q *Queue) retain(keep []Record) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]Record, len(keep))
	copy(pending, keep)

	var out []Record
	for _, r := range q.records {
		for i, k := range pending {
			if r == k {
				out = append(out, r)
				pending = append(pending[:i], pending[i+1:]...)
				break
			}
		}
	}
	q.records = out
}
