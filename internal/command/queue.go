package command

import "sync"

// DefaultCapacity is used when a non-positive capacity is configured.
const DefaultCapacity = 1000

// Result reports what Enqueue did.
type Result int

const (
	ResultOK Result = iota
	// ResultDropped means the queue was full and its oldest command was
	// evicted to admit this one.
	ResultDropped
)

func (r Result) String() string {
	if r == ResultDropped {
		return "dropped"
	}
	return "ok"
}

// Queue is a fixed-size ring of pending commands. It is safe for concurrent
// producers and a single consumer. When full, the oldest command is evicted so
// the newest input always gets through.
type Queue struct {
	mu    sync.Mutex
	data  []Command
	head  int
	count int
	drops uint64
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{data: make([]Command, capacity)}
}

// Capacity reports the maximum number of commands the queue can hold.
func (q *Queue) Capacity() int {
	return len(q.data)
}

// Enqueue stages a command. It never blocks and never rejects.
func (q *Queue) Enqueue(cmd Command) Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	res := ResultOK
	if q.count == len(q.data) {
		q.data[q.head] = Command{}
		q.head = (q.head + 1) % len(q.data)
		q.count--
		q.drops++
		res = ResultDropped
	}
	q.data[(q.head+q.count)%len(q.data)] = cmd
	q.count++
	return res
}

// Drain returns all staged commands in FIFO order and clears the queue.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	out := make([]Command, q.count)
	for i := 0; i < q.count; i++ {
		idx := (q.head + i) % len(q.data)
		out[i] = q.data[idx]
		q.data[idx] = Command{}
	}
	q.head = 0
	q.count = 0
	return out
}

// Len reports the number of staged commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Drops is the total number of commands evicted by overflow.
func (q *Queue) Drops() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.drops
}
