package reconcile

import (
	"context"
	"sync"
)

// defaultQueueDepth bounds the number of recompute passes that may be
// pending per record. Edits beyond the bound block the caller, which is
// the backpressure the single-threaded UI model expects.
const defaultQueueDepth = 64

type task struct {
	run  func(ctx context.Context) error
	ctx  context.Context
	done chan error
}

// recordWorker serializes recompute passes for a single record. Only one
// pass touches the record's field set at a time, so calculators never see
// interleaved partial updates.
type recordWorker struct {
	tasks chan task

	// mu guards retirement. A retired worker admits no new senders, and
	// its channel closes only after every admitted sender has finished,
	// so Close never races a send.
	mu      sync.Mutex
	retired bool
	senders sync.WaitGroup
}

// enter admits the caller as a sender. It fails once the worker retires,
// and the caller must look the record up again for a fresh worker.
func (w *recordWorker) enter() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.retired {
		return false
	}
	w.senders.Add(1)
	return true
}

// retire stops the worker: admission closes, pending sends drain, then
// the task channel closes and the loop exits.
func (w *recordWorker) retire() {
	w.mu.Lock()
	if w.retired {
		w.mu.Unlock()
		return
	}
	w.retired = true
	w.mu.Unlock()

	w.senders.Wait()
	close(w.tasks)
}

// RecordQueue owns one worker per record. Records never share a worker
// and never contend with each other.
type RecordQueue struct {
	mu      sync.Mutex
	workers map[string]*recordWorker
	depth   int
}

// NewRecordQueue creates a queue with the default per-record depth
func NewRecordQueue() *RecordQueue {
	return NewRecordQueueWithDepth(defaultQueueDepth)
}

// NewRecordQueueWithDepth creates a queue with a custom per-record depth
func NewRecordQueueWithDepth(depth int) *RecordQueue {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &RecordQueue{
		workers: make(map[string]*recordWorker),
		depth:   depth,
	}
}

func (q *RecordQueue) worker(recordID string) *recordWorker {
	q.mu.Lock()
	defer q.mu.Unlock()

	w, ok := q.workers[recordID]
	if !ok {
		w = &recordWorker{tasks: make(chan task, q.depth)}
		q.workers[recordID] = w
		go w.loop()
	}
	return w
}

func (w *recordWorker) loop() {
	for t := range w.tasks {
		select {
		case <-t.ctx.Done():
			t.done <- t.ctx.Err()
		default:
			t.done <- t.run(t.ctx)
		}
	}
}

// Do runs fn on the record's worker and waits for it to finish. Tasks for
// the same record execute strictly in submission order.
func (q *RecordQueue) Do(ctx context.Context, recordID string, fn func(ctx context.Context) error) error {
	var w *recordWorker
	for {
		w = q.worker(recordID)
		if w.enter() {
			break
		}
		// Lost a race with Close; the retired worker is already out of
		// the map, so the next lookup builds a fresh one.
	}

	t := task{run: fn, ctx: ctx, done: make(chan error, 1)}
	select {
	case w.tasks <- t:
		w.senders.Done()
	case <-ctx.Done():
		w.senders.Done()
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the record's worker, e.g. once the record is submitted.
func (q *RecordQueue) Close(recordID string) {
	q.mu.Lock()
	w, ok := q.workers[recordID]
	if ok {
		delete(q.workers, recordID)
	}
	q.mu.Unlock()

	if ok {
		w.retire()
	}
}
