package service

import (
	"context"
	"sync"

	"pdf-reader/internal/domain"
)

// ProgressWriter persists reading-state updates in the background. Enqueue never blocks on
// the store; updates for the same document are merged so the last write wins. A single
// worker drains the queue.
type ProgressWriter struct {
	store  domain.DocumentStore
	logger domain.Logger

	mu      sync.Mutex
	pending map[string]domain.DocumentUpdate
	seq     uint64 // bumped on every Enqueue
	written uint64 // every update with seq <= written has been attempted
	waiters []flushWaiter
	err     error // first write error not yet reported by Flush
	closed  bool

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type flushWaiter struct {
	seq uint64
	ch  chan error
}

// NewProgressWriter starts the background worker. Call Close to stop it.
func NewProgressWriter(store domain.DocumentStore, logger domain.Logger) *ProgressWriter {
	w := &ProgressWriter{
		store:   store,
		logger:  logger,
		pending: make(map[string]domain.DocumentUpdate),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue schedules update for documentID and returns immediately.
func (w *ProgressWriter) Enqueue(documentID string, update domain.DocumentUpdate) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.ErrSessionClosed
	}
	w.pending[documentID] = mergeUpdates(w.pending[documentID], update)
	w.seq++
	w.mu.Unlock()

	w.signal()
	return nil
}

// Flush blocks until every update enqueued before the call has been written. It returns
// the first write error since the previous Flush.
func (w *ProgressWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.written >= w.seq {
		err := w.err
		w.err = nil
		w.mu.Unlock()
		return err
	}
	ch := make(chan error, 1)
	w.waiters = append(w.waiters, flushWaiter{seq: w.seq, ch: ch})
	w.mu.Unlock()

	w.signal()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes outstanding updates and stops the worker. Later Enqueue calls fail.
func (w *ProgressWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	err := w.Flush(ctx)

	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.stopOnce.Do(func() { close(w.stop) })
	select {
	case <-w.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (w *ProgressWriter) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *ProgressWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

// drain writes batches until nothing is pending.
func (w *ProgressWriter) drain() {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.written = w.seq
			w.releaseWaiters()
			w.mu.Unlock()
			return
		}
		batch := w.pending
		batchSeq := w.seq
		w.pending = make(map[string]domain.DocumentUpdate)
		w.mu.Unlock()

		var firstErr error
		for id, update := range batch {
			// Writes are not tied to any caller's context; they must land after the caller returns.
			if err := w.store.UpdateDocument(context.Background(), id, update); err != nil {
				w.logger.Error("Failed to persist reading progress", err, "document_id", id)
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		w.mu.Lock()
		if w.err == nil {
			w.err = firstErr
		}
		w.written = batchSeq
		w.releaseWaiters()
		w.mu.Unlock()
	}
}

// releaseWaiters answers every waiter covered by w.written and hands them the pending
// error. Caller holds w.mu.
func (w *ProgressWriter) releaseWaiters() {
	released := false
	kept := w.waiters[:0]
	for _, wt := range w.waiters {
		if wt.seq <= w.written {
			wt.ch <- w.err
			released = true
			continue
		}
		kept = append(kept, wt)
	}
	w.waiters = kept
	if released {
		w.err = nil
	}
}

// mergeUpdates overlays the set fields of next onto prev.
func mergeUpdates(prev, next domain.DocumentUpdate) domain.DocumentUpdate {
	out := prev
	if next.FileName != nil {
		out.FileName = next.FileName
	}
	if next.LastRead != nil {
		out.LastRead = next.LastRead
	}
	if next.CurrentPage != nil {
		out.CurrentPage = next.CurrentPage
	}
	if next.ReadingProgress != nil {
		out.ReadingProgress = next.ReadingProgress
	}
	if next.TotalReadingTime != nil {
		out.TotalReadingTime = next.TotalReadingTime
	}
	if next.Collections != nil {
		out.Collections = next.Collections
	}
	if next.Tags != nil {
		out.Tags = next.Tags
	}
	if next.IsFavorite != nil {
		out.IsFavorite = next.IsFavorite
	}
	if next.IsArchived != nil {
		out.IsArchived = next.IsArchived
	}
	return out
}
