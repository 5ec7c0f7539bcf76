package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
)

// Saver accepts a ledger snapshot for persistence without waiting.
type Saver interface {
	Save(records []core.Transaction)
}

// AsyncSaver writes snapshots through a Gateway on one background
// goroutine. Saves are applied in order; when several snapshots queue up
// while a write is in flight only the latest is written. Failures are
// logged and dropped.
type AsyncSaver struct {
	gw      Gateway
	logger  *log.Logger
	timeout time.Duration

	mu       sync.Mutex
	pending  []core.Transaction
	queued   uint64 // sequence of the latest snapshot handed to Save
	written  uint64 // sequence of the latest snapshot that finished
	progress chan struct{}

	wake     chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	failures atomic.Int64
}

func NewAsyncSaver(gw Gateway, logger *log.Logger, timeout time.Duration) *AsyncSaver {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	s := &AsyncSaver{
		gw:       gw,
		logger:   logger.WithComponent(log.ComponentGateway),
		timeout:  timeout,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.loop()
	return s
}

// Save queues a copy of records and returns immediately.
func (s *AsyncSaver) Save(records []core.Transaction) {
	snapshot := make([]core.Transaction, len(records))
	copy(snapshot, records)

	s.mu.Lock()
	s.pending = snapshot
	s.queued++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every snapshot queued before the call was written or
// dropped, or ctx ends.
func (s *AsyncSaver) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.queued
	s.mu.Unlock()
	for {
		s.mu.Lock()
		if s.written >= target {
			s.mu.Unlock()
			return nil
		}
		ch := s.progress
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close flushes pending work and stops the background goroutine.
func (s *AsyncSaver) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.stopOnce.Do(func() { close(s.done) })
	select {
	case <-s.stopped:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Failures reports how many writes failed since start.
func (s *AsyncSaver) Failures() int64 {
	return s.failures.Load()
}

func (s *AsyncSaver) loop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.done:
			s.drain()
			return
		}
	}
}

func (s *AsyncSaver) drain() {
	for {
		s.mu.Lock()
		if s.written >= s.queued {
			s.mu.Unlock()
			return
		}
		records, seq := s.pending, s.queued
		s.pending = nil
		s.mu.Unlock()

		s.write(records)

		s.mu.Lock()
		s.written = seq
		close(s.progress)
		s.progress = make(chan struct{})
		s.mu.Unlock()
	}
}

func (s *AsyncSaver) write(records []core.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.gw.Save(ctx, records); err != nil {
		s.failures.Add(1)
		s.logger.Error("Ledger save failed",
			log.FieldOperation, log.OpSave,
			log.FieldRecordCount, len(records),
			log.FieldError, err)
		return
	}
	s.logger.Debug("Ledger saved",
		log.FieldOperation, log.OpSave,
		log.FieldRecordCount, len(records),
		log.FieldDuration, time.Since(start).Milliseconds())
}
