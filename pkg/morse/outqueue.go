// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// DefaultOutputQueueSize holds several seconds of output at the fastest
// keying speed
const DefaultOutputQueueSize = 4096

// OutputQueue decouples the loopback receiver from a slow output. Write
// runs on the Timer goroutine and never blocks: bytes go into a bounded
// queue and are dropped, and counted, when it is full. Run or Flush
// writes them to the output.
type OutputQueue struct {
	out     io.Writer
	queue   chan byte
	dropped atomic.Uint64
	written atomic.Uint64

	mu        sync.Mutex
	lastError error
}

// NewOutputQueue creates a queue of size bytes in front of out
func NewOutputQueue(out io.Writer, size int) *OutputQueue {
	if size <= 0 {
		size = DefaultOutputQueueSize
	}
	return &OutputQueue{
		out:   out,
		queue: make(chan byte, size),
	}
}

// Write queues p. It always accepts the whole of p; bytes that do not fit
// are dropped.
func (q *OutputQueue) Write(p []byte) (int, error) {
	for _, b := range p {
		select {
		case q.queue <- b:
		default:
			q.dropped.Add(1)
		}
	}
	return len(p), nil
}

// Run writes queued bytes to the output until ctx is done, then flushes
// what is left. Output errors are recorded and do not stop it.
func (q *OutputQueue) Run(ctx context.Context) {
	buf := make([]byte, 0, 64)
	for {
		select {
		case <-ctx.Done():
			q.Flush()
			return
		case b := <-q.queue:
			q.write(q.take(append(buf[:0], b)))
		}
	}
}

// Flush writes every queued byte on the calling goroutine. It must not
// run concurrently with Run.
func (q *OutputQueue) Flush() error {
	buf := q.take(nil)
	if len(buf) == 0 {
		return nil
	}
	return q.write(buf)
}

// take appends the bytes queued right now to buf
func (q *OutputQueue) take(buf []byte) []byte {
	for {
		select {
		case b := <-q.queue:
			buf = append(buf, b)
		default:
			return buf
		}
	}
}

func (q *OutputQueue) write(buf []byte) error {
	n, err := q.out.Write(buf)
	q.written.Add(uint64(n))
	if err != nil {
		err = fmt.Errorf("write output: %w", err)
		q.mu.Lock()
		q.lastError = err
		q.mu.Unlock()
	}
	return err
}

// Dropped returns the number of bytes lost to a full queue
func (q *OutputQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Written returns the number of bytes accepted by the output
func (q *OutputQueue) Written() uint64 {
	return q.written.Load()
}

// Err returns the last output error, if any
func (q *OutputQueue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastError
}
