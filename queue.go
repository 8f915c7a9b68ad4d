// queue.go - bounded drop-oldest video frame queue.

// Copyright (C) 2024 turbodrone contributors

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package turbodrone

import (
	"sync"
	"time"
)

// defaultQueueCapacity is the default depth of a FrameQueue (§4.8).
const defaultQueueCapacity = 2

// FrameQueue is a bounded FIFO of video frames. Put never blocks: when
// full, it evicts the oldest queued frame to make room for the new one,
// since a consumer falling behind should see the freshest video rather
// than stall the producer. Get blocks (optionally with a timeout) until a
// frame is available.
type FrameQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	buf      []VideoFrame
	cap      int
	closed   bool

	health *LinkHealth
}

// NewFrameQueue returns an empty queue with the given capacity. capacity
// <= 0 uses defaultQueueCapacity. health may be nil; if set, each Put that
// evicts an older frame increments its FramesDropped counter.
func NewFrameQueue(capacity int, health *LinkHealth) *FrameQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	q := &FrameQueue{buf: make([]VideoFrame, 0, capacity), cap: capacity, health: health}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Put enqueues frame, evicting the oldest queued frame first if the queue
// is already at capacity.
func (q *FrameQueue) Put(frame VideoFrame) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if len(q.buf) >= q.cap {
		q.buf = q.buf[1:]
		q.health.recordDrop()
	}
	q.buf = append(q.buf, frame)
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// Get blocks until a frame is available or timeout elapses, returning
// ok=false on timeout or after Close. timeout <= 0 blocks indefinitely.
func (q *FrameQueue) Get(timeout time.Duration) (frame VideoFrame, ok bool) {
	if timeout <= 0 {
		q.mu.Lock()
		defer q.mu.Unlock()
		for len(q.buf) == 0 && !q.closed {
			q.notEmpty.Wait()
		}
		return q.popLocked()
	}

	done := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		q.mu.Lock()
		close(done)
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer timer.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 && !q.closed {
		select {
		case <-done:
			return VideoFrame{}, false
		default:
		}
		q.notEmpty.Wait()
	}
	return q.popLocked()
}

// popLocked removes and returns the oldest frame. The caller holds q.mu.
func (q *FrameQueue) popLocked() (VideoFrame, bool) {
	if len(q.buf) == 0 {
		return VideoFrame{}, false
	}
	f := q.buf[0]
	q.buf = q.buf[1:]
	return f, true
}

// Close wakes any blocked Get calls and marks the queue unusable for
// further Puts.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}
