// reassembler_c.go - family C video frame handling.

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

import "sync"

// ReassemblerC wraps family C's RTSP-delivered frames, which already
// arrive whole (the RTSP/decode backend does its own depacketization). Its
// only job is to stamp each one with a monotonically increasing frame id,
// so downstream consumers see the same VideoFrame shape regardless of
// family.
type ReassemblerC struct {
	mu     sync.Mutex
	nextID uint16
	health *LinkHealth
}

// NewReassemblerC returns a family C reassembler. health may be nil.
func NewReassemblerC(health *LinkHealth) *ReassemblerC {
	return &ReassemblerC{health: health}
}

// Ingest wraps a whole JPEG frame (already re-encoded from the RTSP
// backend's decoded output) with the next frame id.
func (r *ReassemblerC) Ingest(data []byte) (VideoFrame, bool) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.mu.Unlock()

	r.health.recordFrame()
	return VideoFrame{FrameID: id, Data: data, Format: FormatJPEG}, true
}

// Reset restarts the frame id sequence, eg. after the supervisor rebuilds
// the transport on link-dead detection.
func (r *ReassemblerC) Reset() {
	r.mu.Lock()
	r.nextID = 0
	r.mu.Unlock()
}
