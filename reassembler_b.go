// reassembler_b.go - family B video frame reassembly.

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

// notLastMarker is the sentinel byte family B stamps on every fragment but
// the final one of a frame; anything else means "this is the last
// fragment" and fixes the fragment count for the frame in progress.
const notLastMarker = 0x38

// ReassemblerB reassembles family B's fragmented, headerless JPEG frames.
// The aircraft never sends SOI/DQT/SOF0/SOS (§6.3); this type stitches the
// raw entropy-coded fragments back together, in fragment-index order, and
// prepends a JPEG header synthesized once at construction from the
// configured frame dimensions.
type ReassemblerB struct {
	mu sync.Mutex

	haveCurrent    bool
	currentID      uint16
	fragments      map[uint16][]byte
	expectedCount  int
	sawLast        bool

	header []byte

	health *LinkHealth
}

// NewReassemblerB returns an empty family B reassembler for frames of the
// given pixel dimensions and component count (1 grayscale, 3 YCbCr). health
// may be nil.
func NewReassemblerB(width, height, numComponents int, health *LinkHealth) *ReassemblerB {
	return &ReassemblerB{
		fragments: make(map[uint16][]byte),
		header:    buildJPEGHeader(width, height, numComponents),
		health:    health,
	}
}

// Ingest feeds one family B video datagram's parsed frame id, fragment
// index and "is this the last fragment" flag, plus its payload, into the
// reassembler. It returns a completed frame once every fragment up to
// (and including) the one marked last has arrived.
func (r *ReassemblerB) Ingest(frameID, fragIndex uint16, isLast bool, payload []byte) (VideoFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.haveCurrent {
		r.haveCurrent = true
		r.currentID = frameID
	}

	if frameID != r.currentID {
		// A new frame id arrived before the previous one completed: the
		// in-progress frame is incomplete and is dropped, not finalized
		// with a gap (family B exposes no contiguity check of its own,
		// only an expected count).
		if len(r.fragments) > 0 {
			r.health.recordDrop()
		}
		r.resetLocked(frameID)
	}

	if _, dup := r.fragments[fragIndex]; !dup {
		buf := make([]byte, len(payload))
		copy(buf, payload)
		r.fragments[fragIndex] = buf
	}

	if isLast {
		r.sawLast = true
		r.expectedCount = int(fragIndex) + 1
	}

	if !r.sawLast || len(r.fragments) != r.expectedCount {
		return VideoFrame{}, false
	}

	frame, ok := r.finalizeLocked()
	r.resetLocked(r.currentID + 1)
	return frame, ok
}

// finalizeLocked concatenates the current frame's fragments in index
// order and wraps them with the synthesized header and EOI marker. The
// caller holds r.mu.
func (r *ReassemblerB) finalizeLocked() (VideoFrame, bool) {
	data := make([]byte, 0, len(r.header)+r.expectedCount*1024+len(jpegEOI))
	data = append(data, r.header...)
	for i := 0; i < r.expectedCount; i++ {
		frag, ok := r.fragments[uint16(i)]
		if !ok {
			Log.WithField("frame_id", r.currentID).Debug("turbodrone: family B frame dropped, missing fragment")
			r.health.recordDrop()
			return VideoFrame{}, false
		}
		data = append(data, frag...)
	}
	data = append(data, jpegEOI...)

	frame := VideoFrame{
		FrameID: r.currentID,
		Data:    data,
		Format:  FormatJPEG,
	}
	r.health.recordFrame()
	return frame, true
}

// resetLocked starts a fresh frame-in-progress at nextID (wrapping at
// 2^16, per the wire format's 16-bit frame id field). The caller holds
// r.mu.
func (r *ReassemblerB) resetLocked(nextID uint16) {
	r.currentID = nextID
	r.fragments = make(map[uint16][]byte)
	r.expectedCount = 0
	r.sawLast = false
}

// Reset discards any in-progress assembly, eg. after the supervisor
// rebuilds the transport on link-dead detection.
func (r *ReassemblerB) Reset() {
	r.mu.Lock()
	r.haveCurrent = false
	r.resetLocked(0)
	r.mu.Unlock()
}
