// reassembler_a.go - family A video frame reassembly.

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
	"bytes"
	"sync"

	"golang.org/x/exp/slices"
)

// ReassemblerA reassembles family A's fragmented JPEG frames. Fragments
// arrive tagged with an 8-bit frame id and an 8-bit slice id; a new frame
// id finalizes whatever was being assembled and starts a fresh one.
type ReassemblerA struct {
	mu sync.Mutex

	haveCurrent bool
	currentID   byte
	fragments   map[byte][]byte

	health *LinkHealth
}

// NewReassemblerA returns an empty family A reassembler. health may be nil;
// if set, finalization failures increment its FramesDropped counter.
func NewReassemblerA(health *LinkHealth) *ReassemblerA {
	return &ReassemblerA{fragments: make(map[byte][]byte), health: health}
}

// Ingest feeds one family A video datagram's parsed frame id, slice id and
// payload into the reassembler. It returns a completed frame only when a
// frame-id change finalizes the previous frame successfully.
func (r *ReassemblerA) Ingest(frameID, sliceID byte, payload []byte) (VideoFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.haveCurrent {
		r.haveCurrent = true
		r.currentID = frameID
	}

	var (
		out   VideoFrame
		emit  bool
	)
	if frameID != r.currentID {
		out, emit = r.finalizeLocked(r.currentID)
		r.fragments = make(map[byte][]byte)
		r.currentID = frameID
	}

	if _, dup := r.fragments[sliceID]; !dup {
		buf := make([]byte, len(payload))
		copy(buf, payload)
		r.fragments[sliceID] = buf
	}

	return out, emit
}

// finalizeLocked attempts to assemble the frame currently in progress. The
// caller holds r.mu.
func (r *ReassemblerA) finalizeLocked(frameID byte) (VideoFrame, bool) {
	if len(r.fragments) == 0 {
		return VideoFrame{}, false
	}

	keys := make([]byte, 0, len(r.fragments))
	for k := range r.fragments {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	if int(keys[len(keys)-1]-keys[0])+1 != len(keys) {
		Log.WithField("frame_id", frameID).Debug("turbodrone: family A frame dropped, missing slices")
		r.health.recordDrop()
		return VideoFrame{}, false
	}

	var buf bytes.Buffer
	for _, k := range keys {
		buf.Write(r.fragments[k])
	}
	data := buf.Bytes()

	soi := bytes.Index(data, jpegSOI)
	eoi := bytes.LastIndex(data, jpegEOI)
	if soi < 0 || eoi < 0 || soi >= eoi {
		Log.WithField("frame_id", frameID).Debug("turbodrone: family A frame dropped, no SOI/EOI")
		r.health.recordDrop()
		return VideoFrame{}, false
	}

	frame := VideoFrame{
		FrameID: uint16(frameID),
		Data:    append([]byte(nil), data[soi:eoi+2]...),
		Format:  FormatJPEG,
	}
	r.health.recordFrame()
	return frame, true
}

// Reset discards any in-progress assembly, eg. after the supervisor rebuilds
// the transport on link-dead detection.
func (r *ReassemblerA) Reset() {
	r.mu.Lock()
	r.haveCurrent = false
	r.fragments = make(map[byte][]byte)
	r.mu.Unlock()
}
