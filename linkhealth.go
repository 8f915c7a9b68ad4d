// linkhealth.go

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

// LinkHealth is the supervisor's view of one session's link quality. It is
// updated by the video transport/reassembler/watchdog and read by the
// supervisor's link monitor; all access is synchronized.
type LinkHealth struct {
	mu sync.Mutex

	lastFrameAt  time.Time
	lastPacketAt time.Time

	retryAttempts  int
	retrySuccesses int
	framesOK       int
	framesDropped  int
	reconnects     int
	lastControlCRC uint16

	// packetWindowStart/packetWindowCount back a simple rolling
	// packets-per-second estimate, the "enriched" telemetry supplemental
	// feature described in SPEC_FULL.md.
	packetWindowStart time.Time
	packetWindowCount int
	packetsPerSecond  float64
}

// NewLinkHealth returns a zero-valued LinkHealth ready for use.
func NewLinkHealth() *LinkHealth { return &LinkHealth{} }

// Snapshot is an immutable copy of a LinkHealth's counters, per spec §3.
type Snapshot struct {
	LastFrameTs    time.Time
	LastPacketTs   time.Time
	RetryAttempts  int
	RetrySuccesses int
	FramesOK       int
	FramesDropped  int
	Reconnects     int
	PacketsPerSec  float64
	LastControlCRC uint16
}

// Snapshot returns an immutable copy of the current counters.
func (h *LinkHealth) Snapshot() Snapshot {
	if h == nil {
		return Snapshot{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return Snapshot{
		LastFrameTs:    h.lastFrameAt,
		LastPacketTs:   h.lastPacketAt,
		RetryAttempts:  h.retryAttempts,
		RetrySuccesses: h.retrySuccesses,
		FramesOK:       h.framesOK,
		FramesDropped:  h.framesDropped,
		Reconnects:     h.reconnects,
		PacketsPerSec:  h.packetsPerSecond,
		LastControlCRC: h.lastControlCRC,
	}
}

// recordPacket marks that a datagram was received on the transport, and
// folds it into the rolling packets-per-second estimate. A nil receiver is
// a no-op so reassemblers/transports may be built without a health handle
// in tests.
func (h *LinkHealth) recordPacket(now time.Time) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastPacketAt = now

	if h.packetWindowStart.IsZero() {
		h.packetWindowStart = now
	}
	h.packetWindowCount++
	if elapsed := now.Sub(h.packetWindowStart); elapsed >= time.Second {
		h.packetsPerSecond = float64(h.packetWindowCount) / elapsed.Seconds()
		h.packetWindowStart = now
		h.packetWindowCount = 0
	}
}

func (h *LinkHealth) recordFrame() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.lastFrameAt = time.Now()
	h.framesOK++
	h.mu.Unlock()
}

func (h *LinkHealth) recordDrop() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.framesDropped++
	h.mu.Unlock()
}

func (h *LinkHealth) recordRetryAttempt() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.retryAttempts++
	h.mu.Unlock()
}

func (h *LinkHealth) recordRetrySuccess() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.retrySuccesses++
	h.mu.Unlock()
}

func (h *LinkHealth) recordReconnect() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.reconnects++
	h.mu.Unlock()
}

// recordControlCRC stores the most recent diagnostic CRC16 computed over
// a family B control frame's control bytes (§11 domain stack).
func (h *LinkHealth) recordControlCRC(crc uint16) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.lastControlCRC = crc
	h.mu.Unlock()
}

// sinceLastPacket reports how long it has been since the last datagram was
// observed. A zero lastPacketAt (nothing received yet) reports d as the
// time since construction is unknown, so the supervisor should treat it as
// "not yet silent" by comparing against session start separately.
func (h *LinkHealth) sinceLastPacket(now time.Time) (d time.Duration, everSeen bool) {
	if h == nil {
		return 0, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastPacketAt.IsZero() {
		return 0, false
	}
	return now.Sub(h.lastPacketAt), true
}
