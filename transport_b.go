// transport_b.go - family B shared-socket control and video transport.

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
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// Family B's per-frame request datagrams. The spec pins down exactly
// one field of REQUEST_A (the frame id, little endian, at offsets
// 12/13) and three little-endian copies of the same frame id in
// REQUEST_B, at offsets 12/13, 88/89 and 107/108; everything else in
// these templates is a fixed byte observed constant across requests.
const (
	requestASize = 32
	requestBSize = 128

	frameTimeoutB = 80 * time.Millisecond
	maxRetriesB   = 3
	warmupTriesB  = 10
)

var (
	requestATemplate = func() []byte {
		b := make([]byte, requestASize)
		b[0], b[1] = 0xA5, 0xA5
		return b
	}()
	requestBTemplate = func() []byte {
		b := make([]byte, requestBSize)
		b[0], b[1] = 0xA5, 0xA6
		return b
	}()

	startStreamB = []byte("START_STREAM")
)

// TransportB speaks family B's wire protocol over a single duplex UDP
// socket shared between control and video (§4.6): it owns that socket's
// lifecycle, runs the per-frame request/timeout/retry watchdog that pulls
// video fragments out of the aircraft, and exposes the socket to a
// socketBroker so the control scheduler can piggyback control packets on
// the same connection.
type TransportB struct {
	conn   *net.UDPConn
	broker *socketBroker

	mu       sync.Mutex
	stopChan chan struct{}
	closeOnce sync.Once

	health *LinkHealth
}

// NewTransportB returns an unconnected family B transport sharing broker
// with whatever RC transport the supervisor wires up alongside it. health
// may be nil.
func NewTransportB(broker *socketBroker, health *LinkHealth) *TransportB {
	return &TransportB{broker: broker, health: health}
}

// Connect dials the shared socket, installs it into the broker, sends
// START_STREAM and waits (retrying) for the aircraft to start responding
// before returning.
func (t *TransportB) Connect(cfg *Config, reasm *ReassemblerB, frames *FrameQueue) error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.DroneIP, strconv.Itoa(int(cfg.VideoPort))))
	if err != nil {
		return fmt.Errorf("turbodrone: resolving family B addr: %w", err)
	}
	t.conn, err = net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("turbodrone: dialing family B socket: %w", err)
	}
	if t.broker != nil {
		t.broker.SetSocket(t.conn)
	}

	if err := t.warmup(); err != nil {
		return err
	}

	t.stopChan = make(chan struct{})
	go t.watchdogLoop(reasm, frames)
	return nil
}

// warmup sends START_STREAM and waits for the first reply, retrying up
// to warmupTriesB times before giving up.
func (t *TransportB) warmup() error {
	for i := 0; i < warmupTriesB; i++ {
		if _, err := t.conn.Write(startStreamB); err != nil {
			return fmt.Errorf("turbodrone: sending family B START_STREAM: %w", err)
		}
		t.conn.SetReadDeadline(time.Now().Add(frameTimeoutB))
		buf := make([]byte, 2048)
		if _, err := t.conn.Read(buf); err == nil {
			return nil
		}
	}
	return fmt.Errorf("turbodrone: family B aircraft did not respond to START_STREAM after %d tries", warmupTriesB)
}

// watchdogLoop drives family B's request/timeout/retry video protocol:
// every frame emits exactly two datagrams, REQUEST_A followed by
// REQUEST_B, then waits FRAME_TIMEOUT for a reply; on timeout it resends
// REQUEST_B up to MAX_RETRIES times before giving up on the frame and
// advancing to the next id anyway.
func (t *TransportB) watchdogLoop(reasm *ReassemblerB, frames *FrameQueue) {
	var frameID uint16
	buf := make([]byte, 2048)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		if err := t.sendRequestA(frameID); err != nil {
			Log.WithError(err).Debug("turbodrone: family B REQUEST_A send failed")
		}
		if err := t.sendRequestB(frameID); err != nil {
			Log.WithError(err).Debug("turbodrone: family B REQUEST_B send failed")
		}

		got := false
		for retry := 0; retry <= maxRetriesB; retry++ {
			t.conn.SetReadDeadline(time.Now().Add(frameTimeoutB))
			n, err := t.conn.Read(buf)
			if err != nil {
				if retry == maxRetriesB {
					break
				}
				t.health.recordRetryAttempt()
				if sendErr := t.sendRequestB(frameID); sendErr != nil {
					Log.WithError(sendErr).Debug("turbodrone: family B REQUEST_B send failed")
				}
				continue
			}
			if retry > 0 {
				t.health.recordRetrySuccess()
			}
			t.health.recordPacket(time.Now())
			got = true

			fid, fragIdx, isLast, payload, ok := parseFrameBDatagram(buf[:n])
			if ok {
				if frame, emit := reasm.Ingest(fid, fragIdx, isLast, payload); emit {
					frames.Put(frame)
				}
			}
			break
		}

		if !got {
			t.health.recordDrop()
		}
		frameID++
	}
}

// sendRequestA writes a copy of requestATemplate with the frame id
// patched into its little-endian offset-12/13 field.
func (t *TransportB) sendRequestA(frameID uint16) error {
	pkt := make([]byte, len(requestATemplate))
	copy(pkt, requestATemplate)
	putLE16(pkt, 12, frameID)
	_, err := t.conn.Write(pkt)
	return err
}

// sendRequestB writes a copy of requestBTemplate with the frame id
// patched into all three of its little-endian copies (offsets 12/13,
// 88/89 and 107/108).
func (t *TransportB) sendRequestB(frameID uint16) error {
	pkt := make([]byte, len(requestBTemplate))
	copy(pkt, requestBTemplate)
	putLE16(pkt, 12, frameID)
	putLE16(pkt, 88, frameID)
	putLE16(pkt, 107, frameID)
	_, err := t.conn.Write(pkt)
	return err
}

// parseFrameBDatagram extracts the frame id, fragment index, "is this
// the last fragment" flag and payload from a family B video reply. The
// fragment-index and continuation-marker offsets are turbodrone's own
// construction (see DESIGN.md); REQUEST_A/REQUEST_B's own offsets are the
// only ones the spec pins down exactly.
func parseFrameBDatagram(datagram []byte) (frameID, fragIdx uint16, isLast bool, payload []byte, ok bool) {
	const headerLen = 16
	if len(datagram) < headerLen {
		return 0, 0, false, nil, false
	}
	frameID = uint16(datagram[12]) | uint16(datagram[13])<<8
	fragIdx = uint16(datagram[14])
	isLast = datagram[15] != notLastMarker
	payload = datagram[headerLen:]
	return frameID, fragIdx, isLast, payload, true
}

// Send writes one control packet onto the shared socket via the broker.
// A nil broker (control not wired up for this session) is a no-op.
func (t *TransportB) Send(pkt []byte) {
	if t.broker == nil {
		return
	}
	if err := t.broker.send(pkt); err != nil {
		Log.WithError(err).Debug("turbodrone: family B control send failed")
	}
}

// Close stops the watchdog loop and closes the shared socket.
func (t *TransportB) Close() error {
	t.closeOnce.Do(func() {
		if t.stopChan != nil {
			close(t.stopChan)
		}
	})
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
