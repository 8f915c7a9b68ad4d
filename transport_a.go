// transport_a.go - family A UDP control and video transport.

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
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// TransportA speaks family A's wire protocol: a short UDP handshake that
// tells the aircraft our local IP, a periodic keep-alive, and a video
// receive loop that strips the family's 6- or 8-byte datagram header
// before handing the payload to a ReassemblerA.
type TransportA struct {
	ctrlConn  *net.UDPConn
	videoConn *net.UDPConn

	mu        sync.Mutex
	stopChan  chan struct{}
	closeOnce sync.Once

	health *LinkHealth
}

// NewTransportA returns an unconnected family A transport. health may be
// nil.
func NewTransportA(health *LinkHealth) *TransportA {
	return &TransportA{health: health}
}

// Connect dials the control and video UDP sockets, performs the
// handshake and starts the video receive loop, which feeds reasm.
func (t *TransportA) Connect(cfg *Config, reasm *ReassemblerA, frames *FrameQueue) error {
	ctrlAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.DroneIP, strconv.Itoa(int(cfg.ControlPort))))
	if err != nil {
		return fmt.Errorf("turbodrone: resolving family A control addr: %w", err)
	}
	t.ctrlConn, err = net.DialUDP("udp", nil, ctrlAddr)
	if err != nil {
		return fmt.Errorf("turbodrone: dialing family A control socket: %w", err)
	}

	if cfg.WithVideo {
		videoAddr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(int(cfg.VideoPort)))
		if err != nil {
			return fmt.Errorf("turbodrone: resolving family A video addr: %w", err)
		}
		t.videoConn, err = net.ListenUDP("udp", videoAddr)
		if err != nil {
			return fmt.Errorf("turbodrone: listening on family A video socket: %w", err)
		}
	}

	if err := t.handshake(); err != nil {
		return err
	}

	t.stopChan = make(chan struct{})
	if t.videoConn != nil {
		go t.receiveLoop(reasm, frames)
	}
	return nil
}

// handshake sends family A's 5-byte hello, [0x08, localIP[4]], using the
// local address the control socket bound to when dialing out.
func (t *TransportA) handshake() error {
	local, ok := t.ctrlConn.LocalAddr().(*net.UDPAddr)
	if !ok || local.IP.To4() == nil {
		return errors.New("turbodrone: could not determine local IPv4 address for family A handshake")
	}
	ip4 := local.IP.To4()

	pkt := []byte{0x08, ip4[0], ip4[1], ip4[2], ip4[3]}
	_, err := t.ctrlConn.Write(pkt)
	return err
}

// Send writes one control packet. Transient send errors are logged and
// swallowed, per §5's scheduler contract: a single bad tick must not kill
// the loop.
func (t *TransportA) Send(pkt []byte) {
	if t.ctrlConn == nil {
		return
	}
	if _, err := t.ctrlConn.Write(pkt); err != nil {
		Log.WithError(err).Debug("turbodrone: family A control send failed")
	}
}

// KeepAlive starts a goroutine that resends the handshake packet every
// interval until the transport is closed. Family A requires this to keep
// the aircraft believing the controller is still present.
func (t *TransportA) KeepAlive(interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stopChan:
				return
			case <-ticker.C:
				if err := t.handshake(); err != nil {
					Log.WithError(err).Debug("turbodrone: family A keep-alive failed")
				}
			}
		}
	}()
}

// receiveLoop reads family A video datagrams and feeds them to reasm,
// pushing completed frames onto frames without blocking indefinitely: a
// full queue is handled by the caller via a drop-oldest Queue, not here.
func (t *TransportA) receiveLoop(reasm *ReassemblerA, frames *FrameQueue) {
	buf := make([]byte, 2048)
	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		t.videoConn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, err := t.videoConn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-t.stopChan:
				return
			default:
			}
			Log.WithError(err).Debug("turbodrone: family A video read failed")
			continue
		}
		t.health.recordPacket(time.Now())

		payload, frameID, sliceID, ok := parseFrameAHeader(buf[:n])
		if !ok {
			continue
		}

		if frame, emit := reasm.Ingest(frameID, sliceID, payload); emit {
			frames.Put(frame)
		}
	}
}

// parseFrameAHeader strips family A's video datagram header. The spec's
// own capture shows both a 6-byte and an 8-byte variant in the wild
// (frame id at byte 2, slice id at byte 5 in both cases),
// and an optional trailing 0x23 0x23 marker; this accepts either.
func parseFrameAHeader(datagram []byte) (payload []byte, frameID, sliceID byte, ok bool) {
	if len(datagram) < 2 || datagram[0] != 0x40 || datagram[1] != 0x40 {
		return nil, 0, 0, false
	}

	headerLen := 6
	if len(datagram) >= 8 && datagram[6] == 0x40 && datagram[7] == 0x40 {
		headerLen = 8
	}
	if len(datagram) < headerLen+1 {
		return nil, 0, 0, false
	}

	frameID = datagram[2]
	sliceID = datagram[5]
	payload = datagram[headerLen:]

	if len(payload) >= 2 && payload[len(payload)-2] == 0x23 && payload[len(payload)-1] == 0x23 {
		payload = payload[:len(payload)-2]
	}
	return payload, frameID, sliceID, true
}

// Close tears down both sockets and stops the video receive loop. Safe to
// call more than once.
func (t *TransportA) Close() error {
	t.closeOnce.Do(func() {
		if t.stopChan != nil {
			close(t.stopChan)
		}
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	var firstErr error
	if t.ctrlConn != nil {
		if err := t.ctrlConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if t.videoConn != nil {
		if err := t.videoConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
