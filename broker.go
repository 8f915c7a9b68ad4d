// broker.go - family B's shared control/video socket arbitration.

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
	"net"
	"strings"
	"sync"
)

// socketBroker arbitrates family B's single duplex UDP socket between the
// control scheduler and the video watchdog, which share one connection
// because the aircraft multiplexes both conversations over the same port
// (§4.6). The video side owns the socket's lifecycle (dial/redial on
// reconnect); the control side only ever holds a handle to whatever
// socket is currently live, swapped in by the supervisor during a
// reconnect.
type socketBroker struct {
	mu   sync.RWMutex
	conn *net.UDPConn
}

// SetSocket installs the current live socket, replacing any previous one.
// Called by TransportB.Connect whenever the video transport (re)dials.
func (b *socketBroker) SetSocket(conn *net.UDPConn) {
	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
}

// socket returns the current live socket, or nil if none is installed.
func (b *socketBroker) socket() *net.UDPConn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conn
}

// send writes pkt on whatever socket is currently live. A write that
// fails because the socket was just swapped out from under it (a closed
// file descriptor mid-reconnect) is dropped silently: the next scheduler
// tick will pick up the freshly installed socket. Any other error is
// returned so the caller can decide whether it is worth logging.
func (b *socketBroker) send(pkt []byte) error {
	conn := b.socket()
	if conn == nil {
		return nil
	}
	_, err := conn.Write(pkt)
	if err != nil && isClosedConnErr(err) {
		return nil
	}
	return err
}

// isClosedConnErr reports whether err looks like a write against a
// socket that was closed or swapped out mid-flight ("use of closed
// network connection", "bad file descriptor").
func isClosedConnErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "closed network connection") || strings.Contains(msg, "bad file descriptor")
}
