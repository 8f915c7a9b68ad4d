// scheduler.go - fixed-rate control loop.

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

// ControlTransport is whatever a Scheduler sends encoded control packets
// through. TransportA, TransportB and TransportC all satisfy it.
type ControlTransport interface {
	Send(pkt []byte)
}

// Scheduler drives the fixed-rate control loop (§5): at RateHz, it reads
// the current stick/one-shot intent, advances the stick model by one
// tick, encodes the result and sends it. It owns no state about what the
// packet means - that is entirely the Encoder's and StickModel's job.
type Scheduler struct {
	model     *StickModel
	encoder   Encoder
	transport ControlTransport
	axes      *AxisMux
	rate      float64
	dumpPkts  bool

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler returns a Scheduler ticking at rateHz, reading stick input
// from axes and writing encoded packets to transport.
func NewScheduler(model *StickModel, encoder Encoder, transport ControlTransport, axes *AxisMux, rateHz float64) *Scheduler {
	return &Scheduler{model: model, encoder: encoder, transport: transport, axes: axes, rate: rateHz}
}

// SetDumpPackets toggles per-tick wire-packet logging (--dump-packets),
// off by default since it is chatty at control rate.
func (s *Scheduler) SetDumpPackets(dump bool) {
	s.mu.Lock()
	s.dumpPkts = dump
	s.mu.Unlock()
}

// Start begins the fixed-rate loop in its own goroutine. A Scheduler runs
// at most once: calling Start again, before or after Stop, is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.stopChan != nil {
		s.mu.Unlock()
		return
	}
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run()
}

func (s *Scheduler) run() {
	defer close(s.done)

	period := time.Duration(float64(time.Second) / s.rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			s.model.Update(dt, s.axes.AxesSnapshot())
			pkt := s.encoder.Encode(s.model)

			s.mu.Lock()
			transport := s.transport
			dump := s.dumpPkts
			s.mu.Unlock()

			if dump {
				Log.WithField("bytes", len(pkt)).Debug("turbodrone: control packet")
			}
			transport.Send(pkt)
		}
	}
}

// setTransport swaps in a freshly reconnected transport without
// restarting the loop, so a supervisor-driven reconnect never misses a
// tick waiting for Stop/Start to round-trip.
func (s *Scheduler) setTransport(transport ControlTransport) {
	s.mu.Lock()
	s.transport = transport
	s.mu.Unlock()
}

// Stop halts the loop and waits for its goroutine to exit. Safe to call
// even if Start was never called.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopChan := s.stopChan
	done := s.done
	s.mu.Unlock()

	if stopChan == nil {
		return
	}
	select {
	case <-stopChan:
	default:
		close(stopChan)
	}
	<-done
}
