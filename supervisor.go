// supervisor.go - per-session lifecycle: wiring, link-health monitoring,
// teardown and reconnect.

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
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionTransport is the subset of TransportA/B/C's surface the
// supervisor needs to drive independent of family.
type sessionTransport interface {
	ControlTransport
	Close() error
}

// Supervisor owns one flying session end to end: it builds the
// family-appropriate encoder, transport and reassembler, runs the control
// scheduler and video receive path, and watches link health, tearing down
// and rebuilding the transport on prolonged silence (§4.7).
type Supervisor struct {
	id     uuid.UUID
	cfg    *Config
	model  *StickModel
	axes   *AxisMux
	health *LinkHealth
	frames *FrameQueue

	mu        sync.Mutex
	transport sessionTransport
	scheduler *Scheduler
	stopChan  chan struct{}
	monitorWG sync.WaitGroup
}

// NewSupervisor builds a Supervisor for cfg. axes is the live stick/
// one-shot input source the scheduler reads every tick.
func NewSupervisor(cfg *Config, axes *AxisMux) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	defaults, err := FamilyDefaults(cfg.Family)
	if err != nil {
		return nil, err
	}
	model, err := NewStickModel(defaults.stickRange)
	if err != nil {
		return nil, fmt.Errorf("turbodrone: building stick model: %w", err)
	}

	return &Supervisor{
		id:     uuid.New(),
		cfg:    cfg,
		model:  model,
		axes:   axes,
		health: NewLinkHealth(),
		frames: NewFrameQueue(defaultQueueCapacity, nil),
	}, nil
}

// ID returns this session's unique identifier, used to correlate log
// lines across a reconnect cycle.
func (s *Supervisor) ID() uuid.UUID { return s.id }

// Frames returns the queue video frames are delivered on.
func (s *Supervisor) Frames() *FrameQueue { return s.frames }

// Health returns the session's link health tracker.
func (s *Supervisor) Health() *LinkHealth { return s.health }

// Start builds the family's transport, connects it, and starts the
// control scheduler and link-health monitor.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transport, err := s.buildAndConnectLocked()
	if err != nil {
		return err
	}
	s.transport = transport

	encoder := encoderFor(s.cfg.Family, s.health)
	s.scheduler = NewScheduler(s.model, encoder, transport, s.axes, s.cfg.RateHz)
	s.scheduler.SetDumpPackets(s.cfg.DumpPackets)
	s.scheduler.Start()

	s.stopChan = make(chan struct{})
	s.monitorWG.Add(1)
	go s.monitorLinkHealth()

	return nil
}

// buildAndConnectLocked constructs the family-appropriate transport and
// reassembler and connects it. The caller holds s.mu.
func (s *Supervisor) buildAndConnectLocked() (sessionTransport, error) {
	switch s.cfg.Family {
	case FamilyA:
		t := NewTransportA(s.health)
		reasm := NewReassemblerA(s.health)
		if err := t.Connect(s.cfg, reasm, s.frames); err != nil {
			return nil, err
		}
		if s.cfg.KeepAlive > 0 {
			t.KeepAlive(s.cfg.KeepAlive)
		}
		return t, nil

	case FamilyB:
		broker := &socketBroker{}
		t := NewTransportB(broker, s.health)
		reasm := NewReassemblerB(640, 480, 3, s.health)
		if err := t.Connect(s.cfg, reasm, s.frames); err != nil {
			return nil, err
		}
		return t, nil

	case FamilyC:
		t := NewTransportC(s.health)
		reasm := NewReassemblerC(s.health)
		if err := t.Connect(s.cfg, reasm, s.frames); err != nil {
			return nil, err
		}
		return t, nil

	default:
		return nil, fmt.Errorf("turbodrone: unknown family %q", s.cfg.Family)
	}
}

// encoderFor returns the stateful-or-not Encoder for f. Family B's
// encoder carries rolling counters and must be constructed fresh per
// session (never shared), unlike A and C's stateless encoders; it also
// records its diagnostic CRC onto health, which may be nil.
func encoderFor(f Family, health *LinkHealth) Encoder {
	switch f {
	case FamilyA:
		return EncoderA{}
	case FamilyB:
		return NewEncoderB(health)
	case FamilyC:
		return EncoderC{}
	default:
		return EncoderC{}
	}
}

// monitorLinkHealth watches for the family's configured silence timeout
// and triggers a teardown/reconnect cycle when it is exceeded.
func (s *Supervisor) monitorLinkHealth() {
	defer s.monitorWG.Done()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	started := time.Now()
	for {
		select {
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			since, everSeen := s.health.sinceLastPacket(now)
			if !everSeen {
				since = now.Sub(started)
			}
			if since >= s.cfg.LinkDeadTimeout {
				Log.WithField("session", s.id).WithField("since", since).Warn("turbodrone: link dead, reconnecting")
				if err := s.reconnect(); err != nil {
					Log.WithError(err).Error("turbodrone: reconnect failed")
				}
			}
		}
	}
}

// reconnect tears down the current transport, waits a beat, and rebuilds
// it from scratch. Reassembly state is intentionally discarded rather
// than resynced (§4.7): a frame in flight during the swap is simply lost.
func (s *Supervisor) reconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport != nil {
		s.transport.Close()
	}
	s.health.recordReconnect()
	time.Sleep(1 * time.Second)

	transport, err := s.buildAndConnectLocked()
	if err != nil {
		return err
	}
	s.transport = transport
	s.scheduler.setTransport(transport)
	return nil
}

// Stop shuts down the session: it stops the link monitor, closes the frame
// queue and the transport, then stops the control scheduler. It waits for
// the monitor and scheduler goroutines to exit with no timeout.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	stopChan := s.stopChan
	s.mu.Unlock()

	if stopChan != nil {
		select {
		case <-stopChan:
		default:
			close(stopChan)
		}
	}
	s.monitorWG.Wait()

	s.frames.Close()

	s.mu.Lock()
	transport := s.transport
	scheduler := s.scheduler
	s.mu.Unlock()

	if transport != nil {
		transport.Close()
	}
	if scheduler != nil {
		scheduler.Stop()
	}
}
