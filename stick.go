// stick.go

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
)

// StickRange is the immutable {min, mid, max} raw-unit triple a family's
// wire format expects for one axis.
type StickRange struct {
	Min, Mid, Max float64
}

// Validate checks the range invariant min < mid < max.
func (r StickRange) Validate() error {
	if !(r.Min < r.Mid && r.Mid < r.Max) {
		return fmt.Errorf("turbodrone: invalid stick range %+v, want min < mid < max", r)
	}
	return nil
}

// HalfRange is max-mid, the span the Incremental strategy accelerates/
// decelerates over.
func (r StickRange) HalfRange() float64 { return r.Max - r.Mid }

// FullRange is max-min, the span ImmediateResponse (the Incremental
// strategy's reversal boost) is a fraction of.
func (r StickRange) FullRange() float64 { return r.Max - r.Min }

// ControlProfile is an immutable named sensitivity profile. Ratios are
// fractions of half-range (Accel/Decel) or full-range (Immediate).
type ControlProfile struct {
	Name            string
	AccelRatio      float64
	DecelRatio      float64
	Expo            float64
	ImmediateRatio  float64
}

// AccelRate is accel_ratio * (max-mid) for the given range.
func (p ControlProfile) AccelRate(r StickRange) float64 { return p.AccelRatio * r.HalfRange() }

// DecelRate is decel_ratio * (max-mid) for the given range.
func (p ControlProfile) DecelRate(r StickRange) float64 { return p.DecelRatio * r.HalfRange() }

// ImmediateResponse is immediate_ratio * (max-min) for the given range.
func (p ControlProfile) ImmediateResponse(r StickRange) float64 { return p.ImmediateRatio * r.FullRange() }

// Named sensitivity profiles cycled by StickModel.SetSensitivity, in order.
var (
	ProfileNormal = ControlProfile{Name: "normal", AccelRatio: 1.5, DecelRatio: 2.5, Expo: 0.3, ImmediateRatio: 0.15}
	ProfilePrecise = ControlProfile{Name: "precise", AccelRatio: 0.8, DecelRatio: 2.0, Expo: 0.6, ImmediateRatio: 0.05}
	ProfileAggressive = ControlProfile{Name: "aggressive", AccelRatio: 2.5, DecelRatio: 3.5, Expo: 0.1, ImmediateRatio: 0.30}
)

// sensitivitySequence is the fixed cycle SetSensitivity steps through.
var sensitivitySequence = []ControlProfile{ProfileNormal, ProfilePrecise, ProfileAggressive}

// Axis identifies one of the four stick axes.
type Axis int

// The four stick axes, in the order AxisInput presents them.
const (
	AxisThrottle Axis = iota
	AxisYaw
	AxisPitch
	AxisRoll
	numAxes
)

// AxisInput is a normalized {throttle, yaw, pitch, roll} tuple, each
// component in [-1,+1]. Consumers are expected to clamp on ingress; Clamp
// does that defensively here too.
type AxisInput struct {
	Throttle, Yaw, Pitch, Roll float64
}

// Clamp returns a with every component clamped to [-1,+1].
func (a AxisInput) Clamp() AxisInput {
	return AxisInput{
		Throttle: clampUnit(a.Throttle),
		Yaw:      clampUnit(a.Yaw),
		Pitch:    clampUnit(a.Pitch),
		Roll:     clampUnit(a.Roll),
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// OneShots is the set of one-shot command flags a family may carry; every
// family only uses a subset (see StickModel.Flags and the per-family
// encoders, which ignore flags their family does not support).
type OneShots struct {
	Takeoff        bool
	Land           bool
	EmergencyStop  bool
	Flip           bool
	FlipDir        FlipDirection
	Calibrate      bool
	Record         bool // persistent toggle, not cleared by encoders
	Headless       bool // persistent toggle, not cleared by encoders
}

// FlipDirection selects which way Flip() rolls the aircraft.
type FlipDirection int

// Flip directions, shared across families that support the command.
const (
	FlipForward FlipDirection = iota
	FlipLeft
	FlipBackward
	FlipRight
	FlipForwardLeft
	FlipBackwardLeft
	FlipBackwardRight
	FlipForwardRight
)

// StickState is an immutable snapshot of a StickModel, returned by State().
type StickState struct {
	Throttle, Yaw, Pitch, Roll float64
	Flags                      OneShots
}

// StickModel holds the current raw per-axis values for one family and
// advances them each tick under a selectable ResponseStrategy. The control
// scheduler is the only caller of Update, passing it the axis mux's
// current snapshot; the one-shot setters only touch the flags. Readers get
// snapshots via State.
type StickModel struct {
	mu sync.Mutex

	rng     StickRange
	profile ControlProfile
	sensIdx int
	strat   ResponseStrategy

	values  [numAxes]float64
	lastDir [numAxes]float64 // -1, 0 or +1: direction commanded on the previous tick

	flags OneShots
}

// NewStickModel constructs a model for the given range, defaulting every
// axis to range.mid, the normal sensitivity profile and the Incremental
// strategy (the teacher's default flight feel).
func NewStickModel(rng StickRange) (*StickModel, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	m := &StickModel{
		rng:     rng,
		profile: ProfileNormal,
		strat:   Incremental{},
	}
	for i := range m.values {
		m.values[i] = rng.Mid
	}
	return m, nil
}

// SetProfile switches the named sensitivity profile directly, bypassing the
// fixed SetSensitivity cycle.
func (m *StickModel) SetProfile(p ControlProfile) {
	m.mu.Lock()
	m.profile = p
	m.mu.Unlock()
}

// SetSensitivity cycles through the fixed [normal, precise, aggressive]
// sequence, indexing modulo its length so any index is accepted.
func (m *StickModel) SetSensitivity(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(sensitivitySequence)
	m.sensIdx = ((index % n) + n) % n
	m.profile = sensitivitySequence[m.sensIdx]
}

// SetStrategy switches between the Incremental and Direct response
// strategies.
func (m *StickModel) SetStrategy(s ResponseStrategy) {
	m.mu.Lock()
	m.strat = s
	m.mu.Unlock()
}

// one-shot setters. Each sets the corresponding flag; the encoder clears
// the non-persistent ones after one successful packet build.

// Takeoff arms the takeoff one-shot flag.
func (m *StickModel) Takeoff() { m.setFlag(func(f *OneShots) { f.Takeoff = true }) }

// Land arms the land one-shot flag.
func (m *StickModel) Land() { m.setFlag(func(f *OneShots) { f.Land = true }) }

// EmergencyStop arms the emergency-stop one-shot flag (where the family
// supports it; unsupported families' encoders silently ignore the bit).
func (m *StickModel) EmergencyStop() { m.setFlag(func(f *OneShots) { f.EmergencyStop = true }) }

// Flip arms the flip one-shot flag in direction dir.
func (m *StickModel) Flip(dir FlipDirection) {
	m.setFlag(func(f *OneShots) { f.Flip = true; f.FlipDir = dir })
}

// ToggleHeadless flips the persistent headless-mode toggle.
func (m *StickModel) ToggleHeadless() {
	m.setFlag(func(f *OneShots) { f.Headless = !f.Headless })
}

// Calibrate arms the calibrate one-shot flag.
func (m *StickModel) Calibrate() { m.setFlag(func(f *OneShots) { f.Calibrate = true }) }

// ToggleRecord flips the persistent record toggle.
func (m *StickModel) ToggleRecord() {
	m.setFlag(func(f *OneShots) { f.Record = !f.Record })
}

func (m *StickModel) setFlag(mutate func(*OneShots)) {
	m.mu.Lock()
	mutate(&m.flags)
	m.mu.Unlock()
}

// ClearOneShots clears every non-persistent one-shot flag, returning the
// flags as they stood just before clearing. Encoders call this exactly once
// per successfully built packet (§4.3); headless and record are persistent
// and are left untouched.
func (m *StickModel) ClearOneShots() OneShots {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.flags
	m.flags.Takeoff = false
	m.flags.Land = false
	m.flags.EmergencyStop = false
	m.flags.Flip = false
	m.flags.Calibrate = false
	return snapshot
}

// State returns an immutable snapshot of the model's current axis values
// and flags.
func (m *StickModel) State() StickState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StickState{
		Throttle: m.values[AxisThrottle],
		Yaw:      m.values[AxisYaw],
		Pitch:    m.values[AxisPitch],
		Roll:     m.values[AxisRoll],
		Flags:    m.flags,
	}
}

// Range returns the model's stick range.
func (m *StickModel) Range() StickRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng
}

// Update advances each axis one tick under the current strategy, given a
// normalized axis input already clamped to [-1,+1].
func (m *StickModel) Update(dt float64, axes AxisInput) {
	axes = axes.Clamp()
	m.mu.Lock()
	defer m.mu.Unlock()

	in := [numAxes]float64{axes.Throttle, axes.Yaw, axes.Pitch, axes.Roll}
	for i := Axis(0); i < numAxes; i++ {
		boostEligible := i == AxisPitch || i == AxisRoll
		next, dir := m.strat.Step(stepParams{
			rng:           m.rng,
			profile:       m.profile,
			dt:            dt,
			cur:           m.values[i],
			normalized:    in[i],
			lastDir:       m.lastDir[i],
			boostEligible: boostEligible,
		})
		m.values[i] = next
		m.lastDir[i] = dir
	}
}
