// axismux.go

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

// taggedAxes is the atomic unit the mux stores: readers never see a
// partially-updated tuple because it is always replaced as a whole value
// under the mutex, never field-by-field.
type taggedAxes struct {
	source string
	axes   AxisInput
}

// AxisMux is the single writer-of-record for stick direction inputs. A CLI,
// joystick driver, external "plugin" (eg. a person-following CV backend) or
// a macro helper all call into it; whichever last wrote wins, and its
// source tag travels along with the values for diagnostics.
type AxisMux struct {
	mu  sync.Mutex
	cur taggedAxes
}

// NewAxisMux returns a mux with all axes centered, tagged "unknown".
func NewAxisMux() *AxisMux {
	return &AxisMux{cur: taggedAxes{source: "unknown"}}
}

// SetAxesFrom atomically replaces the current axis tuple, tagging it with
// source. This is the only entry point that may mutate stick direction
// inputs; when an external plugin is driving the aircraft, the gateway in
// front of this mux must route all other input away and call this with the
// plugin's name instead.
func (m *AxisMux) SetAxesFrom(source string, throttle, yaw, pitch, roll float64) {
	m.mu.Lock()
	m.cur = taggedAxes{source: source, axes: AxisInput{Throttle: throttle, Yaw: yaw, Pitch: pitch, Roll: roll}.Clamp()}
	m.mu.Unlock()
}

// SetAxes is SetAxesFrom tagged "unknown".
func (m *AxisMux) SetAxes(throttle, yaw, pitch, roll float64) {
	m.SetAxesFrom("unknown", throttle, yaw, pitch, roll)
}

// Snapshot returns the current axis tuple and the tag of whoever wrote it
// last. The read is atomic: callers never observe a mix of two writes.
func (m *AxisMux) Snapshot() (AxisInput, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur.axes, m.cur.source
}

// AxesSnapshot is a convenience for callers (the control scheduler) that
// only care about the values, not the source tag.
func (m *AxisMux) AxesSnapshot() AxisInput {
	axes, _ := m.Snapshot()
	return axes
}

// The following are macro-level convenience wrappers in the teacher's
// idiom (Forward/Backward/Up/Down/Clockwise/...): each maps a percentage
// 0-100 to a normalized axis value and writes it through the mux tagged
// "macro", leaving the other three axes where the last write (from any
// source) left them rather than resetting the whole tuple.

func pctToUnit(pct int) float64 {
	if pct <= 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}
	return float64(pct) / 100.0
}

// NudgeForward commands forward pitch at the given percentage (0-100).
func (m *AxisMux) NudgeForward(pct int) { m.nudge(AxisPitch, pctToUnit(pct)) }

// NudgeBackward commands backward pitch at the given percentage (0-100).
func (m *AxisMux) NudgeBackward(pct int) { m.nudge(AxisPitch, -pctToUnit(pct)) }

// NudgeLeft commands leftward roll at the given percentage (0-100).
func (m *AxisMux) NudgeLeft(pct int) { m.nudge(AxisRoll, -pctToUnit(pct)) }

// NudgeRight commands rightward roll at the given percentage (0-100).
func (m *AxisMux) NudgeRight(pct int) { m.nudge(AxisRoll, pctToUnit(pct)) }

// NudgeUp commands upward throttle at the given percentage (0-100).
func (m *AxisMux) NudgeUp(pct int) { m.nudge(AxisThrottle, pctToUnit(pct)) }

// NudgeDown commands downward throttle at the given percentage (0-100).
func (m *AxisMux) NudgeDown(pct int) { m.nudge(AxisThrottle, -pctToUnit(pct)) }

// NudgeClockwise commands clockwise yaw at the given percentage (0-100).
func (m *AxisMux) NudgeClockwise(pct int) { m.nudge(AxisYaw, pctToUnit(pct)) }

// NudgeCounterClockwise commands counter-clockwise yaw at the given
// percentage (0-100).
func (m *AxisMux) NudgeCounterClockwise(pct int) { m.nudge(AxisYaw, -pctToUnit(pct)) }

func (m *AxisMux) nudge(axis Axis, v float64) {
	m.mu.Lock()
	axes := m.cur.axes
	switch axis {
	case AxisThrottle:
		axes.Throttle = v
	case AxisYaw:
		axes.Yaw = v
	case AxisPitch:
		axes.Pitch = v
	case AxisRoll:
		axes.Roll = v
	}
	m.cur = taggedAxes{source: "macro", axes: axes.Clamp()}
	m.mu.Unlock()
}
