// strategy.go

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

import "math"

// directionDeadzone is how close to zero a normalized axis input must be to
// be treated as d=0 (stick centered) rather than a tiny direction.
const directionDeadzone = 1e-9

// stepParams bundles everything a ResponseStrategy needs to advance one
// axis by one tick.
type stepParams struct {
	rng           StickRange
	profile       ControlProfile
	dt            float64
	cur           float64 // current raw axis value
	normalized    float64 // axis input in [-1,+1]
	lastDir       float64 // direction commanded on the previous tick: -1, 0 or +1
	boostEligible bool    // true for pitch/roll only
}

// ResponseStrategy maps a normalized axis input to the next raw stick
// value. It returns the new raw value and the direction it committed to,
// which becomes the caller's lastDir on the following tick.
type ResponseStrategy interface {
	Step(p stepParams) (next float64, dir float64)
}

// Direct maps a normalized axis value straight onto the stick range every
// tick, with an optional expo curve softening the center. It is idempotent
// and keeps no history.
type Direct struct{}

// Step implements ResponseStrategy.
func (Direct) Step(p stepParams) (float64, float64) {
	v := applyExpo(p.normalized, p.profile.Expo)
	var next float64
	if v >= 0 {
		next = p.rng.Mid + v*(p.rng.Max-p.rng.Mid)
	} else {
		next = p.rng.Mid + v*(p.rng.Mid-p.rng.Min)
	}
	return clampf(next, p.rng.Min, p.rng.Max), direction(p.normalized)
}

// Incremental maintains the stick position as a running integral of the
// commanded direction: holding a direction accelerates the axis toward its
// extreme, and centering the input decays the axis back to mid.
type Incremental struct{}

// Step implements ResponseStrategy.
func (Incremental) Step(p stepParams) (float64, float64) {
	d := direction(p.normalized)
	half := p.rng.HalfRange()

	switch {
	case d > 0:
		cur := p.cur
		if p.boostEligible && p.lastDir <= 0 {
			boost := p.profile.ImmediateResponse(p.rng)
			cur += math.Min(p.rng.Max-cur, boost)
		}
		rate := p.profile.AccelRate(p.rng) * p.dt * (1 + p.profile.Expo*(p.rng.Max-cur)/half)
		cur += rate
		return clampf(cur, p.rng.Min, p.rng.Max), 1

	case d < 0:
		cur := p.cur
		if p.boostEligible && p.lastDir >= 0 {
			boost := p.profile.ImmediateResponse(p.rng)
			cur -= math.Min(cur-p.rng.Min, boost)
		}
		rate := p.profile.AccelRate(p.rng) * p.dt * (1 + p.profile.Expo*(cur-p.rng.Min)/half)
		cur -= rate
		return clampf(cur, p.rng.Min, p.rng.Max), -1

	default:
		dist := p.cur - p.rng.Mid
		rate := p.profile.DecelRate(p.rng) * p.dt * (1 + 0.5*math.Abs(dist)/half)
		switch {
		case dist > 0:
			return math.Max(p.rng.Mid, p.cur-rate), 0
		case dist < 0:
			return math.Min(p.rng.Mid, p.cur+rate), 0
		default:
			return p.rng.Mid, 0
		}
	}
}

// direction reduces a normalized input to -1, 0 or +1.
func direction(v float64) float64 {
	switch {
	case v > directionDeadzone:
		return 1
	case v < -directionDeadzone:
		return -1
	default:
		return 0
	}
}

// applyExpo softens the center of a normalized input: v' = sign(v)*|v|^(1+expo).
func applyExpo(v, expo float64) float64 {
	if v == 0 {
		return 0
	}
	sign := 1.0
	if v < 0 {
		sign = -1.0
	}
	return sign * math.Pow(math.Abs(v), 1+expo)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
