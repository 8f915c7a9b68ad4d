// encoder.go

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

// Encoder is a pure function from the current stick model state to a
// wire-format control packet. Implementations clear the non-persistent
// one-shot flags on the model after a successful build (§4.3).
type Encoder interface {
	Encode(model *StickModel) []byte
}

// clampByte clamps a raw stick value to the [0,255] wire byte range.
func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// remapToByte linearly remaps a raw stick value in [rng.Min, rng.Max] to a
// full 0..255 wire byte: [min,mid] -> [0,128], [mid,max] -> [128,255].
func remapToByte(v float64, rng StickRange) byte {
	var out float64
	if v <= rng.Mid {
		t := (v - rng.Min) / (rng.Mid - rng.Min)
		out = t * 128
	} else {
		t := (v - rng.Mid) / (rng.Max - rng.Mid)
		out = 128 + t*127
	}
	return clampByte(out)
}

// xorChecksum XORs every byte in buf together.
func xorChecksum(buf []byte) byte {
	var x byte
	for _, b := range buf {
		x ^= b
	}
	return x
}
