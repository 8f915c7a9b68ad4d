// jpeghdr.go - synthesized JPEG headers for family B's headerless video feed.

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

// JPEG marker values, per ITU-T T.81.
const (
	markerSOI = 0xD8
	markerDQT = 0xDB
	markerSOF0 = 0xC0
	markerSOS = 0xDA
)

// Standard 8-bit luminance and chrominance quantization tables, as defined
// in Annex K of ITU-T T.81, in natural (row-major) order; dqtSegment writes
// them out in zigzag order.
var stdLuminanceQT = [64]byte{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

var stdChrominanceQT = [64]byte{
	17, 18, 24, 47, 99, 99, 99, 99,
	18, 21, 26, 66, 99, 99, 99, 99,
	24, 26, 56, 99, 99, 99, 99, 99,
	47, 66, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
}

// buildJPEGHeader synthesizes SOI + DQT(Y) + DQT(Cb/Cr) + SOF0 + SOS for an
// image of the given dimensions, assuming 4:4:4 sampling on every
// component. numComponents is 1 (grayscale) or 3 (YCbCr). This is prepended
// once, ahead of the raw entropy-coded payload the aircraft sends with no
// header of its own, and cached for the lifetime of the adapter (§4.6,
// §9): the byte slice this returns should be treated as immutable.
func buildJPEGHeader(width, height, numComponents int) []byte {
	var buf []byte
	buf = append(buf, jpegSOI...)

	buf = append(buf, dqtSegment(0, stdLuminanceQT)...)
	if numComponents > 1 {
		buf = append(buf, dqtSegment(1, stdChrominanceQT)...)
	}

	buf = append(buf, sof0Segment(width, height, numComponents)...)
	buf = append(buf, sosSegment(numComponents)...)
	return buf
}

func dqtSegment(tableID byte, table [64]byte) []byte {
	// length(2) + precision/id(1) + 64 table bytes
	seg := make([]byte, 0, 4+64)
	seg = append(seg, 0xFF, markerDQT)
	length := uint16(2 + 1 + 64)
	seg = append(seg, byte(length>>8), byte(length))
	seg = append(seg, tableID) // precision=0 (8-bit) in high nibble
	// A DQT segment carries the table in zigzag order: walk each
	// anti-diagonal (row+col == s), alternating direction.
	for s := 0; s < 15; s++ {
		lo, hi := max(0, s-7), min(s, 7)
		for k := lo; k <= hi; k++ {
			r := k
			if s%2 == 0 {
				r = lo + hi - k
			}
			seg = append(seg, table[r*8+(s-r)])
		}
	}
	return seg
}

func sof0Segment(width, height, numComponents int) []byte {
	seg := make([]byte, 0, 19)
	seg = append(seg, 0xFF, markerSOF0)
	length := uint16(8 + 3*numComponents)
	seg = append(seg, byte(length>>8), byte(length))
	seg = append(seg, 8) // precision
	seg = append(seg, byte(height>>8), byte(height))
	seg = append(seg, byte(width>>8), byte(width))
	seg = append(seg, byte(numComponents))

	for i := 0; i < numComponents; i++ {
		id := byte(i + 1)
		qt := byte(0)
		if i > 0 {
			qt = 1 // Cb/Cr share the chrominance table
		}
		seg = append(seg, id, 0x11, qt) // 4:4:4 sampling factors
	}
	return seg
}

func sosSegment(numComponents int) []byte {
	seg := make([]byte, 0, 14)
	seg = append(seg, 0xFF, markerSOS)
	length := uint16(6 + 2*numComponents)
	seg = append(seg, byte(length>>8), byte(length))
	seg = append(seg, byte(numComponents))

	for i := 0; i < numComponents; i++ {
		id := byte(i + 1)
		selector := byte(0x00) // Y: DC0/AC0
		if i > 0 {
			selector = 0x11 // Cb/Cr: DC1/AC1
		}
		seg = append(seg, id, selector)
	}
	seg = append(seg, 0x00, 0x3F, 0x00) // spectral select / successive approx
	return seg
}
