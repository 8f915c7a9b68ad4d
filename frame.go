// frame.go

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

// VideoFormat names the encoding of a VideoFrame's payload.
type VideoFormat string

// Formats turbodrone knows how to deliver. Decoding is explicitly out of
// scope (spec non-goal); these tags exist so a downstream consumer can
// dispatch to the right decoder.
const (
	FormatJPEG VideoFormat = "jpeg"
)

// VideoFrame is one complete, immutable, displayable video frame.
type VideoFrame struct {
	FrameID uint16
	Data    []byte
	Format  VideoFormat
}

// JPEG markers used to locate/synthesize frame boundaries.
var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// Each family's reassembler turns its own parsed header fields and a
// payload into complete frames (spec §4.5's common contract
// "ingest(header_fields, payload) -> Option<Frame>"); the header fields'
// shape differs per family, so each lives on its own concrete type
// (ReassemblerA/B/C) rather than behind one shared interface.
