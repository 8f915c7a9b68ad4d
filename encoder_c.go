// encoder_c.go - family C control packet encoding.

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

// Family C's 9-byte control frame:
//
//	[0x03, 0x66, roll, pitch, throttle, yaw, flags, xor, 0x99]
//
// Unlike family A, the four axis bytes are the raw stick value clamped
// straight to [0,255] - family C's stick range already lives in that span,
// so no remap is needed. The checksum is the XOR of bytes 2..6 inclusive.
// Family C additionally requires a standalone heartbeat datagram every
// second (see TransportC), independent of this control packet's rate.
const (
	frameCHeader0 = 0x03
	frameCHeader1 = 0x66
	frameCTrailer = 0x99
	frameCSize    = 9

	flagCTakeoff       = 0x01
	flagCSoftLand      = 0x02
	flagCEmergencyStop = 0x04
	flagCFlip          = 0x08
	flagCHeadless      = 0x10
	flagCCalibrate     = 0x80
)

// heartbeatC is family C's standalone keep-alive datagram, sent every
// second independent of the control rate (§4.3, §4.6).
var heartbeatC = []byte{0x01, 0x01}

// EncoderC builds family C control packets.
type EncoderC struct{}

// Encode implements Encoder.
func (EncoderC) Encode(model *StickModel) []byte {
	st := model.State()

	buf := make([]byte, frameCSize)
	buf[0] = frameCHeader0
	buf[1] = frameCHeader1
	buf[2] = clampByte(st.Roll)
	buf[3] = clampByte(st.Pitch)
	buf[4] = clampByte(st.Throttle)
	buf[5] = clampByte(st.Yaw)

	var flags byte
	if st.Flags.Takeoff {
		flags |= flagCTakeoff
	}
	if st.Flags.Land {
		flags |= flagCSoftLand
	}
	if st.Flags.EmergencyStop {
		flags |= flagCEmergencyStop
	}
	if st.Flags.Flip {
		flags |= flagCFlip
	}
	if st.Flags.Headless {
		flags |= flagCHeadless
	}
	if st.Flags.Calibrate {
		flags |= flagCCalibrate
	}
	buf[6] = flags

	buf[7] = xorChecksum(buf[2:7])
	buf[8] = frameCTrailer

	model.ClearOneShots()
	return buf
}
