// encoder_a.go - family A control packet encoding.

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

// Family A's 20-byte control frame:
//
//	[0x66, speed, roll', pitch', throttle', yaw', flags6, flags7, 10x0x00, xor, 0x99]
//
// roll'/pitch'/throttle'/yaw' are the raw stick values remapped linearly to
// full 0..255 (see remapToByte). The checksum is the XOR of bytes 2..17
// inclusive (the four axis bytes, the two flag bytes and the ten padding
// bytes).
const (
	frameAHeader   = 0x66
	frameATrailer  = 0x99
	frameASize     = 20
	frameASpeedDef = 0x14 // fixed cruise-speed byte observed on the wire; no known user-facing control

	flagA6Takeoff = 0x01
	flagA6Land    = 0x02
	flagA6Stop    = 0x04

	flagA7Base   = 0x0A
	flagA7Record = 0x04
)

// EncoderA builds family A control packets.
type EncoderA struct{}

// Encode implements Encoder.
func (EncoderA) Encode(model *StickModel) []byte {
	st := model.State()
	rng := model.Range()

	buf := make([]byte, frameASize)
	buf[0] = frameAHeader
	buf[1] = frameASpeedDef
	buf[2] = remapToByte(st.Roll, rng)
	buf[3] = remapToByte(st.Pitch, rng)
	buf[4] = remapToByte(st.Throttle, rng)
	buf[5] = remapToByte(st.Yaw, rng)

	var flags6 byte
	if st.Flags.Takeoff {
		flags6 |= flagA6Takeoff
	}
	if st.Flags.Land {
		flags6 |= flagA6Land
	}
	if st.Flags.EmergencyStop {
		flags6 |= flagA6Stop
	}
	buf[6] = flags6

	flags7 := byte(flagA7Base)
	if st.Flags.Record {
		flags7 |= flagA7Record
	}
	buf[7] = flags7

	// bytes[8:18] are reserved and always zero.

	buf[18] = xorChecksum(buf[2:18])
	buf[19] = frameATrailer

	model.ClearOneShots()
	return buf
}
