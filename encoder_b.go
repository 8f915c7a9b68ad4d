// encoder_b.go - family B control packet encoding.

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

	"github.com/sigurn/crc16"
)

// Family B's 128-byte control frame carries three little-endian 16-bit
// rolling counters and six control bytes [roll, pitch, throttle, yaw,
// command, headless] protected by a single XOR checksum. Everything else
// in the frame is a fixed header/suffix byte, constant across packets.
//
// Offsets below are turbodrone's own layout, not a vendor-confirmed one
// (the vendor protocol is undocumented; see DESIGN.md).
const (
	frameBSize = 128

	offB1Counter1 = 10
	offB1Counter2 = 40
	offB1Counter3 = 90

	offBControl   = 60 // roll,pitch,throttle,yaw,command,headless
	offBChecksum  = 66

	cmdBTakeoff   = 0x01
	cmdBStopLand  = 0x02
	cmdBCalibrate = 0x04

	headlessBOn  = 0x03
	headlessBOff = 0x02
)

var frameBTemplate = func() []byte {
	b := make([]byte, frameBSize)
	b[0], b[1] = 0xAA, 0xAA
	b[frameBSize-2], b[frameBSize-1] = 0x55, 0x55
	return b
}()

// EncoderB builds family B control packets. Unlike the stateless family A
// and C encoders, it carries the three rolling counters the wire format
// requires, so it is not a pure function of the model alone - it must be
// reused across ticks rather than constructed fresh each time.
type EncoderB struct {
	mu          sync.Mutex
	c1, c2, c3  uint16
	crcTable    *crc16.Table
	initialized bool

	health *LinkHealth
}

// NewEncoderB returns a family B encoder with counters seeded at their
// spec-mandated initial values (0, 1, 2). health may be nil; if set, every
// encoded packet's diagnostic CRC is recorded onto it.
func NewEncoderB(health *LinkHealth) *EncoderB {
	return &EncoderB{c1: 0, c2: 1, c3: 2, crcTable: crc16.MakeTable(crc16.CRC16_XMODEM), initialized: true, health: health}
}

// Encode implements Encoder.
func (e *EncoderB) Encode(model *StickModel) []byte {
	st := model.State()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		e.c1, e.c2, e.c3 = 0, 1, 2
		e.crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)
		e.initialized = true
	}

	buf := make([]byte, frameBSize)
	copy(buf, frameBTemplate)

	putLE16(buf, offB1Counter1, e.c1)
	putLE16(buf, offB1Counter2, e.c2)
	putLE16(buf, offB1Counter3, e.c3)

	control := buf[offBControl : offBControl+6]
	control[0] = clampByte(st.Roll)
	control[1] = clampByte(st.Pitch)
	control[2] = clampByte(st.Throttle)
	control[3] = clampByte(st.Yaw)

	var command byte
	switch {
	case st.Flags.Takeoff:
		command = cmdBTakeoff
	case st.Flags.EmergencyStop || st.Flags.Land:
		command = cmdBStopLand
	case st.Flags.Calibrate:
		command = cmdBCalibrate
	}
	control[4] = command

	if st.Flags.Headless {
		control[5] = headlessBOn
	} else {
		control[5] = headlessBOff
	}

	buf[offBChecksum] = xorChecksum(control)
	e.health.recordControlCRC(e.crcDiagnosticLocked(control))

	e.c1++
	e.c2++
	e.c3++

	model.ClearOneShots()
	return buf
}

// crcDiagnostic returns an additional CRC16/XMODEM over the six control
// bytes, layered on top of the mandatory XOR checksum purely as a
// diagnostic recorded in LinkHealth metadata - it is never placed on the
// wire and never affects what is sent to the aircraft.
func (e *EncoderB) crcDiagnostic(control []byte) uint16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.crcDiagnosticLocked(control)
}

// crcDiagnosticLocked is crcDiagnostic's body for callers already holding
// e.mu, such as Encode.
func (e *EncoderB) crcDiagnosticLocked(control []byte) uint16 {
	return crc16.Checksum(control, e.crcTable)
}

func putLE16(buf []byte, offset int, v uint16) {
	buf[offset] = byte(v)
	buf[offset+1] = byte(v >> 8)
}
