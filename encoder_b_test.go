package turbodrone

import (
	"testing"

	"github.com/sigurn/crc16"
)

func TestEncoderBCountersStartAtSpecMandatedValues(t *testing.T) {
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	enc := NewEncoderB(nil)

	buf := enc.Encode(model)
	if got := le16(buf, offB1Counter1); got != 0 {
		t.Errorf("counter1 = %d, want 0", got)
	}
	if got := le16(buf, offB1Counter2); got != 1 {
		t.Errorf("counter2 = %d, want 1", got)
	}
	if got := le16(buf, offB1Counter3); got != 2 {
		t.Errorf("counter3 = %d, want 2", got)
	}
}

func TestEncoderBCountersIncrementEachEncode(t *testing.T) {
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	enc := NewEncoderB(nil)

	enc.Encode(model)
	second := enc.Encode(model)

	if got := le16(second, offB1Counter1); got != 1 {
		t.Errorf("counter1 after second Encode = %d, want 1", got)
	}
	if got := le16(second, offB1Counter2); got != 2 {
		t.Errorf("counter2 after second Encode = %d, want 2", got)
	}
	if got := le16(second, offB1Counter3); got != 3 {
		t.Errorf("counter3 after second Encode = %d, want 3", got)
	}
}

func TestEncoderBCountersWrapAt16Bits(t *testing.T) {
	enc := &EncoderB{c1: 0xFFFF, c2: 0, c3: 1, crcTable: crc16.MakeTable(crc16.CRC16_XMODEM), initialized: true}
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}

	buf := enc.Encode(model)
	if got := le16(buf, offB1Counter1); got != 0xFFFF {
		t.Errorf("counter1 = %#x, want 0xFFFF", got)
	}

	second := enc.Encode(model)
	if got := le16(second, offB1Counter1); got != 0 {
		t.Errorf("counter1 after wraparound = %d, want 0", got)
	}
}

func TestEncoderBChecksumCoversControlBytesOnly(t *testing.T) {
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	model.Takeoff()
	enc := NewEncoderB(nil)

	buf := enc.Encode(model)
	control := buf[offBControl : offBControl+6]
	want := xorChecksum(control)
	if buf[offBChecksum] != want {
		t.Errorf("checksum byte = %#x, want %#x", buf[offBChecksum], want)
	}
}

func TestEncoderBHeaderAndTrailerAreFixed(t *testing.T) {
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	enc := NewEncoderB(nil)
	buf := enc.Encode(model)

	if len(buf) != frameBSize {
		t.Fatalf("len(buf) = %d, want %d", len(buf), frameBSize)
	}
	if buf[0] != 0xAA || buf[1] != 0xAA {
		t.Errorf("header = %#x %#x, want 0xAA 0xAA", buf[0], buf[1])
	}
	if buf[frameBSize-2] != 0x55 || buf[frameBSize-1] != 0x55 {
		t.Errorf("trailer = %#x %#x, want 0x55 0x55", buf[frameBSize-2], buf[frameBSize-1])
	}
}

func TestEncoderBClearsOneShotButNotHeadless(t *testing.T) {
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	model.Takeoff()
	model.ToggleHeadless()
	enc := NewEncoderB(nil)

	first := enc.Encode(model)
	if first[offBControl+4] != cmdBTakeoff {
		t.Errorf("command byte = %#x, want cmdBTakeoff", first[offBControl+4])
	}
	if first[offBControl+5] != headlessBOn {
		t.Errorf("headless byte = %#x, want headlessBOn", first[offBControl+5])
	}

	second := enc.Encode(model)
	if second[offBControl+4] != 0 {
		t.Errorf("command byte after second Encode = %#x, want 0 (one-shot cleared)", second[offBControl+4])
	}
	if second[offBControl+5] != headlessBOn {
		t.Errorf("headless byte after second Encode = %#x, want still headlessBOn (persistent)", second[offBControl+5])
	}
}

func TestEncoderBRecordsDiagnosticCRCOnHealth(t *testing.T) {
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	health := NewLinkHealth()
	enc := NewEncoderB(health)

	buf := enc.Encode(model)
	control := buf[offBControl : offBControl+6]
	want := enc.crcDiagnostic(control)

	if got := health.Snapshot().LastControlCRC; got != want {
		t.Errorf("LinkHealth.LastControlCRC = %#x, want %#x", got, want)
	}
}

func TestEncoderBNilHealthDoesNotPanic(t *testing.T) {
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	enc := NewEncoderB(nil)
	enc.Encode(model) // must not panic
}

func le16(buf []byte, offset int) uint16 {
	return uint16(buf[offset]) | uint16(buf[offset+1])<<8
}
