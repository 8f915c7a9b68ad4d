package turbodrone

import (
	"bytes"
	"testing"
)

func TestBuildJPEGHeaderStartsWithSOI(t *testing.T) {
	hdr := buildJPEGHeader(320, 240, 3)
	if !bytes.HasPrefix(hdr, jpegSOI) {
		t.Fatalf("header does not start with SOI: %x", hdr[:4])
	}
}

func TestBuildJPEGHeaderGrayscaleHasOneDQT(t *testing.T) {
	hdr := buildJPEGHeader(160, 120, 1)
	if n := bytes.Count(hdr, []byte{0xFF, markerDQT}); n != 1 {
		t.Errorf("DQT segment count = %d, want 1 for grayscale", n)
	}
}

func TestBuildJPEGHeaderColorHasTwoDQT(t *testing.T) {
	hdr := buildJPEGHeader(160, 120, 3)
	if n := bytes.Count(hdr, []byte{0xFF, markerDQT}); n != 2 {
		t.Errorf("DQT segment count = %d, want 2 for YCbCr", n)
	}
}

func TestBuildJPEGHeaderEncodesDimensionsInSOF0(t *testing.T) {
	width, height := 640, 480
	hdr := buildJPEGHeader(width, height, 3)

	idx := bytes.Index(hdr, []byte{0xFF, markerSOF0})
	if idx < 0 {
		t.Fatal("no SOF0 marker found")
	}
	// SOF0 payload: FF C0, len(2), precision(1), then height(2), width(2)
	gotHeight := int(hdr[idx+5])<<8 | int(hdr[idx+6])
	gotWidth := int(hdr[idx+7])<<8 | int(hdr[idx+8])
	if gotHeight != height {
		t.Errorf("encoded height = %d, want %d", gotHeight, height)
	}
	if gotWidth != width {
		t.Errorf("encoded width = %d, want %d", gotWidth, width)
	}
	if numComponents := hdr[idx+9]; numComponents != 3 {
		t.Errorf("encoded numComponents = %d, want 3", numComponents)
	}
}

func TestBuildJPEGHeaderEndsWithSOS(t *testing.T) {
	hdr := buildJPEGHeader(320, 240, 3)
	idx := bytes.LastIndex(hdr, []byte{0xFF, markerSOS})
	if idx < 0 {
		t.Fatal("no SOS marker found")
	}
	if idx+14 != len(hdr) {
		t.Errorf("SOS segment does not extend to the end of the header: idx=%d len=%d", idx, len(hdr))
	}
}

func TestBuildJPEGHeaderIsDeterministic(t *testing.T) {
	a := buildJPEGHeader(320, 240, 3)
	b := buildJPEGHeader(320, 240, 3)
	if !bytes.Equal(a, b) {
		t.Error("buildJPEGHeader should be a pure function of its inputs")
	}
}
