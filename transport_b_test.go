package turbodrone

import (
	"net"
	"testing"
)

func TestParseFrameBDatagram(t *testing.T) {
	datagram := make([]byte, 16+4)
	datagram[12], datagram[13] = 0x05, 0x00 // frame id 5, little endian
	datagram[14] = 0x02                     // fragment index 2
	datagram[15] = 0x01                     // not the notLastMarker -> isLast=true
	copy(datagram[16:], []byte{0xAA, 0xBB, 0xCC, 0xDD})

	frameID, fragIdx, isLast, payload, ok := parseFrameBDatagram(datagram)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if frameID != 5 {
		t.Errorf("frameID = %d, want 5", frameID)
	}
	if fragIdx != 2 {
		t.Errorf("fragIdx = %d, want 2", fragIdx)
	}
	if !isLast {
		t.Error("isLast = false, want true")
	}
	want := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	if string(payload) != string(want) {
		t.Errorf("payload = %x, want %x", payload, want)
	}
}

func TestParseFrameBDatagramNotLastMarker(t *testing.T) {
	datagram := make([]byte, 16)
	datagram[15] = notLastMarker
	_, _, isLast, _, ok := parseFrameBDatagram(datagram)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if isLast {
		t.Error("isLast = true, want false when byte 15 is the notLastMarker sentinel")
	}
}

func TestParseFrameBDatagramTooShort(t *testing.T) {
	if _, _, _, _, ok := parseFrameBDatagram(make([]byte, 10)); ok {
		t.Error("expected ok=false for a datagram shorter than the 16-byte header")
	}
}

func TestTransportBSendRequestAPatchesFrameID(t *testing.T) {
	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer serverConn.Close()

	clientConn, err := net.DialUDP("udp", nil, serverConn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer clientConn.Close()

	tr := &TransportB{conn: clientConn}
	if err := tr.sendRequestA(0x0102); err != nil {
		t.Fatalf("sendRequestA: %v", err)
	}

	buf := make([]byte, requestASize+16)
	n, _, err := serverConn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	if n != requestASize {
		t.Fatalf("received %d bytes, want %d", n, requestASize)
	}
	if buf[0] != 0xA5 || buf[1] != 0xA5 {
		t.Errorf("header = %#x %#x, want 0xA5 0xA5 (REQUEST_A)", buf[0], buf[1])
	}
	if got := le16(buf, 12); got != 0x0102 {
		t.Errorf("patched frame id = %#x, want 0x0102", got)
	}
}

func TestTransportBSendRequestBPatchesAllThreeCopies(t *testing.T) {
	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer serverConn.Close()

	clientConn, err := net.DialUDP("udp", nil, serverConn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer clientConn.Close()

	tr := &TransportB{conn: clientConn}
	if err := tr.sendRequestB(0x0042); err != nil {
		t.Fatalf("sendRequestB: %v", err)
	}

	buf := make([]byte, requestBSize+16)
	n, _, err := serverConn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	if n != requestBSize {
		t.Fatalf("received %d bytes, want %d", n, requestBSize)
	}
	if buf[0] != 0xA5 || buf[1] != 0xA6 {
		t.Errorf("header = %#x %#x, want 0xA5 0xA6 (REQUEST_B)", buf[0], buf[1])
	}
	for _, offset := range []int{12, 88, 107} {
		if got := le16(buf, offset); got != 0x0042 {
			t.Errorf("patched frame id at offset %d = %#x, want 0x0042", offset, got)
		}
	}
}

func TestTransportBSendWithNilBrokerIsNoOp(t *testing.T) {
	tr := &TransportB{}
	tr.Send([]byte{1, 2, 3}) // must not panic
}

func TestTransportBCloseBeforeConnectIsSafe(t *testing.T) {
	tr := &TransportB{}
	if err := tr.Close(); err != nil {
		t.Errorf("Close() on an unconnected transport returned %v, want nil", err)
	}
}

func TestTransportBWatchdogEmitsExactlyTwoDatagramsPerFrame(t *testing.T) {
	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer serverConn.Close()

	clientConn, err := net.DialUDP("udp", nil, serverConn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer clientConn.Close()

	tr := &TransportB{conn: clientConn, stopChan: make(chan struct{}), health: NewLinkHealth()}
	reasm := NewReassemblerB(64, 48, 3, nil)
	queue := NewFrameQueue(2, nil)
	go tr.watchdogLoop(reasm, queue)
	defer close(tr.stopChan)

	buf := make([]byte, requestBSize+16)

	n, _, err := serverConn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP (REQUEST_A): %v", err)
	}
	if n != requestASize || buf[0] != 0xA5 || buf[1] != 0xA5 {
		t.Fatalf("first datagram = %x, want a %d-byte REQUEST_A", buf[:n], requestASize)
	}

	n, _, err = serverConn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP (REQUEST_B): %v", err)
	}
	if n != requestBSize || buf[0] != 0xA5 || buf[1] != 0xA6 {
		t.Fatalf("second datagram = %x, want a %d-byte REQUEST_B", buf[:n], requestBSize)
	}
}
