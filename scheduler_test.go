package turbodrone

import (
	"sync"
	"testing"
	"time"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent [][]byte
}

func (f *fakeTransport) Send(pkt []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), pkt...)
	f.sent = append(f.sent, cp)
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestScheduler(t *testing.T, rateHz float64) (*Scheduler, *fakeTransport) {
	t.Helper()
	model, err := NewStickModel(StickRange{Min: 0, Mid: 128, Max: 255})
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	transport := &fakeTransport{}
	axes := NewAxisMux()
	s := NewScheduler(model, EncoderC{}, transport, axes, rateHz)
	return s, transport
}

func TestSchedulerSendsAtConfiguredRate(t *testing.T) {
	s, transport := newTestScheduler(t, 100) // 10ms period
	s.Start()
	defer s.Stop()

	time.Sleep(120 * time.Millisecond)

	if got := transport.count(); got < 5 {
		t.Errorf("sent %d packets in 120ms at 100Hz, want at least 5", got)
	}
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	s, transport := newTestScheduler(t, 100)
	s.Start()
	s.Start() // should not spawn a second loop
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	first := transport.count()
	time.Sleep(50 * time.Millisecond)
	second := transport.count()

	// A second concurrent loop would roughly double the rate; a generous
	// bound (3x the single-loop increment) catches a duplicate loop
	// without being sensitive to scheduling jitter.
	if increment := second - first; increment > 3*first+5 {
		t.Errorf("packet rate increment %d suggests Start spawned a second loop (baseline %d)", increment, first)
	}
}

func TestSchedulerStopWithoutStartIsSafe(t *testing.T) {
	s, _ := newTestScheduler(t, 80)
	s.Stop() // must not panic or block
}

func TestSchedulerDumpPacketsDoesNotBreakSending(t *testing.T) {
	s, transport := newTestScheduler(t, 100)
	s.SetDumpPackets(true)
	s.Start()
	defer s.Stop()

	time.Sleep(60 * time.Millisecond)
	if transport.count() == 0 {
		t.Error("expected packets to still be sent with dump-packets logging enabled")
	}
}

func TestSchedulerSetTransportSwapsLiveTarget(t *testing.T) {
	s, first := newTestScheduler(t, 100)
	s.Start()
	defer s.Stop()

	time.Sleep(30 * time.Millisecond)
	second := &fakeTransport{}
	s.setTransport(second)
	time.Sleep(30 * time.Millisecond)

	if first.count() == 0 {
		t.Error("expected the first transport to have received packets before the swap")
	}
	if second.count() == 0 {
		t.Error("expected the second transport to have received packets after the swap")
	}
}
