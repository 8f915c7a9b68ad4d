// transport_c.go - family C RTSP video and UDP control transport.

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
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

const (
	frameTimeoutC  = 5 * time.Second
	maxReopensC    = 10
	reopenBackoffC = 2 * time.Second
	heartbeatC_    = 1 * time.Second
	jpegQualityC   = 85
)

// TransportC receives family C's video over RTSP (decoded by an external
// ffmpeg-compatible backend and re-encoded to JPEG, since the aircraft's
// native codec is out of scope - see non-goals) and sends control packets
// and a standalone heartbeat over a separate UDP socket.
type TransportC struct {
	ctrlConn *net.UDPConn

	mu        sync.Mutex
	cancel    context.CancelFunc
	stopChan  chan struct{}
	closeOnce sync.Once

	health *LinkHealth
}

// NewTransportC returns an unconnected family C transport. health may be
// nil.
func NewTransportC(health *LinkHealth) *TransportC {
	return &TransportC{health: health}
}

// Connect dials the control socket, starts the heartbeat loop and, if
// video is requested, starts the RTSP decode pipeline feeding reasm.
func (t *TransportC) Connect(cfg *Config, reasm *ReassemblerC, frames *FrameQueue) error {
	ctrlAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.DroneIP, strconv.Itoa(int(cfg.ControlPort))))
	if err != nil {
		return fmt.Errorf("turbodrone: resolving family C control addr: %w", err)
	}
	t.ctrlConn, err = net.DialUDP("udp", nil, ctrlAddr)
	if err != nil {
		return fmt.Errorf("turbodrone: dialing family C control socket: %w", err)
	}

	t.stopChan = make(chan struct{})
	go t.heartbeatLoop()

	if cfg.WithVideo {
		ctx, cancel := context.WithCancel(context.Background())
		t.cancel = cancel
		rtspURL := fmt.Sprintf("rtsp://%s:%d/webcam", cfg.DroneIP, cfg.VideoPort)
		go t.runVideoLoop(ctx, rtspURL, reasm, frames)
	}
	return nil
}

// Send writes one control packet.
func (t *TransportC) Send(pkt []byte) {
	if t.ctrlConn == nil {
		return
	}
	if _, err := t.ctrlConn.Write(pkt); err != nil {
		Log.WithError(err).Debug("turbodrone: family C control send failed")
	}
}

// heartbeatLoop resends family C's standalone keep-alive datagram every
// second, independent of the control scheduler's rate (§4.3, §4.6).
func (t *TransportC) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatC_)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			if _, err := t.ctrlConn.Write(heartbeatC); err != nil {
				Log.WithError(err).Debug("turbodrone: family C heartbeat send failed")
			}
		}
	}
}

// runVideoLoop spawns the RTSP decode backend and restarts it, with
// backoff, up to maxReopensC times if it exits or goes quiet for
// frameTimeoutC.
func (t *TransportC) runVideoLoop(ctx context.Context, rtspURL string, reasm *ReassemblerC, frames *FrameQueue) {
	for attempt := 0; attempt < maxReopensC; attempt++ {
		if ctx.Err() != nil {
			return
		}
		if err := t.runVideoOnce(ctx, rtspURL, reasm, frames); err != nil {
			Log.WithError(err).WithField("attempt", attempt+1).Debug("turbodrone: family C video backend exited")
			t.health.recordReconnect()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reopenBackoffC):
		}
	}
	Log.WithField("max_reopens", maxReopensC).Warn("turbodrone: family C video backend exhausted reopen attempts")
}

// runVideoOnce runs one instance of the decode backend: ffmpeg reads the
// RTSP stream, re-encodes to an MJPEG byte stream on stdout at
// jpegQualityC, which is split into individual JPEG frames and handed to
// reasm. It returns when the process exits or frameTimeoutC elapses with
// no frame observed.
func (t *TransportC) runVideoOnce(ctx context.Context, rtspURL string, reasm *ReassemblerC, frames *FrameQueue) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "ffmpeg",
		"-rtsp_transport", "tcp",
		"-i", rtspURL,
		"-c:v", "mjpeg", "-q:v", strconv.Itoa(jpegQualityC),
		"-f", "image2pipe", "-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("turbodrone: family C ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("turbodrone: family C ffmpeg start: %w", err)
	}

	lastFrame := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() { done <- splitJPEGFramesC(stdout, reasm, frames, lastFrame) }()

	timer := time.NewTimer(frameTimeoutC)
	defer timer.Stop()
	for {
		select {
		case err := <-done:
			cmd.Wait()
			return err
		case <-lastFrame:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(frameTimeoutC)
		case <-timer.C:
			cancel()
			cmd.Wait()
			return fmt.Errorf("turbodrone: family C video went silent for %s", frameTimeoutC)
		case <-runCtx.Done():
			cmd.Wait()
			return runCtx.Err()
		}
	}
}

// splitJPEGFramesC reads a concatenated MJPEG stream from r, delimited by
// FF D8 ... FF D9, and publishes each complete frame through reasm onto
// frames, pinging activity on each one.
func splitJPEGFramesC(r io.Reader, reasm *ReassemblerC, frames *FrameQueue, activity chan<- struct{}) error {
	br := bufio.NewReaderSize(r, 256*1024)
	var frame []byte
	inFrame := false

	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if !inFrame {
			if b == jpegSOI[0] {
				next, err := br.ReadByte()
				if err != nil {
					return err
				}
				if next == jpegSOI[1] {
					frame = append([]byte{}, jpegSOI...)
					inFrame = true
				}
			}
			continue
		}
		frame = append(frame, b)
		if len(frame) >= 4 && frame[len(frame)-2] == jpegEOI[0] && frame[len(frame)-1] == jpegEOI[1] {
			data := frame
			frame = nil
			inFrame = false

			select {
			case activity <- struct{}{}:
			default:
			}

			if out, emit := reasm.Ingest(data); emit {
					frames.Put(out)
			}
		}
	}
}

// Close stops the heartbeat and video loops and closes the control
// socket.
func (t *TransportC) Close() error {
	t.closeOnce.Do(func() {
		if t.stopChan != nil {
			close(t.stopChan)
		}
		if t.cancel != nil {
			t.cancel()
		}
	})
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctrlConn == nil {
		return nil
	}
	return t.ctrlConn.Close()
}
