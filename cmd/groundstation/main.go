// Command groundstation flies a consumer WiFi quadcopter from the
// command line: it loads a Config, stands up a Supervisor for the
// configured family, and runs until interrupted.

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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"

	"github.com/marshallrichards/turbodrone"
)

const (
	exitOK              = 0
	exitBadArgs         = 1
	exitTransportFailed = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := turbodrone.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadArgs
	}

	family := flag.String("family", string(cfg.Family), "radio link family: A, B or C")
	droneIP := flag.String("drone-ip", cfg.DroneIP, "aircraft IP address")
	controlPort := flag.Uint("control-port", uint(cfg.ControlPort), "control UDP port")
	videoPort := flag.Uint("video-port", uint(cfg.VideoPort), "video UDP port")
	rateHz := flag.Float64("rate", cfg.RateHz, "control loop rate in Hz")
	withVideo := flag.Bool("with-video", cfg.WithVideo, "receive and decode video")
	dumpFrames := flag.Bool("dump-frames", cfg.DumpFrames, "log every completed video frame")
	dumpPackets := flag.Bool("dump-packets", cfg.DumpPackets, "log every wire packet sent")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	turbodrone.SetDebug(*debug)

	cfg.Family = turbodrone.Family(*family)
	cfg.DroneIP = *droneIP
	cfg.ControlPort = uint16(*controlPort)
	cfg.VideoPort = uint16(*videoPort)
	cfg.RateHz = *rateHz
	cfg.WithVideo = *withVideo
	cfg.DumpFrames = *dumpFrames
	cfg.DumpPackets = *dumpPackets

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadArgs
	}

	axes := turbodrone.NewAxisMux()
	supervisor, err := turbodrone.NewSupervisor(cfg, axes)
	if err != nil {
		log.WithError(err).Error("turbodrone: building supervisor")
		return exitBadArgs
	}

	if err := supervisor.Start(); err != nil {
		log.WithError(err).Error("turbodrone: starting session")
		return exitTransportFailed
	}
	defer supervisor.Stop()

	log.WithField("family", cfg.Family).
		WithField("drone_ip", cfg.DroneIP).
		WithField("rate_hz", cfg.RateHz).
		Info("turbodrone: session running")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.DumpFrames {
		go dumpFrameLoop(ctx, supervisor)
	}

	<-ctx.Done()
	log.Info("turbodrone: shutting down")
	return exitOK
}

// dumpFrameLoop logs a line for every completed video frame, for
// --dump-frames debugging sessions.
func dumpFrameLoop(ctx context.Context, s *turbodrone.Supervisor) {
	for {
		frame, ok := s.Frames().Get(500 * time.Millisecond)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		log.WithField("frame_id", frame.FrameID).
			WithField("bytes", len(frame.Data)).
			Info("turbodrone: frame received")
	}
}
