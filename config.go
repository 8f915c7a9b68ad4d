package turbodrone

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Family identifies one of the three supported vendor radio links.
type Family string

// Supported families.
const (
	FamilyA Family = "A"
	FamilyB Family = "B"
	FamilyC Family = "C"
)

// Valid reports whether f is one of the known families.
func (f Family) Valid() bool {
	switch f {
	case FamilyA, FamilyB, FamilyC:
		return true
	}
	return false
}

// Config holds everything a Supervisor needs to stand up one session:
// aircraft address, ports, scheduler rate and link-health timeouts. Values
// are seeded with per-family defaults (see FamilyDefaults) and may be
// overridden by environment variables (envconfig tags below) or command
// line flags (see cmd/groundstation), in that order of increasing priority.
type Config struct {
	Family Family `envconfig:"TURBODRONE_FAMILY" default:"A"`

	DroneIP     string        `envconfig:"TURBODRONE_DRONE_IP"`
	ControlPort uint16        `envconfig:"TURBODRONE_CONTROL_PORT"`
	VideoPort   uint16        `envconfig:"TURBODRONE_VIDEO_PORT"`
	RateHz      float64       `envconfig:"TURBODRONE_RATE_HZ"`
	KeepAlive   time.Duration `envconfig:"TURBODRONE_KEEPALIVE"`

	WithVideo   bool `envconfig:"TURBODRONE_WITH_VIDEO" default:"false"`
	DumpFrames  bool `envconfig:"TURBODRONE_DUMP_FRAMES" default:"false"`
	DumpPackets bool `envconfig:"TURBODRONE_DUMP_PACKETS" default:"false"`

	// LinkDeadTimeout overrides the per-family default silence period (§4.7)
	// after which the supervisor tears down and rebuilds the video
	// transport. Zero means "use the family default".
	LinkDeadTimeout time.Duration `envconfig:"TURBODRONE_LINK_DEAD_TIMEOUT"`
}

// familyDefaults is the §6.4 defaults table.
type familyDefaults struct {
	droneIP     string
	controlPort uint16
	videoPort   uint16
	rateHz      float64
	keepAlive   time.Duration
	linkDead    time.Duration
	stickRange  StickRange
}

var defaultsByFamily = map[Family]familyDefaults{
	FamilyA: {
		droneIP:     "172.16.10.1",
		controlPort: 8080,
		videoPort:   8888,
		rateHz:      80,
		keepAlive:   2 * time.Second,
		linkDead:    8 * time.Second,
		stickRange:  StickRange{Min: 60, Mid: 128, Max: 200},
	},
	FamilyB: {
		droneIP:     "192.168.169.1",
		controlPort: 8800,
		videoPort:   8800,
		rateHz:      80,
		keepAlive:   0,
		linkDead:    3 * time.Second,
		stickRange:  StickRange{Min: 40, Mid: 128, Max: 220},
	},
	FamilyC: {
		droneIP:     "192.168.1.1",
		controlPort: 7099,
		videoPort:   7070,
		rateHz:      60,
		keepAlive:   1 * time.Second,
		linkDead:    3 * time.Second,
		stickRange:  StickRange{Min: 50, Mid: 128, Max: 200},
	},
}

// FamilyDefaults returns the wire/network defaults for f, per spec §6.4.
func FamilyDefaults(f Family) (familyDefaults, error) {
	d, ok := defaultsByFamily[f]
	if !ok {
		return familyDefaults{}, fmt.Errorf("turbodrone: unknown family %q", f)
	}
	return d, nil
}

// LoadConfig reads a .env file (if present; it is not an error if it is
// absent) and then environment variables into a Config, applying
// per-family defaults for any field left at its zero value.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // optional; a missing .env is not an error

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("turbodrone: loading config: %w", err)
	}
	cfg.applyFamilyDefaults()
	return &cfg, nil
}

// applyFamilyDefaults fills in zero-valued fields from the family's table.
func (c *Config) applyFamilyDefaults() {
	d, ok := defaultsByFamily[c.Family]
	if !ok {
		return
	}
	if c.DroneIP == "" {
		c.DroneIP = d.droneIP
	}
	if c.ControlPort == 0 {
		c.ControlPort = d.controlPort
	}
	if c.VideoPort == 0 {
		c.VideoPort = d.videoPort
	}
	if c.RateHz == 0 {
		c.RateHz = d.rateHz
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = d.keepAlive
	}
	if c.LinkDeadTimeout == 0 {
		c.LinkDeadTimeout = d.linkDead
	}
}

// Validate checks the invariants the CLI surface (§6.1) relies on to decide
// between exit codes 0/1/2: bad arguments are the caller's responsibility
// (exit 1), this only checks internal consistency of the Config.
func (c *Config) Validate() error {
	if !c.Family.Valid() {
		return fmt.Errorf("turbodrone: invalid family %q", c.Family)
	}
	if c.RateHz < 30 || c.RateHz > 100 {
		return fmt.Errorf("turbodrone: rate %gHz out of usable range 30-100Hz", c.RateHz)
	}
	if c.DroneIP == "" {
		return fmt.Errorf("turbodrone: drone IP is required")
	}
	return nil
}
