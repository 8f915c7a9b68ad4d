package turbodrone

import (
	"os"
	"testing"
)

func TestFamilyValid(t *testing.T) {
	cases := []struct {
		f    Family
		want bool
	}{
		{FamilyA, true},
		{FamilyB, true},
		{FamilyC, true},
		{Family("D"), false},
		{Family(""), false},
	}
	for _, c := range cases {
		if got := c.f.Valid(); got != c.want {
			t.Errorf("Family(%q).Valid() = %v, want %v", c.f, got, c.want)
		}
	}
}

func TestFamilyDefaultsUnknownFamily(t *testing.T) {
	if _, err := FamilyDefaults(Family("Z")); err == nil {
		t.Fatal("expected an error for an unknown family")
	}
}

func TestApplyFamilyDefaultsFillsZeroFields(t *testing.T) {
	cfg := &Config{Family: FamilyA}
	cfg.applyFamilyDefaults()

	want, _ := FamilyDefaults(FamilyA)
	if cfg.DroneIP != want.droneIP {
		t.Errorf("DroneIP = %q, want %q", cfg.DroneIP, want.droneIP)
	}
	if cfg.ControlPort != want.controlPort {
		t.Errorf("ControlPort = %d, want %d", cfg.ControlPort, want.controlPort)
	}
	if cfg.RateHz != want.rateHz {
		t.Errorf("RateHz = %v, want %v", cfg.RateHz, want.rateHz)
	}
	if cfg.LinkDeadTimeout != want.linkDead {
		t.Errorf("LinkDeadTimeout = %v, want %v", cfg.LinkDeadTimeout, want.linkDead)
	}
}

func TestApplyFamilyDefaultsDoesNotOverrideSetFields(t *testing.T) {
	cfg := &Config{Family: FamilyA, DroneIP: "10.0.0.5", RateHz: 45}
	cfg.applyFamilyDefaults()

	if cfg.DroneIP != "10.0.0.5" {
		t.Errorf("DroneIP = %q, want unchanged 10.0.0.5", cfg.DroneIP)
	}
	if cfg.RateHz != 45 {
		t.Errorf("RateHz = %v, want unchanged 45", cfg.RateHz)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Family: FamilyA, DroneIP: "1.2.3.4", RateHz: 80}, false},
		{"bad family", Config{Family: Family("Z"), DroneIP: "1.2.3.4", RateHz: 80}, true},
		{"rate too low", Config{Family: FamilyA, DroneIP: "1.2.3.4", RateHz: 10}, true},
		{"rate too high", Config{Family: FamilyA, DroneIP: "1.2.3.4", RateHz: 200}, true},
		{"missing drone ip", Config{Family: FamilyA, RateHz: 80}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if (err != nil) != c.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestLoadConfigAppliesEnvAndFamilyDefaults(t *testing.T) {
	t.Setenv("TURBODRONE_FAMILY", "C")
	t.Setenv("TURBODRONE_DRONE_IP", "")
	t.Setenv("TURBODRONE_RATE_HZ", "")
	// t.Setenv restores the original value afterwards; unset it so envconfig
	// sees the variable as absent, since it rejects an empty numeric value.
	os.Unsetenv("TURBODRONE_RATE_HZ")
	t.Setenv("TURBODRONE_WITH_VIDEO", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Family != FamilyC {
		t.Errorf("Family = %q, want %q", cfg.Family, FamilyC)
	}
	want, _ := FamilyDefaults(FamilyC)
	if cfg.DroneIP != want.droneIP {
		t.Errorf("DroneIP = %q, want %q (family default)", cfg.DroneIP, want.droneIP)
	}
	if cfg.RateHz != want.rateHz {
		t.Errorf("RateHz = %v, want %v (family default)", cfg.RateHz, want.rateHz)
	}
	if !cfg.WithVideo {
		t.Error("WithVideo = false, want true from env")
	}
}

func TestFamilyDefaultsTableInvariants(t *testing.T) {
	for _, f := range []Family{FamilyA, FamilyB, FamilyC} {
		d, err := FamilyDefaults(f)
		if err != nil {
			t.Fatalf("FamilyDefaults(%q): %v", f, err)
		}
		if err := d.stickRange.Validate(); err != nil {
			t.Errorf("family %q stick range invalid: %v", f, err)
		}
		if d.rateHz < 30 || d.rateHz > 100 {
			t.Errorf("family %q default rate %v out of usable range", f, d.rateHz)
		}
		if d.linkDead <= 0 {
			t.Errorf("family %q linkDead = %v, want > 0", f, d.linkDead)
		}
	}
}
