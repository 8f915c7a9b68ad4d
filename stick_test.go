package turbodrone

import "testing"

func TestNewStickModelDefaultsToMid(t *testing.T) {
	rng := StickRange{Min: 60, Mid: 128, Max: 200}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	st := model.State()
	if st.Throttle != rng.Mid || st.Yaw != rng.Mid || st.Pitch != rng.Mid || st.Roll != rng.Mid {
		t.Errorf("State() = %+v, want every axis at mid %v", st, rng.Mid)
	}
}

func TestNewStickModelRejectsInvalidRange(t *testing.T) {
	_, err := NewStickModel(StickRange{Min: 100, Mid: 50, Max: 200})
	if err == nil {
		t.Fatal("expected an error for min > mid")
	}
}

func TestStickModelOneShotsClearAfterClearOneShots(t *testing.T) {
	model, err := NewStickModel(StickRange{Min: 0, Mid: 128, Max: 255})
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	model.Takeoff()
	model.Land()
	model.EmergencyStop()
	model.Flip(FlipLeft)
	model.Calibrate()

	before := model.State().Flags
	if !before.Takeoff || !before.Land || !before.EmergencyStop || !before.Flip || !before.Calibrate {
		t.Fatalf("expected all one-shots armed before clearing, got %+v", before)
	}
	if before.FlipDir != FlipLeft {
		t.Errorf("FlipDir = %v, want %v", before.FlipDir, FlipLeft)
	}

	model.ClearOneShots()

	after := model.State().Flags
	if after.Takeoff || after.Land || after.EmergencyStop || after.Flip || after.Calibrate {
		t.Errorf("expected one-shots cleared, got %+v", after)
	}
}

func TestStickModelPersistentTogglesSurviveClear(t *testing.T) {
	model, err := NewStickModel(StickRange{Min: 0, Mid: 128, Max: 255})
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	model.ToggleHeadless()
	model.ToggleRecord()
	model.ClearOneShots()

	flags := model.State().Flags
	if !flags.Headless {
		t.Error("expected headless toggle to survive ClearOneShots")
	}
	if !flags.Record {
		t.Error("expected record toggle to survive ClearOneShots")
	}

	model.ToggleHeadless()
	if model.State().Flags.Headless {
		t.Error("expected second ToggleHeadless to flip back off")
	}
}

func TestStickModelSetSensitivityCyclesAndWraps(t *testing.T) {
	model, err := NewStickModel(StickRange{Min: 0, Mid: 128, Max: 255})
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}

	cases := []struct {
		index int
		want  ControlProfile
	}{
		{0, ProfileNormal},
		{1, ProfilePrecise},
		{2, ProfileAggressive},
		{3, ProfileNormal},  // wraps
		{-1, ProfileAggressive}, // wraps negative
	}
	for _, c := range cases {
		model.SetSensitivity(c.index)
		got := model.profile
		if got.Name != c.want.Name {
			t.Errorf("SetSensitivity(%d) = %q, want %q", c.index, got.Name, c.want.Name)
		}
	}
}

func TestStickModelUpdateAdvancesTowardCommandedDirection(t *testing.T) {
	rng := StickRange{Min: 0, Mid: 128, Max: 255}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}

	model.Update(1, AxisInput{Throttle: 1, Yaw: -1, Pitch: 0, Roll: 0})
	st := model.State()

	if st.Throttle <= rng.Mid {
		t.Errorf("Throttle = %v, want it to have advanced above mid %v", st.Throttle, rng.Mid)
	}
	if st.Yaw >= rng.Mid {
		t.Errorf("Yaw = %v, want it to have advanced below mid %v", st.Yaw, rng.Mid)
	}
	if st.Pitch != rng.Mid {
		t.Errorf("Pitch = %v, want unchanged at mid %v (centered input)", st.Pitch, rng.Mid)
	}
	if st.Roll != rng.Mid {
		t.Errorf("Roll = %v, want unchanged at mid %v (centered input)", st.Roll, rng.Mid)
	}
}

func TestStickModelRange(t *testing.T) {
	rng := StickRange{Min: 10, Mid: 20, Max: 30}
	model, err := NewStickModel(rng)
	if err != nil {
		t.Fatalf("NewStickModel: %v", err)
	}
	if got := model.Range(); got != rng {
		t.Errorf("Range() = %+v, want %+v", got, rng)
	}
}
