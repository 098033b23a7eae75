package tasks

import (
	"errors"
	"slices"
	"testing"

	"earshot/power"
)

func newPower(t *testing.T, src *power.Fake) *Power {
	t.Helper()
	policy, err := power.NewPolicy(power.DefaultLowBelow, power.DefaultNormalAbove)
	if err != nil {
		t.Fatal(err)
	}
	return &Power{Source: src, Policy: policy, Modes: &power.Publisher{}}
}

func TestPowerHysteresisTrace(t *testing.T) {
	levels := []float64{0.5, 0.25, 0.19, 0.25, 0.29, 0.31, 0.21, 0.1}
	want := []power.Mode{
		power.Normal, power.Normal, power.Low, power.Low,
		power.Low, power.Normal, power.Normal, power.Low,
	}
	src := power.NewFake(levels, nil)
	p := newPower(t, src)

	var got []power.Mode
	for range levels {
		p.cycle(t.Context())
		got = append(got, p.Modes.Load())
	}
	if !slices.Equal(got, want) {
		t.Errorf("published modes = %v, want %v", got, want)
	}
	if !slices.Equal(src.Modes(), want) {
		t.Errorf("SetMode calls = %v, want %v", src.Modes(), want)
	}
}

func TestPowerReadErrorKeepsMode(t *testing.T) {
	src := power.NewFake(
		[]float64{0.1, 0, 1.5, 0.5},
		[]error{nil, errors.New("ebusy"), nil, nil},
	)
	p := newPower(t, src)

	p.cycle(t.Context())
	if p.Modes.Load() != power.Low {
		t.Fatalf("mode = %v, want low", p.Modes.Load())
	}

	// read error, then out of range level
	p.cycle(t.Context())
	p.cycle(t.Context())
	if p.Modes.Load() != power.Low {
		t.Fatalf("mode changed on bad reading: %v", p.Modes.Load())
	}
	if n := len(src.Modes()); n != 1 {
		t.Errorf("SetMode calls = %d, want 1", n)
	}

	p.cycle(t.Context())
	if p.Modes.Load() != power.Normal {
		t.Errorf("mode = %v, want normal", p.Modes.Load())
	}
}

func TestPowerSetModeErrorStillPublishes(t *testing.T) {
	src := power.NewFake([]float64{0.05}, nil)
	src.SetErr = errors.New("no governor")
	p := newPower(t, src)

	p.cycle(t.Context())

	if p.Modes.Load() != power.Low {
		t.Errorf("mode = %v, want low", p.Modes.Load())
	}
}
