package haptic

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWaveformLength(t *testing.T) {
	w := waveform(100 * time.Millisecond)
	if len(w) != 800*2 {
		t.Fatalf("len = %d, want 1600", len(w))
	}
	if w[0] != 0 {
		t.Errorf("first sample = %d, want 0 (ramp)", w[0])
	}
	if len(waveform(0)) != 0 {
		t.Error("zero duration should give no samples")
	}
}

func TestGPIOTrigger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	if err := os.WriteFile(path, []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := NewGPIO(path)
	if err != nil {
		t.Fatal(err)
	}
	read := func() string {
		t.Helper()
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}
	if read() != "0" {
		t.Fatal("pin not lowered on open")
	}

	if err := g.Trigger(20 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if read() != "1" {
		t.Fatal("pin not raised")
	}
	deadline := time.Now().Add(2 * time.Second)
	for read() != "0" {
		if time.Now().After(deadline) {
			t.Fatal("pin never lowered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	g.Close()
}

func TestGPIOCloseLowersPin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := New(Options{Backend: "gpio", GPIOPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Trigger(time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if b, _ := os.ReadFile(path); string(b) != "0" {
		t.Errorf("pin = %q after close, want 0", b)
	}
}

func TestNew(t *testing.T) {
	a, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(Noop); !ok {
		t.Errorf("default backend = %T, want Noop", a)
	}
	if _, err := New(Options{Backend: "gpio"}); err == nil {
		t.Error("gpio without path accepted")
	}
	if _, err := New(Options{Backend: "piezo"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestFakeRecords(t *testing.T) {
	f := &Fake{}
	f.Trigger(time.Second)
	f.Trigger(2 * time.Second)
	if got := f.Calls(); len(got) != 2 || got[1] != 2*time.Second {
		t.Fatalf("Calls() = %v", got)
	}
	if f.Closed() {
		t.Fatal("closed before Close")
	}
	f.Close()
	if !f.Closed() {
		t.Error("Close not recorded")
	}
}
