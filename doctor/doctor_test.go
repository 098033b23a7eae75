package doctor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"earshot/audio"
	"earshot/config"
)

func TestRunReportsEachCheck(t *testing.T) {
	var out bytes.Buffer
	code := Run(t.Context(), &out, []Check{
		{Name: "ok", Run: func(context.Context) (string, error) { return "fine", nil }},
		{Name: "off", Run: func(context.Context) (string, error) { return "not here", ErrSkipped }},
		{Name: "bad", Run: func(context.Context) (string, error) { return "", errors.New("broken") }},
	})

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	for _, want := range []string{"[1/3] ok", "PASS: fine", "SKIP: not here", "FAIL: broken", "1 check(s) failed"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunAllPass(t *testing.T) {
	var out bytes.Buffer
	code := Run(t.Context(), &out, []Check{
		{Name: "ok", Run: func(context.Context) (string, error) { return "", nil }},
	})
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestChecksWithWAVAndFakeEngine(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "in.wav")
	f := audio.Frame{Samples: make([]int16, 16000), SampleRate: 16000, Channels: 1}
	for i := range f.Samples {
		f.Samples[i] = 1000
	}
	if err := audio.WriteWAV(wav, f); err != nil {
		t.Fatal(err)
	}
	capacity := filepath.Join(dir, "capacity")
	if err := os.WriteFile(capacity, []byte("64\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Audio.WAV = wav
	cfg.Transcriber.Engine = "fake"
	cfg.Transcriber.Options = map[string]any{"script": []any{"testing one two"}}
	cfg.Store.Path = filepath.Join(dir, "earshot.db")
	cfg.Power.CapacityPath = capacity
	cfg.Power.GovernorGlob = filepath.Join(dir, "none*")
	cfg.Display.Backend = "none"

	var out bytes.Buffer
	if code := Run(t.Context(), &out, Checks(cfg)); code != 0 {
		t.Fatalf("exit code = %d:\n%s", code, out.String())
	}
	for _, want := range []string{"rms 1000", "fake", "testing one two", "0 records", "64%", "SKIP: headless"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
}
