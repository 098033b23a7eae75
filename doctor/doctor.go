// Package doctor runs the on-device self test: each check exercises one piece
// of hardware or one remote service with the live configuration.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"earshot/audio"
	"earshot/config"
	"earshot/display"
	"earshot/link"
	"earshot/power"
	"earshot/store"
	"earshot/transcriber"
)

// ErrSkipped marks a check that does not apply to this configuration.
var ErrSkipped = errors.New("skipped")

type Check struct {
	Name string
	// Run returns a one-line detail for the report.
	Run func(ctx context.Context) (string, error)
}

const checkTimeout = 15 * time.Second

// Run executes checks in order and returns an exit code (0=all pass, 1=any fail).
func Run(ctx context.Context, out io.Writer, checks []Check) int {
	fmt.Fprintln(out, "earshot doctor - device self test")
	fmt.Fprintln(out, "=================================")

	failed := 0
	for i, c := range checks {
		fmt.Fprintf(out, "\n[%d/%d] %s\n", i+1, len(checks), c.Name)
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		detail, err := c.Run(cctx)
		cancel()
		switch {
		case errors.Is(err, ErrSkipped):
			fmt.Fprintf(out, "  SKIP: %s\n", detail)
		case err != nil:
			fmt.Fprintf(out, "  FAIL: %v\n", err)
			failed++
		default:
			fmt.Fprintf(out, "  PASS: %s\n", detail)
		}
	}

	fmt.Fprintln(out)
	if failed > 0 {
		fmt.Fprintf(out, "%d check(s) failed. See details above.\n", failed)
		return 1
	}
	fmt.Fprintln(out, "All checks passed!")
	return 0
}

// Checks builds the standard self test for cfg. The microphone check feeds
// the transcription check.
func Checks(cfg *config.Config) []Check {
	var sample audio.Frame
	return []Check{
		{Name: "Microphone", Run: func(ctx context.Context) (string, error) {
			f, detail, err := checkMicrophone(ctx, cfg)
			sample = f
			return detail, err
		}},
		{Name: "Transcription", Run: func(ctx context.Context) (string, error) {
			return checkTranscription(ctx, cfg, sample)
		}},
		{Name: "Storage", Run: func(ctx context.Context) (string, error) {
			return checkStore(cfg.Store.Path)
		}},
		{Name: "Battery", Run: func(ctx context.Context) (string, error) {
			return checkBattery(cfg)
		}},
		{Name: "Display", Run: func(ctx context.Context) (string, error) {
			return checkDisplay(cfg)
		}},
		{Name: "Companion link", Run: func(ctx context.Context) (string, error) {
			return checkCompanion(ctx, cfg)
		}},
		{Name: "Cloud backup", Run: func(ctx context.Context) (string, error) {
			return checkBackup(ctx, cfg)
		}},
	}
}

func checkMicrophone(ctx context.Context, cfg *config.Config) (audio.Frame, string, error) {
	var src audio.Source
	name := cfg.Audio.WAV
	if cfg.Audio.WAV != "" {
		w, err := audio.NewWAVSource(cfg.Audio.WAV, false)
		if err != nil {
			return audio.Frame{}, "", err
		}
		src = w
	} else {
		s, err := audio.Open(cfg.Audio.Device, audio.CaptureConfig{
			SampleRate: uint32(cfg.Audio.SampleRate),
			Channels:   uint32(cfg.Audio.Channels),
			Gain:       cfg.Audio.Gain,
		})
		if err != nil {
			return audio.Frame{}, "", fmt.Errorf("cannot open capture device: %w", err)
		}
		src, name = s, s.DeviceName()
	}
	defer src.Close()

	f, err := src.CaptureFrame(ctx, cfg.Audio.FrameDuration)
	if err != nil {
		return f, "", fmt.Errorf("capture from %s: %w", name, err)
	}
	if f.Len() == 0 {
		return f, "", errors.New("no audio captured")
	}
	return f, fmt.Sprintf("%s: %v of audio, rms %.0f", name, f.Duration(), rms(f)), nil
}

func checkTranscription(ctx context.Context, cfg *config.Config, f audio.Frame) (string, error) {
	if f.Len() == 0 {
		return "no audio from the microphone check", ErrSkipped
	}
	tr, err := transcriber.New(cfg.Transcriber.Engine, cfg.EngineOptions())
	if err != nil {
		return "", err
	}
	defer tr.Close()

	start := time.Now()
	text, err := tr.Transcribe(ctx, f)
	if err != nil {
		return "", err
	}
	if text == "" {
		text = "(no speech detected)"
	}
	return fmt.Sprintf("%s in %v: %s", tr.Name(), time.Since(start).Round(time.Millisecond), text), nil
}

func checkStore(path string) (string, error) {
	db, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()
	total, unsynced, err := db.Stats()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %d records, %d not backed up", path, total, unsynced), nil
}

func checkBattery(cfg *config.Config) (string, error) {
	if cfg.Power.Source != "sysfs" {
		return "no battery source configured", ErrSkipped
	}
	s, err := power.NewSysfs(cfg.Power.CapacityPath, cfg.Power.GovernorGlob)
	if err != nil {
		return "", err
	}
	level, err := s.BatteryLevel()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.0f%%", level*100), nil
}

func checkDisplay(cfg *config.Config) (string, error) {
	if cfg.Display.Backend != "terminal" {
		return "headless", ErrSkipped
	}
	if _, err := display.NewStdout(cfg.Display.Columns, cfg.Display.Lines); err != nil {
		return "", err
	}
	return fmt.Sprintf("%dx%d panel", cfg.Display.Columns, cfg.Display.Lines), nil
}

func checkCompanion(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Companion.URL == "" {
		return "no companion configured", ErrSkipped
	}
	c := link.NewCompanion(cfg.Companion.URL, cfg.DeviceID, cfg.Companion.Token)
	defer c.Close()
	if !c.IsConnected(ctx) {
		return "", fmt.Errorf("%s: %w", cfg.Companion.URL, link.ErrNotConnected)
	}
	return cfg.Companion.URL, nil
}

func checkBackup(ctx context.Context, cfg *config.Config) (string, error) {
	if !cfg.Backup.Enabled {
		return "backup disabled", ErrSkipped
	}
	b, err := link.NewBackup(link.BackupOptions{
		ConnectionString: cfg.Backup.ConnectionString,
		AccountURL:       cfg.Backup.AccountURL,
		Container:        cfg.Backup.Container,
		Device:           cfg.DeviceID,
	})
	if err != nil {
		return "", err
	}
	defer b.Close()
	if !b.IsConnected(ctx) {
		return "", fmt.Errorf("container %s: %w", cfg.Backup.Container, link.ErrNotConnected)
	}
	return "container " + cfg.Backup.Container, nil
}

func rms(f audio.Frame) float64 {
	if f.Len() == 0 {
		return 0
	}
	var sum float64
	for _, s := range f.Samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(f.Len()))
}
