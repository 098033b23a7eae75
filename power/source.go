package power

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

var ErrLevelRange = errors.New("power: battery level out of range")

type Source interface {
	// BatteryLevel returns the remaining charge as a fraction in [0, 1].
	BatteryLevel() (float64, error)
	SetMode(m Mode) error
}

// Sysfs reads the battery from the kernel power_supply class and applies
// modes by switching the cpufreq governor.
type Sysfs struct {
	// CapacityPath holds an integer percentage, e.g.
	// /sys/class/power_supply/BAT0/capacity.
	CapacityPath string
	// GovernorGlob matches every scaling_governor file to write.
	GovernorGlob string
	Governors    map[Mode]string
}

func NewSysfs(capacityPath, governorGlob string) (*Sysfs, error) {
	if _, err := os.Stat(capacityPath); err != nil {
		return nil, fmt.Errorf("power: %w", err)
	}
	return &Sysfs{
		CapacityPath: capacityPath,
		GovernorGlob: governorGlob,
		Governors: map[Mode]string{
			Normal: "schedutil",
			Low:    "powersave",
		},
	}, nil
}

func (s *Sysfs) BatteryLevel() (float64, error) {
	b, err := os.ReadFile(s.CapacityPath)
	if err != nil {
		return 0, fmt.Errorf("power: read capacity: %w", err)
	}
	pct, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("power: parse capacity: %w", err)
	}
	level := float64(pct) / 100
	if level < 0 || level > 1 {
		return 0, fmt.Errorf("%w: %d%%", ErrLevelRange, pct)
	}
	return level, nil
}

func (s *Sysfs) SetMode(m Mode) error {
	if s.GovernorGlob == "" {
		return nil
	}
	gov, ok := s.Governors[m]
	if !ok {
		return fmt.Errorf("power: no governor for %s", m)
	}
	paths, err := filepath.Glob(s.GovernorGlob)
	if err != nil {
		return fmt.Errorf("power: %w", err)
	}
	var errs []error
	for _, p := range paths {
		if err := os.WriteFile(p, []byte(gov), 0); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fake replays a scripted battery trace. After the trace ends the last level
// repeats.
type Fake struct {
	mu     sync.Mutex
	levels []float64
	errs   []error
	pos    int
	modes  []Mode
	SetErr error
}

// NewFake builds a trace. A nil error at position i means levels[i] is read
// successfully.
func NewFake(levels []float64, errs []error) *Fake {
	return &Fake{levels: levels, errs: errs}
}

func (f *Fake) BatteryLevel() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.levels) == 0 {
		return 1, nil
	}
	i := min(f.pos, len(f.levels)-1)
	f.pos++
	if i < len(f.errs) && f.errs[i] != nil {
		return 0, f.errs[i]
	}
	return f.levels[i], nil
}

func (f *Fake) SetMode(m Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, m)
	return f.SetErr
}

// Modes returns every mode passed to SetMode.
func (f *Fake) Modes() []Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Mode(nil), f.modes...)
}
