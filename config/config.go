// Package config loads the device configuration: built-in defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "/etc/earshot/earshot.yaml"
	DefaultEnvFile = ".env"
)

type Config struct {
	DeviceID     string             `yaml:"device_id"`
	Log          LogConfig          `yaml:"log"`
	Audio        AudioConfig        `yaml:"audio"`
	Denoise      DenoiseConfig      `yaml:"denoise"`
	Transcriber  TranscriberConfig  `yaml:"transcriber"`
	Keywords     []string           `yaml:"keywords"`
	Haptic       HapticConfig       `yaml:"haptic"`
	Display      DisplayConfig      `yaml:"display"`
	Store        StoreConfig        `yaml:"store"`
	Power        PowerConfig        `yaml:"power"`
	Persist      PersistConfig      `yaml:"persist"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Companion    CompanionConfig    `yaml:"companion"`
	Backup       BackupConfig       `yaml:"backup"`
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

type AudioConfig struct {
	Device string `yaml:"device"`
	// WAV replays a file instead of opening a microphone.
	WAV           string        `yaml:"wav"`
	Realtime      bool          `yaml:"realtime"`
	SampleRate    int           `yaml:"sample_rate"`
	Channels      int           `yaml:"channels"`
	Gain          int           `yaml:"gain"`
	FrameDuration time.Duration `yaml:"frame_duration"`
	Idle          time.Duration `yaml:"idle"`
}

type DenoiseConfig struct {
	Filter  string `yaml:"filter"`
	VADMode int    `yaml:"vad_mode"`
}

type TranscriberConfig struct {
	Engine   string `yaml:"engine"`
	Language string `yaml:"language"`
	// Options are passed to the engine as-is.
	Options map[string]any `yaml:"options"`
}

type HapticConfig struct {
	Backend  string        `yaml:"backend"`
	GPIOPath string        `yaml:"gpio_path"`
	Duration time.Duration `yaml:"duration"`
}

type DisplayConfig struct {
	Backend  string        `yaml:"backend"`
	Columns  int           `yaml:"columns"`
	Lines    int           `yaml:"lines"`
	Interval time.Duration `yaml:"interval"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type PowerConfig struct {
	Source       string        `yaml:"source"`
	CapacityPath string        `yaml:"capacity_path"`
	GovernorGlob string        `yaml:"governor_glob"`
	Interval     time.Duration `yaml:"interval"`
	LowBelow     float64       `yaml:"low_below"`
	NormalAbove  float64       `yaml:"normal_above"`
}

type PersistConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ConnectivityConfig struct {
	NormalInterval time.Duration `yaml:"normal_interval"`
	LowInterval    time.Duration `yaml:"low_interval"`
}

type CompanionConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type BackupConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ConnectionString string `yaml:"connection_string"`
	AccountURL       string `yaml:"account_url"`
	Container        string `yaml:"container"`
}

func Default() *Config {
	host, _ := os.Hostname()
	return &Config{
		DeviceID: host,
		Log:      LogConfig{Level: "info"},
		Audio: AudioConfig{
			SampleRate:    16000,
			Channels:      1,
			Gain:          1,
			FrameDuration: time.Second,
			Idle:          10 * time.Millisecond,
		},
		Denoise:     DenoiseConfig{Filter: "vad", VADMode: 2},
		Transcriber: TranscriberConfig{Engine: "groq"},
		Keywords:    []string{"emergency", "help", "alert"},
		Haptic:      HapticConfig{Backend: "none", Duration: 300 * time.Millisecond},
		Display: DisplayConfig{
			Backend:  "terminal",
			Columns:  21,
			Lines:    8,
			Interval: 100 * time.Millisecond,
		},
		Store: StoreConfig{Path: "/var/lib/earshot/earshot.db"},
		Power: PowerConfig{
			Source:       "sysfs",
			CapacityPath: "/sys/class/power_supply/battery/capacity",
			GovernorGlob: "/sys/devices/system/cpu/cpufreq/policy*/scaling_governor",
			Interval:     60 * time.Second,
			LowBelow:     0.20,
			NormalAbove:  0.30,
		},
		Persist: PersistConfig{Interval: 5 * time.Second},
		Connectivity: ConnectivityConfig{
			NormalInterval: 60 * time.Second,
			LowInterval:    300 * time.Second,
		},
		Backup: BackupConfig{Container: "transcripts"},
	}
}

// Load builds the configuration. path overrides EARSHOT_CONFIG. A missing
// file at the default location is not an error; a missing file that was
// asked for is.
func Load(path string) (*Config, error) {
	envFile := os.Getenv("EARSHOT_ENV_FILE")
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	explicit := true
	if path == "" {
		path = os.Getenv("EARSHOT_CONFIG")
	}
	if path == "" {
		path, explicit = DefaultPath, false
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := map[string]*string{
		"EARSHOT_DEVICE_ID":                &c.DeviceID,
		"EARSHOT_LOG_DIR":                  &c.Log.Dir,
		"EARSHOT_LOG_LEVEL":                &c.Log.Level,
		"EARSHOT_AUDIO_DEVICE":             &c.Audio.Device,
		"EARSHOT_AUDIO_WAV":                &c.Audio.WAV,
		"EARSHOT_DENOISE":                  &c.Denoise.Filter,
		"EARSHOT_ENGINE":                   &c.Transcriber.Engine,
		"EARSHOT_LANGUAGE":                 &c.Transcriber.Language,
		"EARSHOT_HAPTIC":                   &c.Haptic.Backend,
		"EARSHOT_HAPTIC_GPIO":              &c.Haptic.GPIOPath,
		"EARSHOT_DISPLAY":                  &c.Display.Backend,
		"EARSHOT_STORE_PATH":               &c.Store.Path,
		"EARSHOT_POWER_SOURCE":             &c.Power.Source,
		"EARSHOT_BATTERY_PATH":             &c.Power.CapacityPath,
		"EARSHOT_COMPANION_URL":            &c.Companion.URL,
		"EARSHOT_COMPANION_TOKEN":          &c.Companion.Token,
		"EARSHOT_BACKUP_CONNECTION_STRING": &c.Backup.ConnectionString,
		"EARSHOT_BACKUP_ACCOUNT_URL":       &c.Backup.AccountURL,
		"EARSHOT_BACKUP_CONTAINER":         &c.Backup.Container,
	}
	for k, p := range str {
		if v, ok := lookup(k); ok {
			*p = v
		}
	}

	durs := map[string]*time.Duration{
		"EARSHOT_FRAME_DURATION":    &c.Audio.FrameDuration,
		"EARSHOT_PERSIST_INTERVAL":  &c.Persist.Interval,
		"EARSHOT_POWER_INTERVAL":    &c.Power.Interval,
		"EARSHOT_SYNC_INTERVAL":     &c.Connectivity.NormalInterval,
		"EARSHOT_SYNC_INTERVAL_LOW": &c.Connectivity.LowInterval,
		"EARSHOT_DISPLAY_INTERVAL":  &c.Display.Interval,
	}
	for k, p := range durs {
		if v, ok := lookup(k); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*p = d
		}
	}

	if v, ok := lookup("EARSHOT_KEYWORDS"); ok {
		c.Keywords = nil
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.Keywords = append(c.Keywords, k)
			}
		}
	}
	if v, ok := lookup("EARSHOT_BACKUP_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EARSHOT_BACKUP_ENABLED: %w", err)
		}
		c.Backup.Enabled = b
	}
	return nil
}

// Validate reports every impossible setting at once.
func (c *Config) Validate() error {
	var errs []error
	positive := map[string]time.Duration{
		"audio.frame_duration":         c.Audio.FrameDuration,
		"display.interval":             c.Display.Interval,
		"power.interval":               c.Power.Interval,
		"persist.interval":             c.Persist.Interval,
		"connectivity.normal_interval": c.Connectivity.NormalInterval,
		"connectivity.low_interval":    c.Connectivity.LowInterval,
	}
	for name, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.Audio.Idle < 0 {
		errs = append(errs, fmt.Errorf("audio.idle must not be negative"))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive"))
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		errs = append(errs, fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels))
	}
	if c.Power.LowBelow < 0 || c.Power.NormalAbove > 1 || c.Power.LowBelow > c.Power.NormalAbove {
		errs = append(errs, fmt.Errorf("power thresholds out of order: low_below=%.2f normal_above=%.2f",
			c.Power.LowBelow, c.Power.NormalAbove))
	}
	if c.Display.Columns <= 0 || c.Display.Lines <= 0 {
		errs = append(errs, fmt.Errorf("display must have positive columns and lines"))
	}
	if c.Transcriber.Engine == "" {
		errs = append(errs, fmt.Errorf("transcriber.engine is required"))
	}
	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}
	if c.Backup.Enabled && c.Backup.ConnectionString == "" && c.Backup.AccountURL == "" {
		errs = append(errs, fmt.Errorf("backup enabled without connection_string or account_url"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EngineOptions merges the top-level language into the engine options.
func (c *Config) EngineOptions() map[string]any {
	opts := make(map[string]any, len(c.Transcriber.Options)+1)
	for k, v := range c.Transcriber.Options {
		opts[k] = v
	}
	if _, ok := opts["language"]; !ok && c.Transcriber.Language != "" && c.Transcriber.Engine != "fake" {
		opts["language"] = c.Transcriber.Language
	}
	return opts
}
