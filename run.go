package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"earshot/audio"
	"earshot/config"
	"earshot/denoise"
	"earshot/display"
	"earshot/haptic"
	"earshot/keyword"
	"earshot/link"
	"earshot/log"
	"earshot/power"
	"earshot/store"
	"earshot/tasks"
	"earshot/transcriber"
	"earshot/transcript"
)

// app is the wired device. Resources are released in reverse order of
// acquisition.
type app struct {
	state   *transcript.State
	modes   *power.Publisher
	tasks   []tasks.Task
	engine  string
	device  string
	closers []func()
}

func (a *app) onClose(f func()) { a.closers = append(a.closers, f) }

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func build(cfg *config.Config) (_ *app, err error) {
	a := &app{
		state: transcript.New(),
		modes: &power.Publisher{},
	}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	var src audio.Source
	if cfg.Audio.WAV != "" {
		w, err := audio.NewWAVSource(cfg.Audio.WAV, cfg.Audio.Realtime)
		if err != nil {
			return nil, fmt.Errorf("audio: %w", err)
		}
		src, a.device = w, "wav:"+cfg.Audio.WAV
	} else {
		s, err := audio.Open(cfg.Audio.Device, audio.CaptureConfig{
			SampleRate: uint32(cfg.Audio.SampleRate),
			Channels:   uint32(cfg.Audio.Channels),
			Gain:       cfg.Audio.Gain,
		})
		if err != nil {
			return nil, fmt.Errorf("audio: %w", err)
		}
		src, a.device = s, s.DeviceName()
	}
	a.onClose(src.Close)

	filter, err := denoise.New(cfg.Denoise.Filter, cfg.Denoise.VADMode)
	if err != nil {
		return nil, err
	}

	tr, err := transcriber.New(cfg.Transcriber.Engine, cfg.EngineOptions())
	if err != nil {
		return nil, err
	}
	a.engine = tr.Name()
	a.onClose(func() { closeLogged("transcriber", tr.Close) })

	buzz, err := haptic.New(haptic.Options{Backend: cfg.Haptic.Backend, GPIOPath: cfg.Haptic.GPIOPath})
	if err != nil {
		return nil, err
	}
	a.onClose(func() { closeLogged("haptic", buzz.Close) })

	var renderer display.Renderer
	switch cfg.Display.Backend {
	case "", "none":
		renderer = &display.Recorder{}
	case "terminal":
		t, err := display.NewStdout(cfg.Display.Columns, cfg.Display.Lines)
		if err != nil {
			log.Warnf("display disabled: %v", err)
			renderer = &display.Recorder{}
		} else {
			renderer = t
		}
	default:
		return nil, fmt.Errorf("display: unknown backend %q", cfg.Display.Backend)
	}
	a.onClose(func() { closeLogged("display", renderer.Close) })

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { closeLogged("store", db.Close) })

	var battery power.Source
	switch cfg.Power.Source {
	case "", "none":
		battery = power.NewFake(nil, nil)
	case "sysfs":
		s, err := power.NewSysfs(cfg.Power.CapacityPath, cfg.Power.GovernorGlob)
		if err != nil {
			return nil, err
		}
		battery = s
	default:
		return nil, fmt.Errorf("power: unknown source %q", cfg.Power.Source)
	}
	policy, err := power.NewPolicy(cfg.Power.LowBelow, cfg.Power.NormalAbove)
	if err != nil {
		return nil, err
	}

	var short link.ShortRange = link.Disabled{}
	if cfg.Companion.URL != "" {
		c := link.NewCompanion(cfg.Companion.URL, cfg.DeviceID, cfg.Companion.Token)
		a.onClose(func() { closeLogged("companion", c.Close) })
		short = c
	}
	var long link.LongRange = link.Disabled{}
	if cfg.Backup.Enabled {
		b, err := link.NewBackup(link.BackupOptions{
			ConnectionString: cfg.Backup.ConnectionString,
			AccountURL:       cfg.Backup.AccountURL,
			Container:        cfg.Backup.Container,
			Device:           cfg.DeviceID,
		})
		if err != nil {
			return nil, err
		}
		a.onClose(func() { closeLogged("backup", b.Close) })
		long = b
	}

	a.tasks = []tasks.Task{
		&tasks.Capture{
			Source:         src,
			Filter:         filter,
			Transcriber:    tr,
			Keywords:       keyword.NewSet(cfg.Keywords...),
			Haptic:         buzz,
			State:          a.state,
			FrameDuration:  cfg.Audio.FrameDuration,
			HapticDuration: cfg.Haptic.Duration,
			Idle:           cfg.Audio.Idle,
		},
		&tasks.Power{
			Source:   battery,
			Policy:   policy,
			Modes:    a.modes,
			Interval: cfg.Power.Interval,
		},
		&tasks.Persist{
			State:    a.state,
			Store:    db,
			Interval: cfg.Persist.Interval,
		},
		&tasks.Display{
			State:    a.state,
			Renderer: renderer,
			Columns:  cfg.Display.Columns,
			Lines:    cfg.Display.Lines,
			Interval: cfg.Display.Interval,
		},
		&tasks.Connectivity{
			State:          a.state,
			Store:          db,
			Short:          short,
			Long:           long,
			Modes:          a.modes,
			NormalInterval: cfg.Connectivity.NormalInterval,
			LowInterval:    cfg.Connectivity.LowInterval,
		},
	}
	return a, nil
}

// run blocks until ctx is canceled and every task has returned.
func (a *app) run(ctx context.Context) error {
	log.SessionStart(a.engine, a.device)
	defer func() { log.SessionEnd(a.state.Total()) }()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range a.tasks {
		g.Go(func() error {
			if err := t.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", t.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func closeLogged(what string, f func() error) {
	if err := f(); err != nil {
		log.Warnf("close %s: %v", what, err)
	}
}
