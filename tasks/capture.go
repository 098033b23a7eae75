package tasks

import (
	"context"
	"time"

	"earshot/audio"
	"earshot/denoise"
	"earshot/haptic"
	"earshot/keyword"
	"earshot/log"
	"earshot/transcriber"
	"earshot/transcript"
)

const (
	DefaultFrameDuration  = time.Second
	DefaultCaptureIdle    = 10 * time.Millisecond
	DefaultHapticDuration = 300 * time.Millisecond
)

// Capture pulls frames from the microphone, transcribes them and appends
// the text to the shared state.
type Capture struct {
	Source      audio.Source
	Filter      denoise.Filter
	Transcriber transcriber.Transcriber
	Keywords    keyword.Matcher
	Haptic      haptic.Actuator
	State       *transcript.State

	FrameDuration  time.Duration
	HapticDuration time.Duration
	// Idle is the pause between frames that keeps the loop from spinning
	// when the source returns immediately.
	Idle time.Duration
}

func (c *Capture) Name() string { return "capture" }

func (c *Capture) defaults() {
	if c.FrameDuration <= 0 {
		c.FrameDuration = DefaultFrameDuration
	}
	if c.HapticDuration <= 0 {
		c.HapticDuration = DefaultHapticDuration
	}
	if c.Filter == nil {
		c.Filter = denoise.Passthrough{}
	}
	if c.Keywords == nil {
		c.Keywords = keyword.NewSet()
	}
	if c.Haptic == nil {
		c.Haptic = haptic.Noop{}
	}
}

func (c *Capture) Run(ctx context.Context) error {
	c.defaults()
	log.TaskStart(c.Name(), c.FrameDuration)
	defer log.TaskStop(c.Name())

	for ctx.Err() == nil {
		protect(ctx, c.Name(), c.cycle)
		sleep(ctx, c.Idle)
	}
	return nil
}

func (c *Capture) cycle(ctx context.Context) {
	frame, err := c.Source.CaptureFrame(ctx, c.FrameDuration)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.TaskError(c.Name(), "capture", err)
		if frame.Len() == 0 {
			return
		}
	}

	frame = c.Filter.Process(frame)

	text, err := c.Transcriber.Transcribe(ctx, frame)
	if err != nil {
		if ctx.Err() == nil {
			log.TaskError(c.Name(), "transcribe", err)
		}
		return
	}
	if text == "" {
		return
	}

	if c.Keywords.Matches(text) {
		log.Keyword(text)
		if err := c.Haptic.Trigger(c.HapticDuration); err != nil {
			log.TaskError(c.Name(), "haptic", err)
		}
	}
	c.State.Append(text)
	log.TranscriptionText(text)
}
