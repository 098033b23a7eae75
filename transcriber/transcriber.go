// Package transcriber turns captured audio frames into text. Engines register
// themselves by name and are built from a loose option map, so the
// configuration file can carry engine-specific settings without the rest of
// the program knowing about them.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"earshot/audio"
)

var (
	ErrUnknownEngine = errors.New("transcriber: unknown engine")
	ErrMissingAPIKey = errors.New("transcriber: missing api key")
)

type Transcriber interface {
	Name() string
	// Transcribe returns the text spoken in f, or "" when there is none.
	Transcribe(ctx context.Context, f audio.Frame) (string, error)
	Close() error
}

// Factory builds an engine from its raw options.
type Factory func(opts map[string]any) (Transcriber, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("transcriber: engine registered twice: " + name)
	}
	registry[name] = f
}

// Engines lists the registered engine names in sorted order.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func New(name string, opts map[string]any) (Transcriber, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownEngine, name, Engines())
	}
	t, err := f(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func decodeOptions(opts map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(opts); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	return nil
}

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Segment struct {
	Text         string
	NoSpeechProb float64
	AvgLogProb   float64
	Start        float64
	End          float64
}

// Result is what an HTTP engine got back for one upload.
type Result struct {
	Text         string
	Metrics      *NetworkMetrics
	RateLimit    string
	Confidence   float64
	NoSpeechProb float64
	Duration     float64
	Segments     []Segment
}

// silenceRMS is the level under which a frame is not worth uploading. The
// noise gate zeroes non-speech, so gated silence sits far below it.
const silenceRMS = 64

func isSilent(f audio.Frame) bool {
	if len(f.Samples) == 0 {
		return true
	}
	var sum float64
	for _, s := range f.Samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(f.Samples))) < silenceRMS
}
