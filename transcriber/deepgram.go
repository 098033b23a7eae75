package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"earshot/audio"
	"earshot/encoder"
	"earshot/log"
)

func init() {
	Register("deepgram", func(opts map[string]any) (Transcriber, error) {
		var o DeepgramOptions
		if err := decodeOptions(opts, &o); err != nil {
			return nil, err
		}
		return NewDeepgram(o)
	})
}

type DeepgramOptions struct {
	APIKey   string        `mapstructure:"api_key"`
	URL      string        `mapstructure:"url"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// MinConfidence drops transcripts the model is unsure about.
	MinConfidence float64 `mapstructure:"min_confidence"`
}

type Deepgram struct {
	client   *TracedClient
	endpoint string
	opts     DeepgramOptions
}

func NewDeepgram(o DeepgramOptions) (*Deepgram, error) {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("DEEPGRAM_API_KEY")
	}
	if o.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if o.URL == "" {
		o.URL = "https://api.deepgram.com/v1/listen"
	}
	if o.Model == "" {
		o.Model = "nova-3"
	}
	if o.Language == "" {
		o.Language = "en"
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}

	u, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("deepgram url: %w", err)
	}
	q := u.Query()
	q.Set("model", o.Model)
	q.Set("language", o.Language)
	q.Set("smart_format", "true")
	u.RawQuery = q.Encode()

	d := &Deepgram{client: NewTracedClient(o.Timeout), endpoint: u.String(), opts: o}
	go d.client.Warm(u.Scheme + "://" + u.Host)
	return d, nil
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Close() error {
	d.client.Close()
	return nil
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
		Channels int     `json:"channels"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) Transcribe(ctx context.Context, f audio.Frame) (string, error) {
	if isSilent(f) {
		return "", nil
	}
	data, err := encoder.Encode("flac", f)
	if err != nil {
		return "", err
	}
	result, err := d.upload(ctx, data)
	if err != nil {
		return "", err
	}
	if result.Confidence < d.opts.MinConfidence {
		return "", nil
	}
	log.Transcription(d.Name(), f.Duration(), result.Metrics.Sum(), result.RateLimit)
	return strings.TrimSpace(result.Text), nil
}

func (d *Deepgram) upload(ctx context.Context, audioData []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(audioData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.opts.APIKey)
	req.Header.Set("Content-Type", "audio/flac")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var dgResp deepgramResponse
	if err := json.Unmarshal(resp.Body, &dgResp); err != nil {
		return nil, fmt.Errorf("deepgram response parse error: %w", err)
	}

	var text string
	var confidence float64
	if len(dgResp.Results.Channels) > 0 && len(dgResp.Results.Channels[0].Alternatives) > 0 {
		alt := dgResp.Results.Channels[0].Alternatives[0]
		text = alt.Transcript
		confidence = alt.Confidence
	}

	remaining := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-remaining", "x-ratelimit-remaining", "ratelimit-remaining")
	limit := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-limit", "x-ratelimit-limit", "ratelimit-limit")

	return &Result{
		Text:       text,
		Metrics:    resp.Metrics,
		RateLimit:  remaining + "/" + limit,
		Confidence: confidence,
		Duration:   dgResp.Metadata.Duration,
	}, nil
}
