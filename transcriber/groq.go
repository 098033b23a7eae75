package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"earshot/audio"
	"earshot/encoder"
	"earshot/log"
)

func init() {
	Register("groq", func(opts map[string]any) (Transcriber, error) {
		var o GroqOptions
		if err := decodeOptions(opts, &o); err != nil {
			return nil, err
		}
		return NewGroq(o)
	})
}

type GroqOptions struct {
	APIKey   string        `mapstructure:"api_key"`
	URL      string        `mapstructure:"url"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Format   string        `mapstructure:"format"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// MaxNoSpeech drops results whose worst segment is more likely silence
	// than this. Whisper hallucinates on noise.
	MaxNoSpeech float64 `mapstructure:"max_no_speech"`
}

type Groq struct {
	client *TracedClient
	opts   GroqOptions
}

func NewGroq(o GroqOptions) (*Groq, error) {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if o.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if o.URL == "" {
		o.URL = "https://api.groq.com/openai/v1/audio/transcriptions"
	}
	if o.Model == "" {
		o.Model = "whisper-large-v3-turbo"
	}
	if o.Format == "" {
		o.Format = "flac"
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxNoSpeech == 0 {
		o.MaxNoSpeech = 0.8
	}
	g := &Groq{client: NewTracedClient(o.Timeout), opts: o}
	go g.client.Warm(o.URL)
	return g, nil
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Close() error {
	g.client.Close()
	return nil
}

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (g *Groq) Transcribe(ctx context.Context, f audio.Frame) (string, error) {
	if isSilent(f) {
		return "", nil
	}
	data, err := encoder.Encode(g.opts.Format, f)
	if err != nil {
		return "", err
	}
	result, err := g.upload(ctx, data)
	if err != nil {
		return "", err
	}
	if result.NoSpeechProb > g.opts.MaxNoSpeech {
		return "", nil
	}
	log.Transcription(g.Name(), f.Duration(), result.Metrics.Sum(), result.RateLimit)
	return strings.TrimSpace(result.Text), nil
}

func (g *Groq) upload(ctx context.Context, audioData []byte) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+g.opts.Format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, err
	}

	writer.WriteField("model", g.opts.Model)
	writer.WriteField("response_format", "verbose_json")
	if g.opts.Language != "" {
		writer.WriteField("language", g.opts.Language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.URL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.opts.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	var noSpeechProb float64
	var segments []Segment
	for _, seg := range gResp.Segments {
		if seg.NoSpeechProb > noSpeechProb {
			noSpeechProb = seg.NoSpeechProb
		}
		segments = append(segments, Segment{
			Text:         seg.Text,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogProb:   seg.AvgLogProb,
			Start:        seg.Start,
			End:          seg.End,
		})
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:         gResp.Text,
		Metrics:      resp.Metrics,
		RateLimit:    remaining + "/" + limit,
		NoSpeechProb: noSpeechProb,
		Duration:     gResp.Duration,
		Segments:     segments,
	}, nil
}
