package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"earshot/audio"
	"earshot/encoder"
)

func init() {
	Register("openai", func(opts map[string]any) (Transcriber, error) {
		var o OpenAIOptions
		if err := decodeOptions(opts, &o); err != nil {
			return nil, err
		}
		return NewOpenAI(o)
	})
}

type OpenAIOptions struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Prompt   string        `mapstructure:"prompt"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type OpenAI struct {
	client *openai.Client
	http   *http.Client
	opts   OpenAIOptions
}

func NewOpenAI(o OpenAIOptions) (*OpenAI, error) {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if o.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if o.Model == "" {
		o.Model = openai.Whisper1
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}

	hc := &http.Client{Timeout: o.Timeout}
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	cfg.HTTPClient = hc
	return &OpenAI{client: openai.NewClientWithConfig(cfg), http: hc, opts: o}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Close() error {
	o.http.CloseIdleConnections()
	return nil
}

func (o *OpenAI) Transcribe(ctx context.Context, f audio.Frame) (string, error) {
	if isSilent(f) {
		return "", nil
	}
	data, err := encoder.Encode("flac", f)
	if err != nil {
		return "", err
	}
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.opts.Model,
		FilePath: "audio.flac",
		Reader:   bytes.NewReader(data),
		Language: o.opts.Language,
		Prompt:   o.opts.Prompt,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
