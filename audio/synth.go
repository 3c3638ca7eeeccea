package audio

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/randalmurphal/scrumsim/auth"
	"github.com/randalmurphal/scrumsim/http"
)

// SynthPath is the gateway endpoint for speech synthesis.
const SynthPath = "/v1/speech"

// SynthConfig configures the commercial synthesis gateway.
type SynthConfig struct {
	BaseURL     string
	Model       string
	Format      Format
	Credentials auth.Credentials

	// HTTPClient overrides the transport (tests use httptest clients).
	HTTPClient *stdhttp.Client
	MaxRetries int
	RetryWait  time.Duration
}

// SynthProvider synthesizes speech through a commercial HTTP gateway.
type SynthProvider struct {
	cfg    SynthConfig
	client *http.Client
}

type synthRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Model  string `json:"model,omitempty"`
	Format Format `json:"format"`
}

type voiceKey struct{}

// NewSynthProvider creates a gateway provider. It is unavailable until both a
// base URL and credentials are configured.
func NewSynthProvider(cfg SynthConfig) *SynthProvider {
	if cfg.Format == "" {
		cfg.Format = FormatMP3
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	p := &SynthProvider{cfg: cfg}
	p.client = http.NewClient(http.ClientConfig{
		Client:      cfg.HTTPClient,
		BaseURL:     cfg.BaseURL,
		ServiceName: "speech",
		MaxRetries:  cfg.MaxRetries,
		RetryWait:   cfg.RetryWait,
		Authorize: func(req *stdhttp.Request) error {
			voice, _ := req.Context().Value(voiceKey{}).(string)
			return p.cfg.Credentials.Authorize(req, voice)
		},
	})
	return p
}

// Name implements Provider.
func (p *SynthProvider) Name() string { return "speech-gateway" }

// Source implements Provider.
func (p *SynthProvider) Source() Source { return SourceCommercial }

// Available reports whether the gateway is configured.
func (p *SynthProvider) Available() bool {
	return p.cfg.BaseURL != "" && p.cfg.Credentials.Configured()
}

// Attempt implements Provider.
func (p *SynthProvider) Attempt(ctx context.Context, req Request) (*Clip, error) {
	if !p.Available() {
		return nil, ErrProviderUnavailable
	}

	voice := req.VoiceRef
	if voice == "" {
		voice = req.SpeakerID
	}

	body := synthRequest{
		Text:   req.Text,
		Voice:  voice,
		Model:  p.cfg.Model,
		Format: p.cfg.Format,
	}

	ctx = context.WithValue(ctx, voiceKey{}, voice)
	data, contentType, err := p.client.PostRaw(ctx, SynthPath, body, "audio/*")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	format := FormatFromContentType(contentType)
	if format == "" {
		if strings.HasPrefix(contentType, "application/json") {
			return nil, fmt.Errorf("%w: gateway returned %s", ErrUnsupportedFormat, contentType)
		}
		format = p.cfg.Format
	}

	return &Clip{
		Data:     data,
		Format:   format,
		Source:   SourceCommercial,
		Provider: p.Name(),
	}, nil
}
