package audio

import (
	"context"
	"errors"
	"log/slog"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultProviderTimeout bounds a single provider attempt.
const DefaultProviderTimeout = 10 * time.Second

// Resolver tries providers in order and returns the first clip produced.
type Resolver struct {
	providers       []Provider
	logger          *slog.Logger
	providerTimeout time.Duration
	timeout         time.Duration
	measure         bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger for provider outcomes.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithProviderTimeout bounds each provider attempt. Zero disables the bound.
func WithProviderTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.providerTimeout = d
	}
}

// WithTimeout bounds a whole Resolve call across all providers.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithMeasure controls whether clips without a duration are measured.
// Measuring is on by default.
func WithMeasure(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.measure = enabled
	}
}

// NewResolver creates a resolver over providers in priority order.
func NewResolver(providers []Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		providers:       append([]Provider(nil), providers...),
		logger:          slog.Default(),
		providerTimeout: DefaultProviderTimeout,
		measure:         true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Providers returns the chain in priority order.
func (r *Resolver) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

// Resolve returns a clip for req, or nil when no provider produced audio.
// Errors are returned only for a malformed request or when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Clip, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	chainCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		chainCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if chainCtx.Err() != nil {
			r.logger.Warn("audio chain timed out", "speaker", req.SpeakerID, "provider", p.Name())
			break
		}

		if !p.Available() {
			r.logger.Debug("audio provider skipped", "provider", p.Name(), "reason", "unavailable")
			continue
		}

		clip, err := r.attempt(chainCtx, p, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn("audio provider failed",
				"provider", p.Name(),
				"speaker", req.SpeakerID,
				"error", err,
			)
			continue
		}
		if clip == nil {
			r.logger.Debug("audio provider miss", "provider", p.Name(), "speaker", req.SpeakerID)
			continue
		}

		r.finish(clip, p, req)
		r.logger.Debug("audio resolved",
			"provider", clip.Provider,
			"source", string(clip.Source),
			"speaker", req.SpeakerID,
			"duration", clip.Duration,
		)
		return clip, nil
	}

	r.logger.Warn("no audio available", "speaker", req.SpeakerID)
	return nil, nil
}

func (r *Resolver) attempt(ctx context.Context, p Provider, req Request) (clip *Clip, err error) {
	if r.providerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.providerTimeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			clip = nil
			err = &ProviderError{Provider: p.Name(), Err: errors.New("panic during attempt")}
			r.logger.Error("audio provider panicked", "provider", p.Name(), "panic", rec)
		}
	}()

	clip, err = p.Attempt(ctx, req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	if clip != nil && clip.Empty() {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrEmptyAudio}
	}
	return clip, nil
}

// finish stamps identity and provenance onto a clip returned by a provider.
func (r *Resolver) finish(clip *Clip, p Provider, req Request) {
	if id, err := nanoid.New(); err == nil {
		clip.ID = id
	}
	clip.SpeakerID = req.SpeakerID
	clip.Text = req.Text
	if clip.Source == "" {
		clip.Source = p.Source()
	}
	if clip.Provider == "" {
		clip.Provider = p.Name()
	}
	if clip.Format == "" && clip.Path != "" {
		clip.Format = FormatFromPath(clip.Path)
	}
	if clip.Duration == 0 && r.measure {
		d, err := Measure(clip)
		if err != nil {
			r.logger.Debug("audio measure failed", "provider", clip.Provider, "error", err)
			return
		}
		clip.Duration = d
	}
}
