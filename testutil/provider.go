package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/randalmurphal/scrumsim/audio"
)

// ErrFakeProvider is returned by failing fake providers.
var ErrFakeProvider = errors.New("fake provider failure")

// FakeProvider is a scriptable audio.Provider that records its requests.
type FakeProvider struct {
	ProviderName   string
	ProviderSource audio.Source
	Unavailable    bool

	// Respond produces the result. Nil returns a small WAV-tagged clip.
	Respond func(ctx context.Context, req audio.Request) (*audio.Clip, error)

	// Gate, when set, blocks each attempt until it yields or is closed.
	Gate chan struct{}

	// Attempts receives each request as the attempt begins, if non-nil.
	Attempts chan audio.Request

	mu       sync.Mutex
	requests []audio.Request
}

var _ audio.Provider = (*FakeProvider)(nil)

// NewFakeProvider returns a provider that always returns audio.
func NewFakeProvider(name string, source audio.Source) *FakeProvider {
	return &FakeProvider{ProviderName: name, ProviderSource: source}
}

// FailingProvider returns a provider whose every attempt fails.
func FailingProvider(name string, source audio.Source) *FakeProvider {
	p := NewFakeProvider(name, source)
	p.Respond = func(context.Context, audio.Request) (*audio.Clip, error) {
		return nil, ErrFakeProvider
	}
	return p
}

// MissingProvider returns a provider whose every attempt is a clean miss.
func MissingProvider(name string, source audio.Source) *FakeProvider {
	p := NewFakeProvider(name, source)
	p.Respond = func(context.Context, audio.Request) (*audio.Clip, error) {
		return nil, nil
	}
	return p
}

func (p *FakeProvider) Name() string         { return p.ProviderName }
func (p *FakeProvider) Source() audio.Source { return p.ProviderSource }
func (p *FakeProvider) Available() bool      { return !p.Unavailable }

// Attempt implements audio.Provider.
func (p *FakeProvider) Attempt(ctx context.Context, req audio.Request) (*audio.Clip, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.Attempts != nil {
		select {
		case p.Attempts <- req:
		default:
		}
	}

	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p.Respond != nil {
		return p.Respond(ctx, req)
	}
	return &audio.Clip{Format: audio.FormatWAV, Data: []byte("audio:" + req.SpeakerID)}, nil
}

// Requests returns a copy of all requests received.
func (p *FakeProvider) Requests() []audio.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audio.Request(nil), p.requests...)
}

// Calls returns the number of attempts.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
