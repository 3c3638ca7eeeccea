package audio

import "context"

// Provider is one audio sourcing strategy in the chain.
//
// Attempt returns (nil, nil) for a clean miss, such as a cache lookup that
// found nothing. Any error is a provider failure; the resolver logs it and
// moves on. Attempt must honor ctx cancellation.
type Provider interface {
	Name() string
	Source() Source
	// Available reports whether the provider is configured. Unavailable
	// providers are skipped without calling Attempt.
	Available() bool
	Attempt(ctx context.Context, req Request) (*Clip, error)
}
