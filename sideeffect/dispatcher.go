// Package sideeffect applies named mutations when a meeting reaches the
// segment that carries them.
//
// Handlers are registered by the hosting view under a side effect ID. The
// dispatcher invokes each (segment, effect) pair at most once per run, so a
// resumed meeting never replays a mutation for a segment it already passed.
// Unknown IDs and handler failures are logged and otherwise ignored.
package sideeffect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrDuplicateHandler indicates a second registration for the same ID.
	ErrDuplicateHandler = errors.New("side effect handler already registered")

	// ErrInvalidHandler indicates an empty ID or nil handler.
	ErrInvalidHandler = errors.New("invalid side effect handler")

	// ErrUnknownEffect indicates a dispatch for an ID with no handler.
	ErrUnknownEffect = errors.New("unknown side effect")

	// ErrHandlerPanic indicates a handler panicked.
	ErrHandlerPanic = errors.New("side effect handler panicked")
)

// Handler applies one mutation. The returned value is recorded in the result.
type Handler func(ctx context.Context) (any, error)

// Result records one dispatch.
type Result struct {
	EffectID  string    `json:"effectId"`
	SegmentID string    `json:"segmentId"`
	Value     any       `json:"value,omitempty"`
	Err       error     `json:"-"`
	Error     string    `json:"error,omitempty"`
	FiredAt   time.Time `json:"firedAt"`
}

// OK reports whether the handler ran without error.
func (r Result) OK() bool { return r.Err == nil }

// Dispatcher maps side effect IDs to handlers.
type Dispatcher struct {
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	handlers map[string]Handler
	fired    map[string]bool
	results  []Result
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates an empty dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:   slog.Default(),
		now:      time.Now,
		handlers: make(map[string]Handler),
		fired:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register installs h for id.
func (d *Dispatcher) Register(id string, h Handler) error {
	id = strings.TrimSpace(id)
	if id == "" || h == nil {
		return ErrInvalidHandler
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.handlers[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, id)
	}
	d.handlers[id] = h
	return nil
}

// MustRegister is like Register but panics on error.
func (d *Dispatcher) MustRegister(id string, h Handler) {
	if err := d.Register(id, h); err != nil {
		panic(err)
	}
}

// Has reports whether a handler is registered for id.
func (d *Dispatcher) Has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.handlers[id]
	return ok
}

// IDs returns the registered IDs, sorted.
func (d *Dispatcher) IDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.handlers))
	for id := range d.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch runs the handler for effectID on behalf of segmentID. It reports
// false without invoking anything when the pair already fired this run or no
// handler is registered. Handler errors and panics are recorded in the result
// and logged; they are never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, segmentID, effectID string) (Result, bool) {
	return d.DispatchIf(ctx, segmentID, effectID, nil)
}

// DispatchIf is Dispatch with a guard. allow runs under the dispatcher lock
// before the pair is claimed; when it returns false nothing is claimed or
// invoked and DispatchIf reports false. allow must not call back into the
// dispatcher.
func (d *Dispatcher) DispatchIf(ctx context.Context, segmentID, effectID string, allow func() bool) (Result, bool) {
	key := segmentID + "\x00" + effectID

	d.mu.Lock()
	if allow != nil && !allow() {
		d.mu.Unlock()
		d.logger.Debug("side effect refused", "segment", segmentID, "effect", effectID)
		return Result{}, false
	}
	if d.fired[key] {
		d.mu.Unlock()
		d.logger.Debug("side effect already fired", "segment", segmentID, "effect", effectID)
		return Result{}, false
	}
	h, ok := d.handlers[effectID]
	if !ok {
		d.mu.Unlock()
		d.logger.Warn("unknown side effect",
			"segment", segmentID,
			"effect", effectID,
			"error", ErrUnknownEffect,
		)
		return Result{}, false
	}
	d.fired[key] = true
	d.mu.Unlock()

	res := Result{EffectID: effectID, SegmentID: segmentID}
	res.Value, res.Err = invoke(ctx, h)
	res.FiredAt = d.now()
	if res.Err != nil {
		res.Error = res.Err.Error()
		d.logger.Warn("side effect failed",
			"segment", segmentID,
			"effect", effectID,
			"error", res.Err,
		)
	} else {
		d.logger.Debug("side effect applied", "segment", segmentID, "effect", effectID)
	}

	d.mu.Lock()
	d.results = append(d.results, res)
	d.mu.Unlock()
	return res, true
}

func invoke(ctx context.Context, h Handler) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v = nil
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
		}
	}()
	return h(ctx)
}

// Fired reports whether effectID already fired for segmentID this run.
func (d *Dispatcher) Fired(segmentID, effectID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired[segmentID+"\x00"+effectID]
}

// Results returns the results of this run in dispatch order.
func (d *Dispatcher) Results() []Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Result(nil), d.results...)
}

// Reset forgets fired effects and results so the dispatcher can serve a new
// run. Handlers stay registered.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fired = make(map[string]bool)
	d.results = nil
}
