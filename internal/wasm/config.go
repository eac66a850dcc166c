package wasm

import "go.uber.org/zap"

// DefaultMaxCallStackDepth bounds the number of nested Wasm call/call_indirect
// frames before a call-stack-exhaustion trap is raised, guarding the host
// process's own stack rather than letting it overflow.
const DefaultMaxCallStackDepth = 1 << 16

// RuntimeConfig carries the handful of engine-wide knobs this implementation
// exposes, built with functional options in the manner the teacher's own
// wazero.NewRuntimeConfig()/RuntimeConfigOption does.
type RuntimeConfig struct {
	maxCallStackDepth int
	keepFuncNames     bool
	log               *zap.Logger
}

// RuntimeConfigOption configures a RuntimeConfig at construction time.
type RuntimeConfigOption func(*RuntimeConfig)

// WithMaxCallStackDepth overrides the default call-stack depth ceiling.
func WithMaxCallStackDepth(n int) RuntimeConfigOption {
	return func(c *RuntimeConfig) { c.maxCallStackDepth = n }
}

// WithFuncNames controls whether the "name" custom section's function names
// are retained in Module.FuncNames for inspection output (trap messages do
// not include function names).
func WithFuncNames(keep bool) RuntimeConfigOption {
	return func(c *RuntimeConfig) { c.keepFuncNames = keep }
}

// WithLogger overrides the zap.Logger that Store.Instantiate uses to report
// import, element, data and start-function failures (Warn) and success
// (Debug); decoding and function calls do not log.
// A nil logger falls back to zap.NewNop() so call sites never need a nil
// check.
func WithLogger(l *zap.Logger) RuntimeConfigOption {
	return func(c *RuntimeConfig) { c.log = l }
}

// NewRuntimeConfig builds a RuntimeConfig with the given options applied
// over the documented defaults.
func NewRuntimeConfig(opts ...RuntimeConfigOption) *RuntimeConfig {
	c := &RuntimeConfig{
		maxCallStackDepth: DefaultMaxCallStackDepth,
		keepFuncNames:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultRuntimeConfig returns NewRuntimeConfig with no overrides.
func DefaultRuntimeConfig() *RuntimeConfig { return NewRuntimeConfig() }

func (c *RuntimeConfig) logger() *zap.Logger {
	if c.log != nil {
		return c.log
	}
	return zap.NewNop()
}
