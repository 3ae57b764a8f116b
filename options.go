// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import "github.com/joeycumines/logiface"

// runtimeOptions holds configuration options for Runtime creation.
type runtimeOptions struct {
	logger         *logiface.Logger[logiface.Event]
	enableIO       bool
	enableFS       bool
	metricsEnabled bool
}

// --- Runtime Options ---

// Option configures a Runtime instance.
type Option interface {
	apply(*runtimeOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*runtimeOptions) error
}

func (o *optionImpl) apply(opts *runtimeOptions) error {
	return o.applyFunc(opts)
}

// WithIO activates reactor binding. When disabled (the default), any
// suspending I/O attempt fails immediately with ErrIODisabled rather than
// suspending.
func WithIO(enabled bool) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		opts.enableIO = enabled
		return nil
	}}
}

// WithFS activates filesystem support. Filesystem operations rely on
// reactor-backed I/O, so enabling this also enables WithIO.
func WithFS(enabled bool) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		opts.enableFS = enabled
		if enabled {
			opts.enableIO = true
		}
		return nil
	}}
}

// WithLogger attaches a structured logger to the runtime. A nil logger
// disables logging; all log paths tolerate it at zero cost.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables runtime counter collection, accessible via
// Runtime.Metrics.
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// resolveOptions applies Option instances to runtimeOptions.
func resolveOptions(opts []Option) (*runtimeOptions, error) {
	cfg := &runtimeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
