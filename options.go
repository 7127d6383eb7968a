package rpager

import (
	"log/slog"

	"github.com/kk-code-lab/rpager/internal/app"
)

// Option configures a Pager at construction time.
type Option func(*options)

type options struct {
	cfg app.Config
}

// WithLogger routes pager diagnostics to logger. By default they are dropped.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.cfg.Logger = logger
	}
}

// WithCompiler selects the regular expression engine used by search.
func WithCompiler(c Compiler) Option {
	return func(o *options) {
		o.cfg.Compiler = c
	}
}

// WithTerminal replaces the controlling terminal, mainly for tests.
func WithTerminal(open func() (Terminal, error)) Option {
	return func(o *options) {
		o.cfg.OpenTerminal = open
	}
}
