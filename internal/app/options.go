// Package app holds the application services and business logic.
package app

import "log/slog"

// Option configures an application service.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger routes service logs to l instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
