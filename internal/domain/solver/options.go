package solver

import (
	"github.com/okian/padflow/internal/domain/tuning"
	"github.com/okian/padflow/pkg/logger"
)

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithConstants replaces the default tuning.
func WithConstants(c tuning.Constants) Option {
	return func(s *Solver) {
		s.c = c
	}
}

// WithLogger sets the logger used for per-solve diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.log = l
		}
	}
}
