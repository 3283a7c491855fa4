package replay

import "github.com/okian/rally/pkg/logger"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKFactor sets the sensitivity constant.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.k = k
		}
	}
}

// WithDefaultRating sets the rating given to new competitors.
func WithDefaultRating(r float64) Option {
	return func(e *Engine) {
		e.defaultRating = r
	}
}

// WithLogger enables replay logging.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
