package container

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Container at construction time.
type Option func(*Container)

// WithLogger sets the logger used for registration warnings and lifecycle
// failures. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Container) {
		if log != nil {
			c.log = log
		}
	}
}

// WithStrictKeys makes duplicate registration an error instead of a
// warn-and-overwrite. Production composition roots register each key once;
// the lenient default keeps test harnesses free to re-register fakes.
func WithStrictKeys() Option {
	return func(c *Container) {
		c.strict = true
	}
}

// WithInitTimeout bounds each service's Initialize during InitializeAll, so
// one unresponsive service cannot stall startup indefinitely. Zero means no
// per-service limit; the caller's context still applies overall.
func WithInitTimeout(d time.Duration) Option {
	return func(c *Container) {
		c.initTimeout = d
	}
}
