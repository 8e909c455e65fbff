// Package providers holds the core service providers the kernel registers on
// every application.
package providers

import (
	"go.uber.org/zap"

	"github.com/pitchside/pitchside/container"
	"github.com/pitchside/pitchside/routing"
)

// Router binds the chi-backed router under "router".
//
// Bound keys:
//   - "router" → *routing.Router
type Router struct {
	container.BaseProvider
}

func (Router) Register(app *container.Container) error {
	return app.Singleton("router", func(c *container.Container) any {
		return routing.New(container.MustResolve[*zap.Logger](c, "logger"))
	})
}
