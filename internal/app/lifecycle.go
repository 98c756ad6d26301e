package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/makkalot/eskit/internal/pkg/logger"
)

// Start brings up the parts of the application that are not dialed during
// Bootstrap. The gateway itself is a passive gRPC service: it never polls
// the event log on its own, so there is no background loop to launch here
// beyond confirming the dependencies it was wired with are ready.
func (a *Application) Start(ctx context.Context) error {
	logger.Info("gateway dependencies ready",
		zap.String("server_addr", a.Config.Server.Addr),
		zap.String("health_addr", a.Config.Server.HealthAddr),
	)
	return nil
}

// Shutdown releases the worker pools and closes the connections to the
// external stores. Call it once, after the gRPC and health listeners have
// stopped accepting new work.
func (a *Application) Shutdown() error {
	var errs []error

	if a.Pools != nil {
		a.Pools.Shutdown()
	}

	if a.Clients != nil {
		if err := a.Clients.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store clients: %w", err))
		}
	}

	if len(errs) > 0 {
		logger.Warn("errors during shutdown", zap.Errors("errors", errs))
		return errs[0]
	}
	return nil
}
