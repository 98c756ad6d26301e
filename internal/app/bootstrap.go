// Package app is the composition root: it wires config, worker pools,
// the combined client to the external stores, the gateway service and
// the health/metrics surface into a single runnable Application.
package app

import (
	"context"
	"fmt"

	"github.com/makkalot/eskit/internal/client"
	"github.com/makkalot/eskit/internal/config"
	"github.com/makkalot/eskit/internal/gateway"
	"github.com/makkalot/eskit/internal/healthhttp"
	"github.com/makkalot/eskit/internal/pkg/worker"
	"github.com/makkalot/eskit/internal/projection"
)

// Application holds the composed dependencies for a running gateway.
type Application struct {
	Config  *config.Config
	Pools   *worker.Pools
	Clients *client.CombinedClient
	Gateway *gateway.CrudStoreService
	Health  *healthhttp.Server
}

// Bootstrap dials the external stores and wires the gateway and worker
// pools together. It does not start any listener; call Start for that.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	pools, err := worker.NewPools(ctx, worker.PoolConfig{GatewayPoolSize: cfg.Worker.GatewayPoolSize})
	if err != nil {
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	combined, err := client.Dial(ctx, cfg.Store.EventStoreEndpoint, cfg.Store.ConsumerStoreEndpoint)
	if err != nil {
		pools.Shutdown()
		return nil, fmt.Errorf("dial backends: %w", err)
	}

	crudStore := projection.NewCrudStore(combined.EventStore)
	gatewaySvc := gateway.New(crudStore, pools)

	return &Application{
		Config:  cfg,
		Pools:   pools,
		Clients: combined,
		Gateway: gatewaySvc,
		Health:  healthhttp.New(pools),
	}, nil
}
