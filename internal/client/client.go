// Package client composes the gateway's outbound connections into a
// single handle, dialing both backends with a bounded retry budget so a
// backend that is still starting up doesn't fail the whole process.
package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/makkalot/eskit/internal/consumerstoreclient"
	"github.com/makkalot/eskit/internal/eventstoreclient"
	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
	"github.com/makkalot/eskit/internal/pkg/logger"
	"github.com/makkalot/eskit/internal/rpcapi"
)

// CombinedClient bundles the connections to the external event store and
// consumer-offset store, the Go analogue of the original's CombinedClient.
type CombinedClient struct {
	EventStore    *eventstoreclient.Client
	ConsumerStore *consumerstoreclient.Client

	eventStoreConn    *grpc.ClientConn
	consumerStoreConn *grpc.ClientConn
}

// Dial connects to storeURI and consumerURI concurrently via errgroup,
// retrying each dial with exponential backoff for up to ~10s before
// giving up. The two backends are independent, so there is no reason to
// pay their startup latency back-to-back.
func Dial(ctx context.Context, storeURI, consumerURI string) (*CombinedClient, error) {
	var eventConn, consumerConn *grpc.ClientConn

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conn, err := dialWithRetry(gctx, storeURI)
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal, "dial event store")
		}
		eventConn = conn
		return nil
	})
	g.Go(func() error {
		conn, err := dialWithRetry(gctx, consumerURI)
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal, "dial consumer store")
		}
		consumerConn = conn
		return nil
	})

	if err := g.Wait(); err != nil {
		if eventConn != nil {
			eventConn.Close()
		}
		if consumerConn != nil {
			consumerConn.Close()
		}
		return nil, err
	}

	return &CombinedClient{
		EventStore:        eventstoreclient.New(eventConn),
		ConsumerStore:     consumerstoreclient.New(consumerConn),
		eventStoreConn:    eventConn,
		consumerStoreConn: consumerConn,
	}, nil
}

// Close tears down both connections.
func (c *CombinedClient) Close() error {
	var firstErr error
	if err := c.eventStoreConn.Close(); err != nil {
		firstErr = err
	}
	if err := c.consumerStoreConn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func dialWithRetry(ctx context.Context, target string) (*grpc.ClientConn, error) {
	var conn *grpc.ClientConn

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	operation := func() error {
		c, err := grpc.NewClient(target,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcapi.JSONCodecName)),
		)
		if err != nil {
			logger.Warn("dial attempt failed, retrying", zap.String("target", target), zap.Error(err))
			return err
		}
		conn = c
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return conn, nil
}
