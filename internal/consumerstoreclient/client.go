// Package consumerstoreclient is the anti-corruption layer between the
// log consumer and the external consumer-offset store.
package consumerstoreclient

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
	"github.com/makkalot/eskit/internal/rpcapi"
)

const (
	logConsumeMethod    = "/consumerstore.ConsumerService/LogConsume"
	getLogConsumeMethod = "/consumerstore.ConsumerService/GetLogConsume"
)

// Client implements offset persistence for a named consumer.
type Client struct {
	conn *grpc.ClientConn
}

// New wraps an established connection to the consumer store.
func New(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

type logConsumeRequest struct {
	ConsumerId string `json:"consumer_id"`
	Offset     string `json:"offset"`
}
type logConsumeResponse struct{}

// SaveOffset persists the last processed log id for consumerID.
func (c *Client) SaveOffset(ctx context.Context, consumerID, offset string) error {
	var resp logConsumeResponse
	err := c.conn.Invoke(ctx, logConsumeMethod, &logConsumeRequest{ConsumerId: consumerID, Offset: offset}, &resp, grpc.CallContentSubtype(rpcapi.JSONCodecName))
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "save consumer offset")
	}
	return nil
}

type getLogConsumeRequest struct {
	ConsumerId string `json:"consumer_id"`
}
type getLogConsumeResponse struct {
	Offset string `json:"offset"`
}

// GetOffset returns the last saved offset for consumerID. When no offset
// has ever been saved it returns apperrors.KindNotFound.
func (c *Client) GetOffset(ctx context.Context, consumerID string) (string, error) {
	var resp getLogConsumeResponse
	err := c.conn.Invoke(ctx, getLogConsumeMethod, &getLogConsumeRequest{ConsumerId: consumerID}, &resp, grpc.CallContentSubtype(rpcapi.JSONCodecName))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", apperrors.NotFound("no saved offset")
		}
		return "", apperrors.Wrap(err, apperrors.KindInternal, "get consumer offset")
	}
	return resp.Offset, nil
}
