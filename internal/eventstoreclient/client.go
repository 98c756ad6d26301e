// Package eventstoreclient is the anti-corruption layer between the
// projection engine and the external event store: it implements
// projection.EventStore over a plain google.golang.org/grpc.ClientConn,
// using ClientConn.Invoke/NewStream directly rather than a generated
// stub, since the wire message definitions are out of scope here.
package eventstoreclient

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/makkalot/eskit/internal/event"
	"github.com/makkalot/eskit/internal/originator"
	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
	"github.com/makkalot/eskit/internal/rpcapi"
)

const (
	appendMethod    = "/eventstore.EventstoreService/Append"
	getEventsMethod = "/eventstore.EventstoreService/GetEvents"
	logsPollMethod  = "/eventstore.EventstoreService/LogsPoll"
)

// LogEntry is a single entry off the append log, as read by LogsPoll.
type LogEntry struct {
	Id    string      `json:"id"`
	Event event.Event `json:"event"`
}

// Client implements projection.EventStore and the streaming LogsPoll call
// the log consumer uses.
type Client struct {
	conn *grpc.ClientConn
}

// New wraps an established connection to the event store.
func New(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

type appendRequest struct {
	Event event.Event `json:"event"`
}
type appendResponse struct{}

// Append appends ev to its entity's stream. A version conflict rejected
// by the event store comes back as codes.FailedPrecondition and is
// reported as apperrors.KindConcurrency so it bubbles up unchanged
// instead of being flattened into a generic internal error.
func (c *Client) Append(ctx context.Context, ev event.Event) error {
	var resp appendResponse
	if err := c.conn.Invoke(ctx, appendMethod, &appendRequest{Event: ev}, &resp, grpc.CallContentSubtype(rpcapi.JSONCodecName)); err != nil {
		if status.Code(err) == codes.FailedPrecondition {
			return apperrors.Concurrency(err.Error())
		}
		return apperrors.Wrap(err, apperrors.KindInternal, "append event")
	}
	return nil
}

type getEventsRequest struct {
	Originator originator.Originator `json:"originator"`
}
type getEventsResponse struct {
	Events []event.Event `json:"events"`
}

// GetEvents returns the full, ordered event stream for o.Id.
func (c *Client) GetEvents(ctx context.Context, o originator.Originator) ([]event.Event, error) {
	var resp getEventsResponse
	if err := c.conn.Invoke(ctx, getEventsMethod, &getEventsRequest{Originator: o}, &resp, grpc.CallContentSubtype(rpcapi.JSONCodecName)); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "get events")
	}
	return resp.Events, nil
}

type logsPollRequest struct {
	FromId   string `json:"from_id"`
	Selector string `json:"selector"`
}

// LogsPoll opens a server-streaming call over the append log starting at
// fromID, used by the log consumer.
func (c *Client) LogsPoll(ctx context.Context, fromID, selector string) (<-chan LogEntry, <-chan error) {
	entries := make(chan LogEntry)
	errs := make(chan error, 1)

	streamDesc := &grpc.StreamDesc{ServerStreams: true}
	stream, err := c.conn.NewStream(ctx, streamDesc, logsPollMethod, grpc.CallContentSubtype(rpcapi.JSONCodecName))
	if err != nil {
		errs <- apperrors.Wrap(err, apperrors.KindInternal, "open LogsPoll stream")
		close(entries)
		return entries, errs
	}

	if err := stream.SendMsg(&logsPollRequest{FromId: fromID, Selector: selector}); err != nil {
		errs <- apperrors.Wrap(err, apperrors.KindInternal, "send LogsPoll request")
		close(entries)
		return entries, errs
	}
	if err := stream.CloseSend(); err != nil {
		errs <- apperrors.Wrap(err, apperrors.KindInternal, "close LogsPoll send")
		close(entries)
		return entries, errs
	}

	go func() {
		defer close(entries)
		for {
			var entry LogEntry
			if err := stream.RecvMsg(&entry); err != nil {
				if err != io.EOF {
					errs <- apperrors.Wrap(err, apperrors.KindInternal, "receive LogsPoll entry")
				}
				return
			}
			select {
			case entries <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	return entries, errs
}
