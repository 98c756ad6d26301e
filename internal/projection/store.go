// Package projection reconstructs entity state from an event stream and
// appends new events for create/update/delete operations.
package projection

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/makkalot/eskit/internal/event"
	"github.com/makkalot/eskit/internal/originator"
	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
	"github.com/makkalot/eskit/internal/pkg/logger"
	"github.com/makkalot/eskit/internal/patch"

	"go.uber.org/zap"
)

// EventStore is the append/read interface the event store client exposes.
type EventStore interface {
	Append(ctx context.Context, ev event.Event) error
	GetEvents(ctx context.Context, o originator.Originator) ([]event.Event, error)
}

// CrudStore implements create/update/get/delete on top of an EventStore by
// replaying each entity's event stream.
type CrudStore struct {
	store EventStore
}

// NewCrudStore builds a CrudStore backed by store.
func NewCrudStore(store EventStore) *CrudStore {
	return &CrudStore{store: store}
}

// Create appends a <entity_type>.Created event carrying payload as its
// snapshot. If o.Version is empty it defaults to "1". Any "originator"
// key inside payload is stripped before it is stored.
func (c *CrudStore) Create(ctx context.Context, entityType string, o originator.Originator, payload []byte) (originator.Originator, error) {
	if o.Id == "" {
		return originator.Originator{}, apperrors.InvalidArgument("originator can not be empty")
	}
	if err := originator.Validate(&o); err != nil {
		return originator.Originator{}, err
	}
	if o.Version == "" {
		o.Version = "1"
	}

	cleaned, err := stripOriginatorField(payload)
	if err != nil {
		return originator.Originator{}, err
	}

	ev := event.Event{
		Originator: o,
		EventType:  event.TypeFor(entityType, event.ActionCreated),
		Payload:    string(cleaned),
		OccuredOn:  time.Now().UTC().Unix(),
	}

	if err := c.store.Append(ctx, ev); err != nil {
		return originator.Originator{}, wrapAppendErr(err, "append created event")
	}

	return o, nil
}

// Update replays the current state for o, diffs it against payload, and
// appends the resulting JSON-Patch as an Updated event at the version
// after the latest stored one. o.Version must be non-empty, but the next
// version is computed from the replayed stream, not from o.Version.
// Returns InvalidArgument if there is nothing to update.
func (c *CrudStore) Update(ctx context.Context, entityType string, o originator.Originator, payload []byte) (originator.Originator, error) {
	if o.Version == "" {
		return originator.Originator{}, apperrors.InvalidArgument("missing version")
	}

	latest, latestOriginator, err := c.Get(ctx, entityType, o, false)
	if err != nil {
		return originator.Originator{}, err
	}

	nextVersion, err := bumpVersion(latestOriginator.Version)
	if err != nil {
		return originator.Originator{}, err
	}
	newOriginator := originator.Originator{Id: o.Id, Version: nextVersion}

	applyObj, err := stripOriginatorField(payload)
	if err != nil {
		return originator.Originator{}, err
	}

	doc, err := patch.Diff(latest, applyObj)
	if err != nil {
		return originator.Originator{}, err
	}
	if patch.IsEmpty(doc) {
		return originator.Originator{}, apperrors.InvalidArgument("nothing to update")
	}

	ev := event.Event{
		Originator: newOriginator,
		EventType:  event.TypeFor(entityType, event.ActionUpdated),
		Payload:    string(doc),
		OccuredOn:  time.Now().UTC().Unix(),
	}

	if err := c.store.Append(ctx, ev); err != nil {
		return originator.Originator{}, wrapAppendErr(err, "append updated event")
	}

	return newOriginator, nil
}

// Get replays the event stream for o and returns the reconstructed
// object together with the originator of the last replayed event. When
// allowDeleted is false, a stream whose last event is a tombstone returns
// NotFound.
func (c *CrudStore) Get(ctx context.Context, entityType string, o originator.Originator, allowDeleted bool) ([]byte, *originator.Originator, error) {
	events, err := c.store.GetEvents(ctx, o)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "get events")
	}
	if len(events) == 0 {
		return nil, nil, apperrors.NotFound("not found")
	}

	if !allowDeleted && event.IsDeleted(events[len(events)-1].EventType) {
		return nil, nil, apperrors.NotFound("object deleted")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(events[0].Payload), &obj); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "unmarshal snapshot")
	}
	latestOriginator := events[0].Originator

	for _, ev := range events[1:] {
		if !event.IsCrud(ev.EventType) {
			return nil, nil, apperrors.Newf(apperrors.KindInvalidArgument, "don't know how to play event : %s", ev.EventType)
		}

		latestOriginator = ev.Originator
		if event.IsDeleted(ev.EventType) {
			continue
		}

		encoded, err := json.Marshal(obj)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "marshal intermediate object")
		}
		applied, err := patch.Apply(encoded, []byte(ev.Payload))
		if err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal(applied, &obj); err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "unmarshal patched object")
		}
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "marshal replayed object")
	}

	return out, &latestOriginator, nil
}

// Delete appends a <entity_type>.Deleted tombstone at the next version.
func (c *CrudStore) Delete(ctx context.Context, entityType string, o originator.Originator) (originator.Originator, error) {
	_, latestOriginator, err := c.Get(ctx, entityType, o, true)
	if err != nil {
		return originator.Originator{}, err
	}
	if latestOriginator == nil {
		return originator.Originator{}, apperrors.InvalidArgument("no originator found in get payload")
	}

	nextVersion, err := bumpVersion(latestOriginator.Version)
	if err != nil {
		return originator.Originator{}, err
	}
	newOriginator := originator.Originator{Id: latestOriginator.Id, Version: nextVersion}

	ev := event.Event{
		Originator: newOriginator,
		EventType:  event.TypeFor(entityType, event.ActionDeleted),
		Payload:    "{}",
		OccuredOn:  time.Now().UTC().Unix(),
	}

	if err := c.store.Append(ctx, ev); err != nil {
		return originator.Originator{}, wrapAppendErr(err, "append deleted event")
	}

	logger.Debug("entity deleted",
		zap.String("entity_type", entityType),
		zap.String("id", newOriginator.Id),
		zap.String("version", newOriginator.Version),
	)

	return newOriginator, nil
}

// wrapAppendErr passes an already-classified AppError (a version conflict
// reported by the event store as KindConcurrency) through unchanged, and
// only wraps as KindInternal when store.Append returned something else.
func wrapAppendErr(err error, message string) error {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	return apperrors.Wrap(err, apperrors.KindInternal, message)
}

func bumpVersion(version string) (string, error) {
	n, err := strconv.Atoi(version)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindInvalidArgument, "version is not numeric")
	}
	return strconv.Itoa(n + 1), nil
}

func stripOriginatorField(payload []byte) ([]byte, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, "unmarshal payload")
	}
	delete(obj, "originator")

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "marshal payload")
	}
	return out, nil
}
