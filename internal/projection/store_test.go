package projection

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makkalot/eskit/internal/event"
	"github.com/makkalot/eskit/internal/originator"
	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
)

type memStore struct {
	mu        sync.Mutex
	events    map[string][]event.Event
	appendErr error
}

func newMemStore() *memStore {
	return &memStore{events: make(map[string][]event.Event)}
}

func (m *memStore) Append(ctx context.Context, ev event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.events[ev.Originator.Id] = append(m.events[ev.Originator.Id], ev)
	return nil
}

func (m *memStore) GetEvents(ctx context.Context, o originator.Originator) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]event.Event(nil), m.events[o.Id]...), nil
}

func newID(t *testing.T) string {
	t.Helper()
	return uuid.New().String()
}

func TestCrudStore_CreateGet(t *testing.T) {
	store := NewCrudStore(newMemStore())
	ctx := context.Background()
	id := newID(t)

	created, err := store.Create(ctx, "Widget", originator.Originator{Id: id}, []byte(`{"name":"widget"}`))
	require.NoError(t, err)
	assert.Equal(t, "1", created.Version)

	got, o, err := store.Get(ctx, "Widget", originator.Originator{Id: id}, false)
	require.NoError(t, err)
	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(got, &obj))
	assert.Equal(t, "widget", obj["name"])
	assert.Equal(t, "1", o.Version)
}

func TestCrudStore_Get_NotFound(t *testing.T) {
	store := NewCrudStore(newMemStore())
	_, _, err := store.Get(context.Background(), "Widget", originator.Originator{Id: newID(t)}, false)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCrudStore_UpdateAppliesPatch(t *testing.T) {
	store := NewCrudStore(newMemStore())
	ctx := context.Background()
	id := newID(t)

	created, err := store.Create(ctx, "Widget", originator.Originator{Id: id}, []byte(`{"name":"widget","count":1}`))
	require.NoError(t, err)

	updated, err := store.Update(ctx, "Widget", created, []byte(`{"name":"widget","count":2}`))
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Version)

	got, _, err := store.Get(ctx, "Widget", originator.Originator{Id: id}, false)
	require.NoError(t, err)
	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(got, &obj))
	assert.Equal(t, float64(2), obj["count"])
}

func TestCrudStore_Update_NothingChanged(t *testing.T) {
	store := NewCrudStore(newMemStore())
	ctx := context.Background()
	id := newID(t)

	created, err := store.Create(ctx, "Widget", originator.Originator{Id: id}, []byte(`{"name":"widget"}`))
	require.NoError(t, err)

	_, err = store.Update(ctx, "Widget", created, []byte(`{"name":"widget"}`))
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestCrudStore_Update_MissingVersion(t *testing.T) {
	store := NewCrudStore(newMemStore())
	_, err := store.Update(context.Background(), "Widget", originator.Originator{Id: newID(t)}, []byte(`{}`))
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestCrudStore_DeleteThenGet(t *testing.T) {
	store := NewCrudStore(newMemStore())
	ctx := context.Background()
	id := newID(t)

	created, err := store.Create(ctx, "Widget", originator.Originator{Id: id}, []byte(`{"name":"widget"}`))
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, "Widget", created)
	require.NoError(t, err)
	assert.Equal(t, "2", deleted.Version)

	_, _, err = store.Get(ctx, "Widget", originator.Originator{Id: id}, false)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, _, err = store.Get(ctx, "Widget", originator.Originator{Id: id}, true)
	assert.NoError(t, err)
}

func TestCrudStore_Get_WrongEntityTypeStillSucceeds(t *testing.T) {
	store := NewCrudStore(newMemStore())
	ctx := context.Background()
	id := newID(t)

	_, err := store.Create(ctx, "Widget", originator.Originator{Id: id}, []byte(`{"name":"widget"}`))
	require.NoError(t, err)

	got, _, err := store.Get(ctx, "SomeOtherType", originator.Originator{Id: id}, false)
	require.NoError(t, err)
	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(got, &obj))
	assert.Equal(t, "widget", obj["name"])
}

func TestCrudStore_Create_ConcurrencyConflictPassesThrough(t *testing.T) {
	store := NewCrudStore(&memStore{events: make(map[string][]event.Event), appendErr: apperrors.Concurrency("version conflict")})
	_, err := store.Create(context.Background(), "Widget", originator.Originator{Id: newID(t)}, []byte(`{"name":"widget"}`))
	assert.Equal(t, apperrors.KindConcurrency, apperrors.KindOf(err))
}

func TestCrudStore_Update_ConcurrencyConflictPassesThrough(t *testing.T) {
	backing := newMemStore()
	store := NewCrudStore(backing)
	ctx := context.Background()
	id := newID(t)

	created, err := store.Create(ctx, "Widget", originator.Originator{Id: id}, []byte(`{"name":"widget"}`))
	require.NoError(t, err)

	backing.appendErr = apperrors.Concurrency("version conflict")
	_, err = store.Update(ctx, "Widget", created, []byte(`{"name":"other"}`))
	assert.Equal(t, apperrors.KindConcurrency, apperrors.KindOf(err))
}
