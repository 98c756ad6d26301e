package gateway

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/makkalot/eskit/internal/originator"
	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
	"github.com/makkalot/eskit/internal/pkg/logger"
	"github.com/makkalot/eskit/internal/pkg/worker"
)

func init() {
	_ = logger.Init("error", "json")
}

type fakeStore struct {
	createErr error
	getErr    error
	obj       []byte
	o         originator.Originator
}

func (f *fakeStore) Create(ctx context.Context, entityType string, o originator.Originator, payload []byte) (originator.Originator, error) {
	if f.createErr != nil {
		return originator.Originator{}, f.createErr
	}
	return o, nil
}

func (f *fakeStore) Update(ctx context.Context, entityType string, o originator.Originator, payload []byte) (originator.Originator, error) {
	return o, nil
}

func (f *fakeStore) Get(ctx context.Context, entityType string, o originator.Originator, allowDeleted bool) ([]byte, *originator.Originator, error) {
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	latest := f.o
	return f.obj, &latest, nil
}

func (f *fakeStore) Delete(ctx context.Context, entityType string, o originator.Originator) (originator.Originator, error) {
	return o, nil
}

func newTestPools(t *testing.T) *worker.Pools {
	t.Helper()
	pools, err := worker.NewPools(context.Background(), worker.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(pools.Shutdown)
	return pools
}

func TestCrudStoreService_Create_AssignsOriginator(t *testing.T) {
	svc := New(&fakeStore{}, newTestPools(t))

	res, err := svc.Create(context.Background(), CreateRequest{
		EntityType: "Widget",
		Payload:    []byte(`{"name":"widget"}`),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Originator.Id, "Create() should assign an id when none is supplied")
	_, err = uuid.Parse(res.Originator.Id)
	assert.NoError(t, err, "Create() assigned id is not a valid uuid")
}

func TestCrudStoreService_Create_MissingEntityType(t *testing.T) {
	svc := New(&fakeStore{}, newTestPools(t))

	_, err := svc.Create(context.Background(), CreateRequest{Payload: []byte(`{}`)})
	assert.Equal(t, codes.InvalidArgument, status.Code(ToStatus(err)))
}

func TestCrudStoreService_Get_NotFoundMapsToStatus(t *testing.T) {
	svc := New(&fakeStore{getErr: apperrors.NotFound("not found")}, newTestPools(t))

	_, err := svc.Get(context.Background(), GetRequest{
		EntityType: "Widget",
		Originator: originator.Originator{Id: uuid.NewString()},
	})

	assert.Equal(t, codes.NotFound, status.Code(ToStatus(err)))
}

func TestCrudStoreService_Update_RequiresVersion(t *testing.T) {
	svc := New(&fakeStore{}, newTestPools(t))

	_, err := svc.Update(context.Background(), UpdateRequest{
		EntityType: "Widget",
		Originator: originator.Originator{Id: uuid.NewString()},
		Payload:    []byte(`{}`),
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(ToStatus(err)))
}

func TestCrudStoreService_TypeRegistryStubsAreUnimplemented(t *testing.T) {
	svc := New(&fakeStore{}, newTestPools(t))
	ctx := context.Background()

	_, err := svc.RegisterType(ctx, RegisterTypeRequest{EntityType: "Widget"})
	assert.Equal(t, codes.Unimplemented, status.Code(ToStatus(err)))

	_, err = svc.GetType(ctx, GetTypeRequest{EntityType: "Widget"})
	assert.Equal(t, codes.Unimplemented, status.Code(ToStatus(err)))

	_, err = svc.UpdateType(ctx, UpdateTypeRequest{EntityType: "Widget"})
	assert.Equal(t, codes.Unimplemented, status.Code(ToStatus(err)))

	_, err = svc.ListTypes(ctx, ListTypesRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(ToStatus(err)))

	_, err = svc.List(ctx, ListRequest{EntityType: "Widget"})
	assert.Equal(t, codes.Unimplemented, status.Code(ToStatus(err)))
}
