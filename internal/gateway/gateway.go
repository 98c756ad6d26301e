// Package gateway implements the CRUD store's request surface: it maps
// transport-neutral requests onto projection.CrudStore calls and turns
// any resulting error into a gRPC status, mirroring the single catch-all
// boundary the original service applies at every RPC method.
package gateway

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/makkalot/eskit/internal/originator"
	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
	"github.com/makkalot/eskit/internal/pkg/logger"
	"github.com/makkalot/eskit/internal/pkg/worker"
	"github.com/makkalot/eskit/internal/projection"
)

// CreateRequest carries the parameters for a Create call.
type CreateRequest struct {
	EntityType string
	Originator originator.Originator
	Payload    []byte
}

// CreateResponse carries the result of a Create call.
type CreateResponse struct {
	Originator originator.Originator
}

// UpdateRequest carries the parameters for an Update call.
type UpdateRequest struct {
	EntityType string
	Originator originator.Originator
	Payload    []byte
}

// UpdateResponse carries the result of an Update call.
type UpdateResponse struct {
	Originator originator.Originator
}

// GetRequest carries the parameters for a Get call.
type GetRequest struct {
	EntityType string
	Originator originator.Originator
	Deleted    bool
}

// GetResponse carries the result of a Get call.
type GetResponse struct {
	Payload    []byte
	Originator originator.Originator
}

// DeleteRequest carries the parameters for a Delete call.
type DeleteRequest struct {
	EntityType string
	Originator originator.Originator
}

// DeleteResponse carries the result of a Delete call.
type DeleteResponse struct {
	Originator originator.Originator
}

// RegisterTypeRequest carries the parameters for a RegisterType call.
type RegisterTypeRequest struct {
	EntityType string
	Spec       []byte
}

// RegisterTypeResponse carries the result of a RegisterType call.
type RegisterTypeResponse struct{}

// GetTypeRequest carries the parameters for a GetType call.
type GetTypeRequest struct {
	EntityType string
}

// GetTypeResponse carries the result of a GetType call.
type GetTypeResponse struct {
	Spec []byte
}

// UpdateTypeRequest carries the parameters for an UpdateType call.
type UpdateTypeRequest struct {
	EntityType string
	Spec       []byte
}

// UpdateTypeResponse carries the result of an UpdateType call.
type UpdateTypeResponse struct{}

// ListTypesRequest carries the parameters for a ListTypes call.
type ListTypesRequest struct {
	PageToken string
}

// ListTypesResponse carries the result of a ListTypes call.
type ListTypesResponse struct {
	EntityTypes   []string
	NextPageToken string
}

// ListRequest carries the parameters for a List call.
type ListRequest struct {
	EntityType string
	PageToken  string
}

// ListResponse carries the result of a List call.
type ListResponse struct {
	Payloads      [][]byte
	NextPageToken string
}

// Store is the CrudStore interface the gateway delegates to.
type Store interface {
	Create(ctx context.Context, entityType string, o originator.Originator, payload []byte) (originator.Originator, error)
	Update(ctx context.Context, entityType string, o originator.Originator, payload []byte) (originator.Originator, error)
	Get(ctx context.Context, entityType string, o originator.Originator, allowDeleted bool) ([]byte, *originator.Originator, error)
	Delete(ctx context.Context, entityType string, o originator.Originator) (originator.Originator, error)
}

// CrudStoreService is the request gateway: Create, Update, Get and Delete
// run inside the shared worker pool and return domain errors, which
// ToStatus maps to a gRPC status code. Healtz and the type-registry stubs
// do not use the pool.
type CrudStoreService struct {
	store Store
	pools *worker.Pools
}

// New builds a CrudStoreService backed by store, bounding handler
// execution through pools.Gateway.
func New(store Store, pools *worker.Pools) *CrudStoreService {
	return &CrudStoreService{store: store, pools: pools}
}

var _ Store = (*projection.CrudStore)(nil)

// Healtz reports liveness; it never touches the event store.
func (s *CrudStoreService) Healtz(ctx context.Context) error {
	return nil
}

// Create validates the request, assigning a fresh UUIDv4 originator when
// the caller omits one, and appends a Created event.
func (s *CrudStoreService) Create(ctx context.Context, req CreateRequest) (res CreateResponse, err error) {
	err = s.run(ctx, func(ctx context.Context) error {
		if req.EntityType == "" {
			return apperrors.InvalidArgument("missing entity_type param")
		}
		if len(req.Payload) == 0 {
			return apperrors.InvalidArgument("missing payload")
		}

		o := req.Originator
		if o.Id == "" {
			o = originator.Originator{Id: uuid.NewString(), Version: "1"}
		}
		if err := originator.Validate(&o); err != nil {
			return err
		}

		created, err := s.store.Create(ctx, req.EntityType, o, req.Payload)
		if err != nil {
			return err
		}
		res = CreateResponse{Originator: created}
		return nil
	})
	return res, err
}

// Update validates the request (the caller must supply an id and
// version) and appends an Updated event.
func (s *CrudStoreService) Update(ctx context.Context, req UpdateRequest) (res UpdateResponse, err error) {
	err = s.run(ctx, func(ctx context.Context) error {
		if req.EntityType == "" {
			return apperrors.InvalidArgument("missing entity_type param")
		}
		if len(req.Payload) == 0 {
			return apperrors.InvalidArgument("missing payload")
		}
		if req.Originator.Id == "" {
			return apperrors.InvalidArgument("missing originator")
		}
		if req.Originator.Id == "" || req.Originator.Version == "" {
			return apperrors.InvalidArgument("originator has to have id and version on update")
		}
		if err := originator.Validate(&req.Originator); err != nil {
			return err
		}

		updated, err := s.store.Update(ctx, req.EntityType, req.Originator, req.Payload)
		if err != nil {
			return err
		}
		res = UpdateResponse{Originator: updated}
		return nil
	})
	return res, err
}

// Get validates the request and replays the entity's event stream.
func (s *CrudStoreService) Get(ctx context.Context, req GetRequest) (res GetResponse, err error) {
	err = s.run(ctx, func(ctx context.Context) error {
		if req.Originator.Id == "" {
			return apperrors.InvalidArgument("missing originator.id")
		}
		if err := originator.Validate(&req.Originator); err != nil {
			return err
		}
		if req.EntityType == "" {
			return apperrors.InvalidArgument("missing entity_type")
		}

		payload, latest, err := s.store.Get(ctx, req.EntityType, req.Originator, req.Deleted)
		if err != nil {
			return err
		}
		res = GetResponse{Payload: payload, Originator: *latest}
		return nil
	})
	return res, err
}

// Delete validates the request and appends a Deleted tombstone.
func (s *CrudStoreService) Delete(ctx context.Context, req DeleteRequest) (res DeleteResponse, err error) {
	err = s.run(ctx, func(ctx context.Context) error {
		if req.Originator.Id == "" {
			return apperrors.InvalidArgument("missing originator.id")
		}
		if err := originator.Validate(&req.Originator); err != nil {
			return err
		}
		if req.EntityType == "" {
			return apperrors.InvalidArgument("missing entity_type")
		}

		deleted, err := s.store.Delete(ctx, req.EntityType, req.Originator)
		if err != nil {
			return err
		}
		res = DeleteResponse{Originator: deleted}
		return nil
	})
	return res, err
}

// RegisterType, GetType, UpdateType, ListTypes and List are part of the
// wire contract's entity-type registry, but neither the original service
// nor this spec defines storage or validation semantics for it, so they
// are stubbed as unimplemented rather than backed by invented behavior.

// RegisterType is unimplemented; see the package-level note above.
func (s *CrudStoreService) RegisterType(ctx context.Context, req RegisterTypeRequest) (RegisterTypeResponse, error) {
	return RegisterTypeResponse{}, status.Error(codes.Unimplemented, "RegisterType is not implemented")
}

// GetType is unimplemented; see the package-level note above.
func (s *CrudStoreService) GetType(ctx context.Context, req GetTypeRequest) (GetTypeResponse, error) {
	return GetTypeResponse{}, status.Error(codes.Unimplemented, "GetType is not implemented")
}

// UpdateType is unimplemented; see the package-level note above.
func (s *CrudStoreService) UpdateType(ctx context.Context, req UpdateTypeRequest) (UpdateTypeResponse, error) {
	return UpdateTypeResponse{}, status.Error(codes.Unimplemented, "UpdateType is not implemented")
}

// ListTypes is unimplemented; see the package-level note above.
func (s *CrudStoreService) ListTypes(ctx context.Context, req ListTypesRequest) (ListTypesResponse, error) {
	return ListTypesResponse{}, status.Error(codes.Unimplemented, "ListTypes is not implemented")
}

// List is unimplemented; see the package-level note above.
func (s *CrudStoreService) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	return ListResponse{}, status.Error(codes.Unimplemented, "List is not implemented")
}

// run executes fn on the gateway worker pool and waits for it to
// complete, so every RPC handler is bounded by pools.Gateway's capacity.
func (s *CrudStoreService) run(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	submitErr := s.pools.Gateway.Submit(ctx, func(ctx context.Context) {
		done <- fn(ctx)
	})
	if submitErr != nil {
		return submitErr
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ToStatus maps a domain error onto a gRPC status error, the Go analogue
// of grpc_catch: a single place where every AppError.Kind becomes a
// status code.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		logger.Error("unclassified gateway error", zap.Error(err))
		return status.Error(codes.Internal, err.Error())
	}

	if appErr.Kind == apperrors.KindInternal {
		logger.Error("gateway internal error", zap.Error(appErr))
	}

	return status.Error(appErr.Kind.Code(), appErr.Message)
}
