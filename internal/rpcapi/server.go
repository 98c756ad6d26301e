package rpcapi

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/makkalot/eskit/internal/gateway"
	"github.com/makkalot/eskit/internal/originator"
)

// ServiceName is the fully-qualified gRPC service name the gateway
// registers under.
const ServiceName = "eskit.crudstore.CrudStoreService"

// wireOriginator and the wire*Request/Response types below are the JSON
// wire shapes exchanged over the codec; they mirror gateway's
// request/response structs field-for-field, and each handler copies the
// fields across, converting originators with originatorFromWire and
// originatorToWire.

type wireHealtzRequest struct{}
type wireHealtzResponse struct{}

type wireCreateRequest struct {
	EntityType string          `json:"entity_type"`
	Originator wireOriginator  `json:"originator"`
	Payload    json.RawMessage `json:"payload"`
}
type wireCreateResponse struct {
	Originator wireOriginator `json:"originator"`
}

type wireUpdateRequest struct {
	EntityType string          `json:"entity_type"`
	Originator wireOriginator  `json:"originator"`
	Payload    json.RawMessage `json:"payload"`
}
type wireUpdateResponse struct {
	Originator wireOriginator `json:"originator"`
}

type wireGetRequest struct {
	EntityType string         `json:"entity_type"`
	Originator wireOriginator `json:"originator"`
	Deleted    bool           `json:"deleted"`
}
type wireGetResponse struct {
	Payload    json.RawMessage `json:"payload"`
	Originator wireOriginator  `json:"originator"`
}

type wireDeleteRequest struct {
	EntityType string         `json:"entity_type"`
	Originator wireOriginator `json:"originator"`
}
type wireDeleteResponse struct {
	Originator wireOriginator `json:"originator"`
}

type wireOriginator struct {
	Id      string `json:"id"`
	Version string `json:"version"`
}

// The entity-type registry RPCs below are stubs: the wire contract names
// them but neither source defines storage or validation semantics, so
// they always return codes.Unimplemented.

type wireRegisterTypeRequest struct {
	EntityType string          `json:"entity_type"`
	Spec       json.RawMessage `json:"spec"`
}
type wireRegisterTypeResponse struct{}

type wireGetTypeRequest struct {
	EntityType string `json:"entity_type"`
}
type wireGetTypeResponse struct {
	Spec json.RawMessage `json:"spec"`
}

type wireUpdateTypeRequest struct {
	EntityType string          `json:"entity_type"`
	Spec       json.RawMessage `json:"spec"`
}
type wireUpdateTypeResponse struct{}

type wireListTypesRequest struct {
	PageToken string `json:"page_token"`
}
type wireListTypesResponse struct {
	EntityTypes   []string `json:"entity_types"`
	NextPageToken string   `json:"next_page_token"`
}

type wireListRequest struct {
	EntityType string `json:"entity_type"`
	PageToken  string `json:"page_token"`
}
type wireListResponse struct {
	Payloads      []json.RawMessage `json:"payloads"`
	NextPageToken string            `json:"next_page_token"`
}

// Each *Handler function below adapts *gateway.CrudStoreService to the
// grpc.methodHandler signature, decoding the request with dec and mapping
// any returned error onto a gRPC status via gateway.ToStatus.
func healtzHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireHealtzRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	if err := svc.Healtz(ctx); err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireHealtzResponse{}, nil
}

func createHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireCreateRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	res, err := svc.Create(ctx, gateway.CreateRequest{
		EntityType: req.EntityType,
		Originator: originatorFromWire(req.Originator),
		Payload:    req.Payload,
	})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireCreateResponse{Originator: originatorToWire(res.Originator)}, nil
}

func updateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireUpdateRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	res, err := svc.Update(ctx, gateway.UpdateRequest{
		EntityType: req.EntityType,
		Originator: originatorFromWire(req.Originator),
		Payload:    req.Payload,
	})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireUpdateResponse{Originator: originatorToWire(res.Originator)}, nil
}

func getHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireGetRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	res, err := svc.Get(ctx, gateway.GetRequest{
		EntityType: req.EntityType,
		Originator: originatorFromWire(req.Originator),
		Deleted:    req.Deleted,
	})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireGetResponse{Payload: res.Payload, Originator: originatorToWire(res.Originator)}, nil
}

func deleteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireDeleteRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	res, err := svc.Delete(ctx, gateway.DeleteRequest{
		EntityType: req.EntityType,
		Originator: originatorFromWire(req.Originator),
	})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireDeleteResponse{Originator: originatorToWire(res.Originator)}, nil
}

func registerTypeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireRegisterTypeRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	_, err := svc.RegisterType(ctx, gateway.RegisterTypeRequest{EntityType: req.EntityType, Spec: req.Spec})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireRegisterTypeResponse{}, nil
}

func getTypeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireGetTypeRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	res, err := svc.GetType(ctx, gateway.GetTypeRequest{EntityType: req.EntityType})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireGetTypeResponse{Spec: res.Spec}, nil
}

func updateTypeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireUpdateTypeRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	_, err := svc.UpdateType(ctx, gateway.UpdateTypeRequest{EntityType: req.EntityType, Spec: req.Spec})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireUpdateTypeResponse{}, nil
}

func listTypesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireListTypesRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	res, err := svc.ListTypes(ctx, gateway.ListTypesRequest{PageToken: req.PageToken})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	return &wireListTypesResponse{EntityTypes: res.EntityTypes, NextPageToken: res.NextPageToken}, nil
}

func listHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req wireListRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	svc := srv.(*gateway.CrudStoreService)
	res, err := svc.List(ctx, gateway.ListRequest{EntityType: req.EntityType, PageToken: req.PageToken})
	if err != nil {
		return nil, gateway.ToStatus(err)
	}
	payloads := make([]json.RawMessage, len(res.Payloads))
	for i, p := range res.Payloads {
		payloads[i] = p
	}
	return &wireListResponse{Payloads: payloads, NextPageToken: res.NextPageToken}, nil
}

// ServiceDesc is the hand-written grpc.ServiceDesc that stands in for a
// generated one. Method names match the original Python service's RPC
// names so the two implementations are interoperable in spirit.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Healtz", Handler: healtzHandler},
		{MethodName: "Create", Handler: createHandler},
		{MethodName: "Update", Handler: updateHandler},
		{MethodName: "Get", Handler: getHandler},
		{MethodName: "Delete", Handler: deleteHandler},
		{MethodName: "RegisterType", Handler: registerTypeHandler},
		{MethodName: "GetType", Handler: getTypeHandler},
		{MethodName: "UpdateType", Handler: updateTypeHandler},
		{MethodName: "ListTypes", Handler: listTypesHandler},
		{MethodName: "List", Handler: listHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eskit/crudstore.proto",
}

// Register registers the gateway on server s. The codec is not set here:
// it is whatever s was built with (cmd/server forces JSONCodec).
func Register(s *grpc.Server, svc *gateway.CrudStoreService) {
	s.RegisterService(&ServiceDesc, svc)
}

func originatorFromWire(o wireOriginator) originator.Originator {
	return originator.Originator{Id: o.Id, Version: o.Version}
}

func originatorToWire(o originator.Originator) wireOriginator {
	return wireOriginator{Id: o.Id, Version: o.Version}
}
