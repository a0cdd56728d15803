package handlers

import (
	"context"
	"encoding/json"

	"github.com/gartstein/placement/internal/placement/auth"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "placement.v1.PlacementService"

// FullMethod returns the gRPC method path of the named operation.
func FullMethod(name string) string {
	return "/" + serviceName + "/" + name
}

// PublicMethods lists the full gRPC methods that anonymous callers may use.
func PublicMethods() []string {
	var methods []string
	for _, op := range operations {
		if op.public {
			methods = append(methods, FullMethod(op.name))
		}
	}
	return methods
}

// PlacementServer is the server API of the PlacementService. Every method
// takes and returns a JSON object carried as a protobuf Struct.
type PlacementServer interface {
	Invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error)
}

// PlacementHandler provides gRPC methods for workflow operations,
// mapping requests to a PlacementController.
type PlacementHandler struct {
	service PlacementController
	logger  *zap.Logger
}

var _ PlacementServer = (*PlacementHandler)(nil)

// NewPlacementHandler constructs a new PlacementHandler with the given service and logger.
func NewPlacementHandler(service PlacementController, logger *zap.Logger) *PlacementHandler {
	return &PlacementHandler{
		service: service,
		logger:  logger.Named("grpc_handler"),
	}
}

// Invoke decodes req into the named operation's request, runs it on behalf of
// the caller stored in ctx and encodes the result.
func (h *PlacementHandler) Invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	op, ok := lookupOperation(method)
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", method)
	}

	actor, _ := auth.IdentityFromContext(ctx)
	if actor.Anonymous() && !op.public {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	raw, err := structToJSON(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	decode := func(v interface{}) error {
		if err := json.Unmarshal(raw, v); err != nil {
			return invalidInput(err)
		}
		return nil
	}

	result, err := op.invoke(ctx, h.service, actor, decode)
	if err != nil {
		h.logger.Debug("Operation failed",
			zap.String("method", method),
			zap.Int64("user_id", actor.UserID),
			zap.String("role", roleOf(actor)),
			zap.Error(err),
		)
		return nil, mapServiceError(h.logger, err)
	}

	out, err := jsonToStruct(result)
	if err != nil {
		h.logger.Error("Failed to encode response", zap.String("method", method), zap.Error(err))
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

// methodHandler adapts a single operation to the grpc.MethodDesc handler shape.
func methodHandler(name string) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return srv.(PlacementServer).Invoke(ctx, name, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(name),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(PlacementServer).Invoke(ctx, name, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// serviceDesc describes the PlacementService for grpc.Server registration.
func serviceDesc() *grpc.ServiceDesc {
	methods := make([]grpc.MethodDesc, 0, len(operations))
	for _, op := range operations {
		methods = append(methods, grpc.MethodDesc{
			MethodName: op.name,
			Handler:    methodHandler(op.name),
		})
	}
	return &grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*PlacementServer)(nil),
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    "placement/v1/placement.proto",
	}
}

// RegisterPlacementServiceServer registers srv on s.
func RegisterPlacementServiceServer(s grpc.ServiceRegistrar, srv PlacementServer) {
	s.RegisterService(serviceDesc(), srv)
}
