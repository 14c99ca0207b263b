package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"faceted-catalog-service/internal/catalog"
	"faceted-catalog-service/internal/filter"
)

// CatalogQueryServiceName is the fully qualified gRPC service name.
const CatalogQueryServiceName = "catalog.v1.CatalogQuery"

// CatalogQueryServer is the server API of catalog.v1.CatalogQuery. Requests
// and responses are google.protobuf.Struct values shaped like the HTTP
// query string and JSON body.
type CatalogQueryServer interface {
	BrowseCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// CatalogQueryServiceDesc describes catalog.v1.CatalogQuery for grpc.Server.RegisterService.
var CatalogQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogQueryServiceName,
	HandlerType: (*CatalogQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BrowseCategory", Handler: unaryHandler("BrowseCategory", CatalogQueryServer.BrowseCategory)},
		{MethodName: "GetCategory", Handler: unaryHandler("GetCategory", CatalogQueryServer.GetCategory)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/catalog.proto",
}

// RegisterCatalogQueryServer registers srv on s.
func RegisterCatalogQueryServer(s grpc.ServiceRegistrar, srv CatalogQueryServer) {
	s.RegisterService(&CatalogQueryServiceDesc, srv)
}

type structMethod func(CatalogQueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, method structMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + CatalogQueryServiceName + "/" + name
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(CatalogQueryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(CatalogQueryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCHandler implements CatalogQueryServer.
type GRPCHandler struct {
	service CatalogService
	logger  zerolog.Logger
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(service CatalogService, logger zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{
		service: service,
		logger:  logger.With().Str("component", "grpc").Logger(),
	}
}

// --- Helper: Error Mapping ---
func (s *GRPCHandler) mapCatalogErrorToGrpcStatus(err error, category string) error {
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		return status.Errorf(codes.NotFound, "category %q not found", category)
	}
	s.logger.Error().Err(err).Str("category", category).Msg("catalog request failed")
	return status.Error(codes.Internal, catalog.ErrQueryFailed.Error())
}

func (s *GRPCHandler) BrowseCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	values, err := structToValues(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid browse request: %v", err)
	}
	q := filter.Parse(values)

	resp, err := s.service.Browse(ctx, q)
	if err != nil {
		return nil, s.mapCatalogErrorToGrpcStatus(err, q.Filters.CategorySlug)
	}
	return toStruct(resp)
}

func (s *GRPCHandler) GetCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	slug := req.GetFields()["slug"].GetStringValue()
	if slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	details, err := s.service.Category(ctx, slug)
	if err != nil {
		return nil, s.mapCatalogErrorToGrpcStatus(err, slug)
	}
	return toStruct(details)
}

// structToValues flattens a request struct into query values. Lists become
// repeated keys; nested structs are rejected.
func structToValues(req *structpb.Struct) (url.Values, error) {
	values := url.Values{}
	for key, v := range req.GetFields() {
		if list := v.GetListValue(); list != nil {
			for _, item := range list.GetValues() {
				s, err := scalarString(item)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				values.Add(key, s)
			}
			continue
		}
		s, err := scalarString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		values.Add(key, s)
	}
	return values, nil
}

func scalarString(v *structpb.Value) (string, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), nil
	case *structpb.Value_NullValue:
		return "", nil
	default:
		return "", errors.New("nested values are not supported")
	}
}

// toStruct converts a JSON-tagged response into a Struct with the same shape
// as the HTTP body.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}
