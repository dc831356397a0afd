package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const AccessServiceName = "podkeeper.Access"

const (
	Access_SetPermission_FullMethodName   = "/podkeeper.Access/SetPermission"
	Access_ListPermissions_FullMethodName = "/podkeeper.Access/ListPermissions"
)

// AccessServer shares document containers with other pods.
type AccessServer interface {
	SetPermission(context.Context, *SetPermissionRequest) (*Empty, error)
	ListPermissions(context.Context, *DocumentTypeRequest) (*ListPermissionsResponse, error)
}

var Access_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AccessServiceName,
	HandlerType: (*AccessServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AccessServiceName, "SetPermission", func(srv any, ctx context.Context, req *SetPermissionRequest) (*Empty, error) {
			return srv.(AccessServer).SetPermission(ctx, req)
		}),
		unary(AccessServiceName, "ListPermissions", func(srv any, ctx context.Context, req *DocumentTypeRequest) (*ListPermissionsResponse, error) {
			return srv.(AccessServer).ListPermissions(ctx, req)
		}),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterAccessServer(s grpc.ServiceRegistrar, srv AccessServer) {
	s.RegisterService(&Access_ServiceDesc, srv)
}

// AccessClient calls the Access service.
type AccessClient struct {
	cc grpc.ClientConnInterface
}

func NewAccessClient(cc grpc.ClientConnInterface) *AccessClient {
	return &AccessClient{cc: cc}
}

func (c *AccessClient) SetPermission(ctx context.Context, in *SetPermissionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Access_SetPermission_FullMethodName, in, opts)
}

func (c *AccessClient) ListPermissions(ctx context.Context, in *DocumentTypeRequest, opts ...grpc.CallOption) (*ListPermissionsResponse, error) {
	return invoke[ListPermissionsResponse](ctx, c.cc, Access_ListPermissions_FullMethodName, in, opts)
}
