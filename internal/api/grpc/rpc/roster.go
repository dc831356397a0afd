package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const RosterServiceName = "podkeeper.Roster"

const (
	Roster_AddMember_FullMethodName       = "/podkeeper.Roster/AddMember"
	Roster_RemoveMember_FullMethodName    = "/podkeeper.Roster/RemoveMember"
	Roster_ListMembers_FullMethodName     = "/podkeeper.Roster/ListMembers"
	Roster_RefreshActivity_FullMethodName = "/podkeeper.Roster/RefreshActivity"
	Roster_GetSnapshot_FullMethodName     = "/podkeeper.Roster/GetSnapshot"
	Roster_MarkActive_FullMethodName      = "/podkeeper.Roster/MarkActive"
)

// RosterServer manages the users a caseworker tracks and their activity.
type RosterServer interface {
	AddMember(context.Context, *MemberRequest) (*Member, error)
	RemoveMember(context.Context, *MemberRequest) (*Empty, error)
	ListMembers(context.Context, *Empty) (*ListMembersResponse, error)
	RefreshActivity(context.Context, *Empty) (*ActivityResponse, error)
	GetSnapshot(context.Context, *Empty) (*ActivityResponse, error)
	MarkActive(context.Context, *Empty) (*Empty, error)
}

var Roster_ServiceDesc = grpc.ServiceDesc{
	ServiceName: RosterServiceName,
	HandlerType: (*RosterServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(RosterServiceName, "AddMember", func(srv any, ctx context.Context, req *MemberRequest) (*Member, error) {
			return srv.(RosterServer).AddMember(ctx, req)
		}),
		unary(RosterServiceName, "RemoveMember", func(srv any, ctx context.Context, req *MemberRequest) (*Empty, error) {
			return srv.(RosterServer).RemoveMember(ctx, req)
		}),
		unary(RosterServiceName, "ListMembers", func(srv any, ctx context.Context, req *Empty) (*ListMembersResponse, error) {
			return srv.(RosterServer).ListMembers(ctx, req)
		}),
		unary(RosterServiceName, "RefreshActivity", func(srv any, ctx context.Context, req *Empty) (*ActivityResponse, error) {
			return srv.(RosterServer).RefreshActivity(ctx, req)
		}),
		unary(RosterServiceName, "GetSnapshot", func(srv any, ctx context.Context, req *Empty) (*ActivityResponse, error) {
			return srv.(RosterServer).GetSnapshot(ctx, req)
		}),
		unary(RosterServiceName, "MarkActive", func(srv any, ctx context.Context, req *Empty) (*Empty, error) {
			return srv.(RosterServer).MarkActive(ctx, req)
		}),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterRosterServer(s grpc.ServiceRegistrar, srv RosterServer) {
	s.RegisterService(&Roster_ServiceDesc, srv)
}

// RosterClient calls the Roster service.
type RosterClient struct {
	cc grpc.ClientConnInterface
}

func NewRosterClient(cc grpc.ClientConnInterface) *RosterClient {
	return &RosterClient{cc: cc}
}

func (c *RosterClient) AddMember(ctx context.Context, in *MemberRequest, opts ...grpc.CallOption) (*Member, error) {
	return invoke[Member](ctx, c.cc, Roster_AddMember_FullMethodName, in, opts)
}

func (c *RosterClient) RemoveMember(ctx context.Context, in *MemberRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Roster_RemoveMember_FullMethodName, in, opts)
}

func (c *RosterClient) ListMembers(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListMembersResponse, error) {
	return invoke[ListMembersResponse](ctx, c.cc, Roster_ListMembers_FullMethodName, in, opts)
}

func (c *RosterClient) RefreshActivity(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ActivityResponse, error) {
	return invoke[ActivityResponse](ctx, c.cc, Roster_RefreshActivity_FullMethodName, in, opts)
}

func (c *RosterClient) GetSnapshot(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ActivityResponse, error) {
	return invoke[ActivityResponse](ctx, c.cc, Roster_GetSnapshot_FullMethodName, in, opts)
}

func (c *RosterClient) MarkActive(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Roster_MarkActive_FullMethodName, in, opts)
}
