package router

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	grpcctx "github.com/dtroode/podkeeper/internal/api/grpc/context"
	"github.com/dtroode/podkeeper/internal/api/grpc/rpc"
	"github.com/dtroode/podkeeper/internal/mocks"
	"github.com/dtroode/podkeeper/internal/model"
	"github.com/dtroode/podkeeper/internal/service"
	"github.com/dtroode/podkeeper/internal/storage/memory"
	"github.com/dtroode/podkeeper/internal/testutil"
	"github.com/dtroode/podkeeper/internal/token"
)

const (
	aliceWebID = "https://alice.opencommons.net/profile/card#me"
	bobWebID   = "https://bob.opencommons.net/profile/card#me"
)

func TestRouter_Register(t *testing.T) {
	t.Parallel()

	r := New(nil, nil, nil, nil, nil, &mocks.ContextManager{}, testutil.MakeNoopLogger())
	s := r.Register()
	require.NotNil(t, s)

	services := s.GetServiceInfo()
	assert.Contains(t, services, rpc.DocumentsServiceName)
	assert.Contains(t, services, rpc.AccessServiceName)
	assert.Contains(t, services, rpc.RosterServiceName)
	assert.Contains(t, services, healthpb.Health_ServiceDesc.ServiceName)
}

type fixture struct {
	conn    *grpc.ClientConn
	gateway *memory.Gateway
	store   *mocks.RosterStore
	token   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := testutil.MakeNoopLogger()
	jwt := token.NewJWT("secret", time.Hour)
	g := memory.New()
	store := &mocks.RosterStore{}

	activity := service.NewActivity(g, log, 0)
	r := New(
		service.NewDocument(g, log),
		service.NewAccess(g, log, "https://opencommons.net"),
		service.NewRoster(store, activity, log, "https://opencommons.net", time.Minute),
		activity,
		jwt,
		grpcctx.NewManager(),
		log,
	)
	s := r.Register()

	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	tok, err := jwt.Issue(aliceWebID)
	require.NoError(t, err)

	return &fixture{conn: conn, gateway: g, store: store, token: tok}
}

func (f *fixture) authorized() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+f.token)
}

func TestRouter_Documents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := rpc.NewDocumentsClient(f.conn)
	ctx := f.authorized()

	_, err := client.Upload(ctx, &rpc.UploadRequest{
		DocumentType: "Passport",
		FileName:     "my passport.pdf",
		MimeType:     "application/pdf",
		Data:         []byte("%PDF"),
		Description:  "first",
	})
	require.NoError(t, err)

	location, err := client.FetchLocation(ctx, &rpc.DocumentTypeRequest{DocumentType: "Passport"})
	require.NoError(t, err)
	assert.Equal(t, "https://alice.opencommons.net/Passport/", location.URL)

	list, err := client.ListDocuments(ctx, &rpc.DocumentTypeRequest{DocumentType: "Passport"})
	require.NoError(t, err)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "my passport.pdf", list.Documents[0].Name)
	assert.Equal(t, "my-passport.pdf", list.Documents[0].Resource)
	assert.Equal(t, "first", list.Documents[0].Description)

	file, err := client.Download(ctx, &rpc.DownloadRequest{DocumentType: "Passport", Name: list.Documents[0].Resource})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), file.Data)

	_, err = client.Upload(ctx, &rpc.UploadRequest{DocumentType: "Passport", FileName: "my-passport.pdf", Data: []byte("other")})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.Upload(ctx, &rpc.UploadRequest{DocumentType: "Receipt", FileName: "r.pdf", Data: []byte("x")})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.DeleteContainer(ctx, &rpc.DeleteContainerRequest{ContainerURL: location.URL})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	deleted, err := client.DeleteDocument(ctx, &rpc.DocumentTypeRequest{DocumentType: "Passport"})
	require.NoError(t, err)
	assert.Equal(t, location.URL, deleted.URL)

	_, err = client.DeleteContainer(ctx, &rpc.DeleteContainerRequest{ContainerURL: location.URL})
	require.NoError(t, err)
	assert.False(t, f.gateway.Exists(location.URL))
}

func TestRouter_Access(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := rpc.NewAccessClient(f.conn)
	ctx := f.authorized()

	_, err := rpc.NewDocumentsClient(f.conn).Upload(ctx, &rpc.UploadRequest{DocumentType: "Passport", FileName: "p.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	_, err = client.SetPermission(ctx, &rpc.SetPermissionRequest{
		Subject:      bobWebID,
		DocumentType: "Passport",
		Capability:   map[string]bool{"Read": true, "Append": true},
	})
	require.NoError(t, err)

	grants, err := client.ListPermissions(ctx, &rpc.DocumentTypeRequest{DocumentType: "Passport"})
	require.NoError(t, err)
	assert.Equal(t, []rpc.Grant{{
		Identifier: bobWebID,
		RootURL:    "https://bob.opencommons.net/",
		Read:       true,
		Append:     true,
	}}, grants.Grants)

	_, err = client.SetPermission(ctx, &rpc.SetPermissionRequest{
		Subject:      aliceWebID,
		DocumentType: "Passport",
		Capability:   map[string]bool{"Read": true},
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRouter_Roster(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := rpc.NewRosterClient(f.conn)
	ctx := f.authorized()

	bob := model.UserIdentity{Identifier: bobWebID, RootURL: "https://bob.opencommons.net/"}
	f.store.On("Add", mock.Anything, aliceWebID, bob).Return(nil)
	f.store.On("List", mock.Anything, aliceWebID).Return([]model.RosterMember{{UserIdentity: bob}}, nil)

	member, err := client.AddMember(ctx, &rpc.MemberRequest{Subject: "bob"})
	require.NoError(t, err)
	assert.Equal(t, bob.RootURL, member.RootURL)

	members, err := client.ListMembers(ctx, &rpc.Empty{})
	require.NoError(t, err)
	require.Len(t, members.Members, 1)

	_, err = client.MarkActive(ctx, &rpc.Empty{})
	require.NoError(t, err)

	fresh, err := client.GetSnapshot(ctx, &rpc.Empty{})
	require.NoError(t, err)
	assert.False(t, fresh.Cached)
	require.Len(t, fresh.Records, 1)
	assert.Nil(t, fresh.Records[0].LastActive)

	cached, err := client.GetSnapshot(ctx, &rpc.Empty{})
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	f.store.AssertExpectations(t)
}

func TestRouter_Authentication(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := rpc.NewDocumentsClient(f.conn).FetchLocation(context.Background(), &rpc.DocumentTypeRequest{DocumentType: "Passport"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	spoofed := metadata.AppendToOutgoingContext(context.Background(),
		"authorization", "Bearer forged",
		"x-webid", bobWebID)
	_, err = rpc.NewRosterClient(f.conn).ListMembers(spoofed, &rpc.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	health, err := healthpb.NewHealthClient(f.conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)
}
