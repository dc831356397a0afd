package mocks

import (
	"context"
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/podkeeper/internal/model"
)

var (
	_ model.ContextManager = (*ContextManager)(nil)
	_ model.SecurityLayer  = (*SecurityLayer)(nil)
)

// ContextManager mocks model.ContextManager.
type ContextManager struct {
	mock.Mock
}

func (m *ContextManager) SetSessionToContext(ctx context.Context, session model.Session) context.Context {
	args := m.Called(ctx, session)
	return args.Get(0).(context.Context)
}

func (m *ContextManager) GetSessionFromContext(ctx context.Context) (model.Session, bool) {
	args := m.Called(ctx)
	return args.Get(0).(model.Session), args.Bool(1)
}

// SecurityLayer mocks model.SecurityLayer.
type SecurityLayer struct {
	mock.Mock
}

func (m *SecurityLayer) Listen(network, addr string) (net.Listener, error) {
	args := m.Called(network, addr)
	ln, _ := args.Get(0).(net.Listener)
	return ln, args.Error(1)
}

// TokenService mocks the bearer token validator.
type TokenService struct {
	mock.Mock
}

func (m *TokenService) Session(token string) (model.Session, error) {
	args := m.Called(token)
	return args.Get(0).(model.Session), args.Error(1)
}

// DocumentService mocks the document operations served over gRPC.
type DocumentService struct {
	mock.Mock
}

func (m *DocumentService) Upload(ctx context.Context, session model.Session, params model.UploadParams) error {
	args := m.Called(ctx, session, params)
	return args.Error(0)
}

func (m *DocumentService) FetchLocation(ctx context.Context, session model.Session, docType model.DocumentType) (string, error) {
	args := m.Called(ctx, session, docType)
	return args.String(0), args.Error(1)
}

func (m *DocumentService) DeleteDocument(ctx context.Context, session model.Session, docType model.DocumentType) (string, error) {
	args := m.Called(ctx, session, docType)
	return args.String(0), args.Error(1)
}

func (m *DocumentService) DeleteContainer(ctx context.Context, session model.Session, containerURL string) error {
	args := m.Called(ctx, session, containerURL)
	return args.Error(0)
}

func (m *DocumentService) Documents(ctx context.Context, session model.Session, docType model.DocumentType) ([]model.DocumentRecord, error) {
	args := m.Called(ctx, session, docType)
	records, _ := args.Get(0).([]model.DocumentRecord)
	return records, args.Error(1)
}

func (m *DocumentService) Download(ctx context.Context, session model.Session, docType model.DocumentType, name string) (model.Resource, error) {
	args := m.Called(ctx, session, docType, name)
	return args.Get(0).(model.Resource), args.Error(1)
}

// AccessService mocks the permission operations served over gRPC.
type AccessService struct {
	mock.Mock
}

func (m *AccessService) SetPermission(ctx context.Context, session model.Session, subject string, docType model.DocumentType, capability model.Capability) error {
	args := m.Called(ctx, session, subject, docType, capability)
	return args.Error(0)
}

func (m *AccessService) Permissions(ctx context.Context, session model.Session, docType model.DocumentType) ([]model.AccessGrant, error) {
	args := m.Called(ctx, session, docType)
	grants, _ := args.Get(0).([]model.AccessGrant)
	return grants, args.Error(1)
}

// RosterService mocks the roster operations served over gRPC.
type RosterService struct {
	mock.Mock
}

func (m *RosterService) Add(ctx context.Context, session model.Session, subject string) (model.UserIdentity, error) {
	args := m.Called(ctx, session, subject)
	return args.Get(0).(model.UserIdentity), args.Error(1)
}

func (m *RosterService) Remove(ctx context.Context, session model.Session, subject string) error {
	args := m.Called(ctx, session, subject)
	return args.Error(0)
}

func (m *RosterService) List(ctx context.Context, session model.Session) ([]model.RosterMember, error) {
	args := m.Called(ctx, session)
	members, _ := args.Get(0).([]model.RosterMember)
	return members, args.Error(1)
}

func (m *RosterService) Refresh(ctx context.Context, session model.Session) ([]model.ActivityRecord, error) {
	args := m.Called(ctx, session)
	records, _ := args.Get(0).([]model.ActivityRecord)
	return records, args.Error(1)
}

func (m *RosterService) Snapshot(owner string) ([]model.ActivityRecord, bool) {
	args := m.Called(owner)
	records, _ := args.Get(0).([]model.ActivityRecord)
	return records, args.Bool(1)
}

// ActivityService mocks the activity stamp served over gRPC.
type ActivityService struct {
	mock.Mock
}

func (m *ActivityService) MarkActive(ctx context.Context, session model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
