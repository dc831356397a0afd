// Package mocks contains testify mocks of the model interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/podkeeper/internal/model"
)

var (
	_ model.Gateway     = (*Gateway)(nil)
	_ model.RosterStore = (*RosterStore)(nil)
)

// Gateway mocks model.Gateway.
type Gateway struct {
	mock.Mock
}

func (m *Gateway) CreateContainer(ctx context.Context, s model.Session, url string) error {
	args := m.Called(ctx, s, url)
	return args.Error(0)
}

func (m *Gateway) ReadResource(ctx context.Context, s model.Session, url string) (model.Resource, error) {
	args := m.Called(ctx, s, url)
	return args.Get(0).(model.Resource), args.Error(1)
}

func (m *Gateway) WriteResource(ctx context.Context, s model.Session, containerURL string, data []byte, opts model.WriteOptions) (string, error) {
	args := m.Called(ctx, s, containerURL, data, opts)
	return args.String(0), args.Error(1)
}

func (m *Gateway) ListContainer(ctx context.Context, s model.Session, containerURL string) ([]string, error) {
	args := m.Called(ctx, s, containerURL)
	children, _ := args.Get(0).([]string)
	return children, args.Error(1)
}

func (m *Gateway) ReadDataset(ctx context.Context, s model.Session, url string) (*model.Dataset, error) {
	args := m.Called(ctx, s, url)
	ds, _ := args.Get(0).(*model.Dataset)
	return ds, args.Error(1)
}

func (m *Gateway) CreateDataset(ctx context.Context, s model.Session, url string, ds *model.Dataset) error {
	args := m.Called(ctx, s, url, ds)
	return args.Error(0)
}

func (m *Gateway) WriteDataset(ctx context.Context, s model.Session, url string, ds *model.Dataset) error {
	args := m.Called(ctx, s, url, ds)
	return args.Error(0)
}

func (m *Gateway) DeleteResource(ctx context.Context, s model.Session, url string) error {
	args := m.Called(ctx, s, url)
	return args.Error(0)
}

func (m *Gateway) DeleteContainer(ctx context.Context, s model.Session, url string) error {
	args := m.Called(ctx, s, url)
	return args.Error(0)
}

func (m *Gateway) ReadAccessControl(ctx context.Context, s model.Session, resourceURL string) (*model.AccessControl, error) {
	args := m.Called(ctx, s, resourceURL)
	acl, _ := args.Get(0).(*model.AccessControl)
	return acl, args.Error(1)
}

func (m *Gateway) WriteAccessControl(ctx context.Context, s model.Session, resourceURL string, acl *model.AccessControl) error {
	args := m.Called(ctx, s, resourceURL, acl)
	return args.Error(0)
}

// RosterStore mocks model.RosterStore.
type RosterStore struct {
	mock.Mock
}

func (m *RosterStore) Add(ctx context.Context, ownerID string, member model.UserIdentity) error {
	args := m.Called(ctx, ownerID, member)
	return args.Error(0)
}

func (m *RosterStore) Remove(ctx context.Context, ownerID string, memberID string) error {
	args := m.Called(ctx, ownerID, memberID)
	return args.Error(0)
}

func (m *RosterStore) List(ctx context.Context, ownerID string) ([]model.RosterMember, error) {
	args := m.Called(ctx, ownerID)
	members, _ := args.Get(0).([]model.RosterMember)
	return members, args.Error(1)
}
