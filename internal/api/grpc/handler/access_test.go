package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/podkeeper/internal/api/grpc/rpc"
	"github.com/dtroode/podkeeper/internal/mocks"
	"github.com/dtroode/podkeeper/internal/model"
	"github.com/dtroode/podkeeper/internal/testutil"
)

func TestAccess_SetPermission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		capability map[string]bool
		svcErr     error
		wantCode   codes.Code
		callsSvc   bool
	}{
		{
			name:       "grant and revoke",
			capability: map[string]bool{"Read": true, "Write": false},
			wantCode:   codes.OK,
			callsSvc:   true,
		},
		{
			name:       "unknown mode",
			capability: map[string]bool{"Delete": true},
			svcErr:     fmt.Errorf("%w: unknown access mode %q", model.ErrValidation, "Delete"),
			wantCode:   codes.InvalidArgument,
			callsSvc:   true,
		},
		{
			name:       "self grant rejected",
			capability: map[string]bool{"Read": true},
			svcErr:     model.ErrSelfGrantRejected,
			wantCode:   codes.InvalidArgument,
			callsSvc:   true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mocks.AccessService{}
			if tt.callsSvc {
				want := model.Capability{}
				for name, granted := range tt.capability {
					want[model.Mode(name)] = granted
				}
				svc.On("SetPermission", mock.Anything, alice, "https://pods.example/bob/", model.DocumentTypePassport, want).Return(tt.svcErr)
			}

			h := NewAccess(svc, withSession(), testutil.MakeNoopLogger())
			_, err := h.SetPermission(context.Background(), &rpc.SetPermissionRequest{
				Subject:      "https://pods.example/bob/",
				DocumentType: "Passport",
				Capability:   tt.capability,
			})
			assert.Equal(t, tt.wantCode, status.Code(err))
			svc.AssertExpectations(t)
		})
	}
}

func TestAccess_ListPermissions(t *testing.T) {
	t.Parallel()

	svc := &mocks.AccessService{}
	svc.On("Permissions", mock.Anything, alice, model.DocumentTypePassport).Return([]model.AccessGrant{
		{
			Subject: model.UserIdentity{Identifier: "https://pods.example/bob/profile/card#me", RootURL: "https://pods.example/bob/"},
			Read:    true,
			Write:   true,
		},
	}, nil)

	h := NewAccess(svc, withSession(), testutil.MakeNoopLogger())
	resp, err := h.ListPermissions(context.Background(), &rpc.DocumentTypeRequest{DocumentType: "Passport"})
	require.NoError(t, err)
	assert.Equal(t, []rpc.Grant{{
		Identifier: "https://pods.example/bob/profile/card#me",
		RootURL:    "https://pods.example/bob/",
		Read:       true,
		Write:      true,
	}}, resp.Grants)
}

func TestAccess_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := NewAccess(&mocks.AccessService{}, withoutSession(), testutil.MakeNoopLogger())

	_, err := h.SetPermission(context.Background(), &rpc.SetPermissionRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = h.ListPermissions(context.Background(), &rpc.DocumentTypeRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
