package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/podkeeper/internal/mocks"
	"github.com/dtroode/podkeeper/internal/model"
	"github.com/dtroode/podkeeper/internal/testutil"
)

func TestAuthenticate_AuthFunc(t *testing.T) {
	t.Parallel()

	valid := model.Session{
		Identity:   model.UserIdentity{Identifier: "https://pods.example/alice/profile/card#me", RootURL: "https://pods.example/alice/"},
		Credential: "token",
	}

	tests := []struct {
		name         string
		mdAuthHeader string
		session      model.Session
		tokenSvcErr  error
		wantErr      bool
	}{
		{
			name:    "missing authorization header",
			wantErr: true,
		},
		{
			name:         "invalid token",
			mdAuthHeader: "Bearer invalid",
			tokenSvcErr:  errors.New("signature is invalid"),
			wantErr:      true,
		},
		{
			name:         "session without pod root",
			mdAuthHeader: "Bearer token",
			session:      model.Session{Credential: "token"},
			wantErr:      true,
		},
		{
			name:         "valid token",
			mdAuthHeader: "Bearer token",
			session:      valid,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cm := &mocks.ContextManager{}
			svc := &mocks.TokenService{}
			if tt.mdAuthHeader != "" {
				svc.On("Session", mock.AnythingOfType("string")).Return(tt.session, tt.tokenSvcErr)
			}
			if !tt.wantErr {
				cm.On("SetSessionToContext", mock.Anything, tt.session).Return(context.Background())
			}
			m := NewAuthenticate(svc, cm, testutil.MakeNoopLogger())

			ctx := context.Background()
			if tt.mdAuthHeader != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.mdAuthHeader))
			}

			newCtx, err := m.AuthFunc(ctx)

			if tt.wantErr {
				st, ok := status.FromError(err)
				assert.True(t, ok)
				assert.Equal(t, codes.Unauthenticated, st.Code())
				assert.Nil(t, newCtx)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, newCtx)
			}
			cm.AssertExpectations(t)
			svc.AssertExpectations(t)
		})
	}
}
