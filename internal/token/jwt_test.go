package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/podkeeper/internal/model"
)

const webID = "https://worker.opencommons.net/profile/card#me"

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWT_Session_Roundtrip(t *testing.T) {
	j := NewJWT("secret", time.Hour)

	token, err := j.Issue(webID)
	require.NoError(t, err)

	session, err := j.Session(token)
	require.NoError(t, err)
	assert.Equal(t, webID, session.Identity.Identifier)
	assert.Equal(t, "https://worker.opencommons.net/", session.Identity.RootURL)
	assert.Equal(t, token, session.Credential)
}

func TestJWT_Session_Errors(t *testing.T) {
	j := NewJWT("secret", time.Hour)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		token   string
		wantErr error
		wantMsg string
	}{
		{
			name:    "garbage",
			token:   "not-a-token",
			wantMsg: "failed to parse access token",
		},
		{
			name:    "wrong secret",
			token:   sign(t, "other", jwt.SigningMethodHS256, Claims{WebID: webID, TokenType: typeAccess}),
			wantErr: jwt.ErrTokenSignatureInvalid,
		},
		{
			name: "expired",
			token: sign(t, "secret", jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
				WebID:            webID,
				TokenType:        typeAccess,
			}),
			wantErr: jwt.ErrTokenExpired,
		},
		{
			name: "wrong type",
			token: sign(t, "secret", jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
				WebID:            webID,
				TokenType:        "refresh",
			}),
			wantMsg: "token type mismatch",
		},
		{
			name: "no webid",
			token: sign(t, "secret", jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
				TokenType:        typeAccess,
			}),
			wantErr: ErrMissingWebID,
		},
		{
			name: "webid without profile",
			token: sign(t, "secret", jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
				WebID:            "https://worker.opencommons.net/",
				TokenType:        typeAccess,
			}),
			wantErr: model.ErrMissingRoot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.Session(tt.token)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestJWT_Session_SubjectFallback(t *testing.T) {
	j := NewJWT("secret", time.Hour)
	token := sign(t, "secret", jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: webID},
		TokenType:        typeAccess,
	})

	session, err := j.Session(token)
	require.NoError(t, err)
	assert.Equal(t, webID, session.Identity.Identifier)
}
