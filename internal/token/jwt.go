package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/podkeeper/internal/locator"
	"github.com/dtroode/podkeeper/internal/model"
)

// ErrMissingWebID is returned for tokens that do not name a WebID.
var ErrMissingWebID = errors.New("token has no webid claim")

// Claims represents JWT claims carrying the caller's WebID.
type Claims struct {
	jwt.RegisteredClaims
	WebID     string `json:"webid"`
	TokenType string `json:"typ"`
}

// JWT turns bearer credentials into sessions, verifying them with a
// symmetric HMAC key.
type JWT struct {
	secretKey string
	ttl       time.Duration
}

// NewJWT creates a new JWT manager with the provided secret key. Issued
// tokens live for ttl.
func NewJWT(secretKey string, ttl time.Duration) *JWT {
	return &JWT{secretKey: secretKey, ttl: ttl}
}

const typeAccess = "access"

// Issue creates an access token for webID.
func (j *JWT) Issue(webID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   webID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		WebID:     webID,
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// Session validates tokenString and returns the session it grants. The token
// itself becomes the session credential.
func (j *JWT) Session(tokenString string) (model.Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return model.Session{}, fmt.Errorf("access token is invalid")
	}
	if claims.TokenType != typeAccess {
		return model.Session{}, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}

	webID := claims.WebID
	if webID == "" {
		webID = claims.Subject
	}
	if webID == "" {
		return model.Session{}, ErrMissingWebID
	}

	identity, err := locator.Identity(webID)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to resolve webid: %w", err)
	}

	return model.Session{Identity: identity, Credential: tokenString}, nil
}
