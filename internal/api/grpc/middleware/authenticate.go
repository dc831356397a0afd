package middleware

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

var (
	errMissingToken = errors.New("missing authorization token")
	errInvalidToken = errors.New("invalid authorization token")
)

// TokenService resolves the session a bearer token grants.
type TokenService interface {
	Session(token string) (model.Session, error)
}

// Authenticate validates bearer tokens and injects the session into context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// AuthFunc parses the authorization header, validates the token and returns a
// context carrying the caller's session.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	var tokenString string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if authHeaders := md.Get("authorization"); len(authHeaders) > 0 {
			tokenString = strings.TrimPrefix(authHeaders[0], "Bearer ")
		}
	}

	session, authErr := m.authenticate(tokenString)
	if authErr != nil {
		return nil, status.Error(codes.Unauthenticated, authErr.Error())
	}

	return m.contextManager.SetSessionToContext(ctx, session), nil
}

func (m *Authenticate) authenticate(tokenString string) (model.Session, error) {
	if tokenString == "" {
		return model.Session{}, errMissingToken
	}

	session, err := m.tokenService.Session(tokenString)
	if err != nil {
		m.logger.Debug("Authenticate middleware: token rejected", "error", err.Error())
		return model.Session{}, errInvalidToken
	}
	if session.Identity.RootURL == "" {
		return model.Session{}, errInvalidToken
	}

	return session, nil
}
