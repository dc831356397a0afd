package context

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/dtroode/podkeeper/internal/model"
)

// Metadata keys the authenticated session is stored under.
const (
	webIDKey      string = "x-webid"
	rootURLKey    string = "x-root-url"
	credentialKey string = "x-credential"
)

// Manager represents a gRPC context manager for session operations.
// It keeps the caller's session in the incoming metadata of a request.
type Manager struct{}

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetSessionToContext stores session in the incoming metadata of ctx,
// replacing any session set before.
func (m *Manager) SetSessionToContext(ctx context.Context, session model.Session) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.New(nil)
	} else {
		md = md.Copy()
	}
	md.Set(webIDKey, session.Identity.Identifier)
	md.Set(rootURLKey, session.Identity.RootURL)
	md.Set(credentialKey, session.Credential)

	return metadata.NewIncomingContext(ctx, md)
}

// GetSessionFromContext reads the session stored by SetSessionToContext.
// It reports false when ctx carries no complete session.
func (m *Manager) GetSessionFromContext(ctx context.Context) (model.Session, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return model.Session{}, false
	}

	webID := first(md, webIDKey)
	rootURL := first(md, rootURLKey)
	credential := first(md, credentialKey)
	if webID == "" || rootURL == "" || credential == "" {
		return model.Session{}, false
	}

	return model.Session{
		Identity:   model.UserIdentity{Identifier: webID, RootURL: rootURL},
		Credential: credential,
	}, true
}

func first(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
