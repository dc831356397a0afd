package context

import (
	stdctx "context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/podkeeper/internal/model"
)

var alice = model.Session{
	Identity: model.UserIdentity{
		Identifier: "https://pods.example/alice/profile/card#me",
		RootURL:    "https://pods.example/alice/",
	},
	Credential: "token",
}

func TestManager_SetAndGetSession(t *testing.T) {
	m := NewManager()
	ctx := m.SetSessionToContext(stdctx.Background(), alice)

	got, ok := m.GetSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, alice, got)
}

func TestManager_GetSession_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetSessionFromContext(stdctx.Background())
	assert.False(t, ok)
}

func TestManager_SetSession_WithExistingMetadata(t *testing.T) {
	m := NewManager()
	baseMD := metadata.New(map[string]string{"x-trace-id": "t", webIDKey: "https://spoofed.example/profile/card#me"})
	ctxWithMD := metadata.NewIncomingContext(stdctx.Background(), baseMD)

	ctx := m.SetSessionToContext(ctxWithMD, alice)
	got, ok := m.GetSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, alice, got)

	md, _ := metadata.FromIncomingContext(ctx)
	assert.Equal(t, []string{"t"}, md.Get("x-trace-id"))
	assert.Equal(t, []string{"https://spoofed.example/profile/card#me"}, baseMD.Get(webIDKey))
}

func TestManager_GetSession_Incomplete(t *testing.T) {
	m := NewManager()
	md := metadata.New(map[string]string{webIDKey: alice.Identity.Identifier, rootURLKey: alice.Identity.RootURL})
	ctx := metadata.NewIncomingContext(stdctx.Background(), md)
	_, ok := m.GetSessionFromContext(ctx)
	assert.False(t, ok)
}
