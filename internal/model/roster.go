package model

import (
	"context"
	"time"
)

// RosterStore persists the users a caseworker tracks.
type RosterStore interface {
	Add(ctx context.Context, ownerID string, member UserIdentity) error
	Remove(ctx context.Context, ownerID string, memberID string) error
	List(ctx context.Context, ownerID string) ([]RosterMember, error)
}

// RosterMember is a tracked user and when it was added to the roster.
type RosterMember struct {
	UserIdentity
	AddedAt time.Time
}
