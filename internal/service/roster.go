package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/dtroode/podkeeper/internal/locator"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

// Roster keeps the users a caseworker follows and the last activity
// snapshot taken for them.
type Roster struct {
	store    model.RosterStore
	activity *Activity
	snapshot *cache.Cache
	logger   *logger.Logger
	provider string
}

// NewRoster returns a Roster whose activity snapshots expire after ttl.
func NewRoster(store model.RosterStore, activity *Activity, logger *logger.Logger, provider string, ttl time.Duration) *Roster {
	return &Roster{
		store:    store,
		activity: activity,
		snapshot: cache.New(ttl, 2*ttl),
		logger:   logger,
		provider: provider,
	}
}

// Add resolves subject and adds it to the caller's roster.
func (r *Roster) Add(ctx context.Context, session model.Session, subject string) (model.UserIdentity, error) {
	member, err := locator.ResolveSubject(subject, r.provider)
	if err != nil {
		return model.UserIdentity{}, err
	}

	owner := session.Identity.Identifier
	if err := r.store.Add(ctx, owner, member); err != nil {
		r.logger.Error("Roster service: failed to add member",
			"owner", owner,
			"member", member.Identifier,
			"error", err)
		return model.UserIdentity{}, fmt.Errorf("failed to add roster member: %w", err)
	}
	r.snapshot.Delete(owner)

	r.logger.Info("Roster service: member added", "owner", owner, "member", member.Identifier)
	return member, nil
}

// Remove drops subject from the caller's roster.
func (r *Roster) Remove(ctx context.Context, session model.Session, subject string) error {
	member, err := locator.ResolveSubject(subject, r.provider)
	if err != nil {
		return err
	}

	owner := session.Identity.Identifier
	if err := r.store.Remove(ctx, owner, member.Identifier); err != nil {
		return fmt.Errorf("failed to remove roster member: %w", err)
	}
	r.snapshot.Delete(owner)

	r.logger.Info("Roster service: member removed", "owner", owner, "member", member.Identifier)
	return nil
}

func (r *Roster) List(ctx context.Context, session model.Session) ([]model.RosterMember, error) {
	members, err := r.store.List(ctx, session.Identity.Identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	return members, nil
}

// Refresh reads the activity of every roster member and caches the result.
func (r *Roster) Refresh(ctx context.Context, session model.Session) ([]model.ActivityRecord, error) {
	log := r.logger.With("request_id", uuid.NewString(), "owner", session.Identity.Identifier)

	members, err := r.List(ctx, session)
	if err != nil {
		log.Error("Roster service: failed to load roster", "error", err)
		return nil, err
	}

	users := make([]model.UserIdentity, 0, len(members))
	for _, m := range members {
		users = append(users, m.UserIdentity)
	}

	records := r.activity.RefreshActivity(ctx, session, users)
	r.snapshot.Set(session.Identity.Identifier, records, cache.DefaultExpiration)

	unknown := 0
	for _, rec := range records {
		if rec.LastActive == nil {
			unknown++
		}
	}
	log.Info("Roster service: activity refreshed", "members", len(records), "unknown", unknown)

	return records, nil
}

// Snapshot returns the last cached activity of owner's roster, if it has not expired.
func (r *Roster) Snapshot(owner string) ([]model.ActivityRecord, bool) {
	cached, found := r.snapshot.Get(owner)
	if !found {
		return nil, false
	}
	return cached.([]model.ActivityRecord), true
}
