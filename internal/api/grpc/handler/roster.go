package handler

import (
	"context"

	"github.com/dtroode/podkeeper/internal/api/grpc/rpc"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

// RosterService defines the roster operations served over gRPC.
type RosterService interface {
	Add(ctx context.Context, session model.Session, subject string) (model.UserIdentity, error)
	Remove(ctx context.Context, session model.Session, subject string) error
	List(ctx context.Context, session model.Session) ([]model.RosterMember, error)
	Refresh(ctx context.Context, session model.Session) ([]model.ActivityRecord, error)
	Snapshot(owner string) ([]model.ActivityRecord, bool)
}

// ActivityService stamps the caller's own activity.
type ActivityService interface {
	MarkActive(ctx context.Context, session model.Session) error
}

// Roster handles gRPC endpoints for the caseworker roster.
type Roster struct {
	rosterService   RosterService
	activityService ActivityService
	contextManager  model.ContextManager
	logger          *logger.Logger
}

var _ rpc.RosterServer = (*Roster)(nil)

// NewRoster creates a new Roster handler.
func NewRoster(rosterService RosterService, activityService ActivityService, contextManager model.ContextManager, logger *logger.Logger) *Roster {
	return &Roster{
		rosterService:   rosterService,
		activityService: activityService,
		contextManager:  contextManager,
		logger:          logger,
	}
}

func (h *Roster) AddMember(ctx context.Context, req *rpc.MemberRequest) (*rpc.Member, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	member, err := h.rosterService.Add(ctx, session, req.Subject)
	if err != nil {
		return nil, handleError(err)
	}
	return &rpc.Member{Identifier: member.Identifier, RootURL: member.RootURL}, nil
}

func (h *Roster) RemoveMember(ctx context.Context, req *rpc.MemberRequest) (*rpc.Empty, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	if err := h.rosterService.Remove(ctx, session, req.Subject); err != nil {
		return nil, handleError(err)
	}
	return &rpc.Empty{}, nil
}

func (h *Roster) ListMembers(ctx context.Context, _ *rpc.Empty) (*rpc.ListMembersResponse, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	members, err := h.rosterService.List(ctx, session)
	if err != nil {
		return nil, handleError(err)
	}

	resp := &rpc.ListMembersResponse{Members: make([]rpc.Member, 0, len(members))}
	for _, m := range members {
		resp.Members = append(resp.Members, rpc.Member{
			Identifier: m.Identifier,
			RootURL:    m.RootURL,
			AddedAt:    m.AddedAt,
		})
	}
	return resp, nil
}

// RefreshActivity reads the activity of every roster member now.
func (h *Roster) RefreshActivity(ctx context.Context, _ *rpc.Empty) (*rpc.ActivityResponse, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	records, err := h.rosterService.Refresh(ctx, session)
	if err != nil {
		h.logger.Error("Roster handler: refresh failed",
			"owner", session.Identity.Identifier,
			"error", err.Error())
		return nil, handleError(err)
	}
	return convertActivity(records, false), nil
}

// GetSnapshot returns the cached activity of the last refresh, refreshing
// first when nothing is cached.
func (h *Roster) GetSnapshot(ctx context.Context, req *rpc.Empty) (*rpc.ActivityResponse, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	if records, found := h.rosterService.Snapshot(session.Identity.Identifier); found {
		return convertActivity(records, true), nil
	}
	return h.RefreshActivity(ctx, req)
}

// MarkActive stamps the caller's own pod as active.
func (h *Roster) MarkActive(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	if err := h.activityService.MarkActive(ctx, session); err != nil {
		return nil, handleError(err)
	}
	return &rpc.Empty{}, nil
}

func convertActivity(records []model.ActivityRecord, cached bool) *rpc.ActivityResponse {
	resp := &rpc.ActivityResponse{Records: make([]rpc.Activity, 0, len(records)), Cached: cached}
	for _, rec := range records {
		resp.Records = append(resp.Records, rpc.Activity{
			Identifier: rec.User.Identifier,
			RootURL:    rec.User.RootURL,
			LastActive: rec.LastActive,
		})
	}
	return resp
}
