package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/podkeeper/internal/locator"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

// Access manages who may read or change a document container.
type Access struct {
	gateway  model.Gateway
	logger   *logger.Logger
	provider string
}

// NewAccess returns an Access resolving bare usernames against provider.
func NewAccess(gateway model.Gateway, logger *logger.Logger, provider string) *Access {
	return &Access{
		gateway:  gateway,
		logger:   logger,
		provider: provider,
	}
}

// SetPermission applies capability for subject on the container of docType
// in the caller's pod. Every mode in capability is granted when true and
// revoked when false, both on the container and as a default for its future
// contents. All argument checks happen before the pod is contacted.
func (a *Access) SetPermission(ctx context.Context, session model.Session, subject string, docType model.DocumentType, capability model.Capability) error {
	if strings.TrimSpace(subject) == "" {
		return model.ErrMissingSubject
	}
	target, err := locator.ResolveSubject(subject, a.provider)
	if err != nil {
		return err
	}
	if sameRoot(target.RootURL, ownerRoot(session.Identity)) {
		return model.ErrSelfGrantRejected
	}
	if len(capability) == 0 {
		return model.ErrNoCapabilitySelected
	}
	for mode := range capability {
		if !slices.Contains(model.AllModes, mode) {
			return fmt.Errorf("%w: unknown access mode %q", model.ErrValidation, string(mode))
		}
	}
	containerURL, err := locator.Locate(session.Identity, docType, model.ScopeSelf, "")
	if err != nil {
		return err
	}

	log := a.logger.With("request_id", uuid.NewString(), "container", containerURL, "agent", target.Identifier)

	acl, err := a.gateway.ReadAccessControl(ctx, session, containerURL)
	switch {
	case errors.Is(err, model.ErrNotFound):
		log.Debug("Access service: no access control yet, seeding owner")
		acl = ownerACL(containerURL, session.Identity.Identifier)
	case err != nil:
		log.Error("Access service: failed to read access control", "error", err)
		return fmt.Errorf("failed to read access control: %w", err)
	}

	applyCapability(acl, target.Identifier, capability)

	if err := a.gateway.WriteAccessControl(ctx, session, containerURL, acl); err != nil {
		log.Error("Access service: failed to write access control", "error", err)
		return fmt.Errorf("failed to write access control: %w", err)
	}

	log.Info("Access service: permissions updated", "capability", describeCapability(capability))
	return nil
}

// Permissions lists the grants other agents hold on the container of docType.
func (a *Access) Permissions(ctx context.Context, session model.Session, docType model.DocumentType) ([]model.AccessGrant, error) {
	containerURL, err := locator.Locate(session.Identity, docType, model.ScopeSelf, "")
	if err != nil {
		return nil, err
	}

	acl, err := a.gateway.ReadAccessControl(ctx, session, containerURL)
	if errors.Is(err, model.ErrNotFound) {
		return []model.AccessGrant{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read access control: %w", err)
	}

	container := model.Container{URL: containerURL, DocumentType: docType, Owner: session.Identity}
	grants := make([]model.AccessGrant, 0, len(acl.Authorizations))
	seen := make(map[string]bool, len(acl.Authorizations))
	for _, auth := range acl.Authorizations {
		if auth.Agent == session.Identity.Identifier || seen[auth.Agent] {
			continue
		}
		seen[auth.Agent] = true

		subject, err := locator.Identity(auth.Agent)
		if err != nil {
			subject = model.UserIdentity{Identifier: auth.Agent}
		}
		accessTo, _ := acl.AgentModes(auth.Agent)
		grants = append(grants, model.AccessGrant{
			Subject:  subject,
			Resource: container,
			Read:     slices.Contains(accessTo, model.ModeRead),
			Append:   slices.Contains(accessTo, model.ModeAppend),
			Write:    slices.Contains(accessTo, model.ModeWrite),
			Control:  slices.Contains(accessTo, model.ModeControl),
		})
	}
	return grants, nil
}

func ownerACL(resource, owner string) *model.AccessControl {
	return &model.AccessControl{
		Resource: resource,
		Authorizations: []model.Authorization{{
			Agent:    owner,
			Modes:    slices.Clone(model.AllModes),
			AccessTo: true,
			Default:  true,
		}},
	}
}

// applyCapability rewrites every authorization of agent. Modes are changed
// separately for the resource and for the defaults of its contents, so a
// grant split over several nodes is revoked everywhere.
func applyCapability(acl *model.AccessControl, agent string, capability model.Capability) {
	accessTo, inherited := acl.AgentModes(agent)
	accessTo = withCapability(accessTo, capability)
	inherited = withCapability(inherited, capability)

	acl.Remove(agent)
	if slices.Equal(accessTo, inherited) {
		if len(accessTo) > 0 {
			acl.Authorizations = append(acl.Authorizations, model.Authorization{
				Agent: agent, Modes: accessTo, AccessTo: true, Default: true,
			})
		}
		return
	}
	if len(accessTo) > 0 {
		acl.Authorizations = append(acl.Authorizations, model.Authorization{Agent: agent, Modes: accessTo, AccessTo: true})
	}
	if len(inherited) > 0 {
		acl.Authorizations = append(acl.Authorizations, model.Authorization{Agent: agent, Modes: inherited, Default: true})
	}
}

func withCapability(modes []model.Mode, capability model.Capability) []model.Mode {
	auth := model.Authorization{Modes: modes}
	for _, mode := range model.AllModes {
		if granted, ok := capability[mode]; ok {
			auth.Set(mode, granted)
		}
	}
	return auth.Modes
}

func describeCapability(capability model.Capability) string {
	parts := make([]string, 0, len(capability))
	for _, mode := range model.AllModes {
		granted, ok := capability[mode]
		if !ok {
			continue
		}
		sign := "+"
		if !granted {
			sign = "-"
		}
		parts = append(parts, sign+string(mode))
	}
	return strings.Join(parts, ",")
}

func ownerRoot(identity model.UserIdentity) string {
	if identity.RootURL != "" {
		return identity.RootURL
	}
	return locator.RootFromWebID(identity.Identifier)
}

func sameRoot(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
