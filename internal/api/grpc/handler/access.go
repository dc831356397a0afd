package handler

import (
	"context"

	"github.com/dtroode/podkeeper/internal/api/grpc/rpc"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

// AccessService defines the permission operations served over gRPC.
type AccessService interface {
	SetPermission(ctx context.Context, session model.Session, subject string, docType model.DocumentType, capability model.Capability) error
	Permissions(ctx context.Context, session model.Session, docType model.DocumentType) ([]model.AccessGrant, error)
}

// Access handles gRPC endpoints for container permissions.
type Access struct {
	accessService  AccessService
	contextManager model.ContextManager
	logger         *logger.Logger
}

var _ rpc.AccessServer = (*Access)(nil)

// NewAccess creates a new Access handler.
func NewAccess(accessService AccessService, contextManager model.ContextManager, logger *logger.Logger) *Access {
	return &Access{
		accessService:  accessService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// SetPermission grants or revokes the requested modes of another pod on the
// caller's container of a document type.
func (h *Access) SetPermission(ctx context.Context, req *rpc.SetPermissionRequest) (*rpc.Empty, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	capability := make(model.Capability, len(req.Capability))
	for mode, granted := range req.Capability {
		capability[model.Mode(mode)] = granted
	}

	err := h.accessService.SetPermission(ctx, session, req.Subject, model.DocumentType(req.DocumentType), capability)
	if err != nil {
		h.logger.Error("Access handler: set permission failed",
			"owner", session.Identity.Identifier,
			"subject", req.Subject,
			"document_type", req.DocumentType,
			"error", err.Error())
		return nil, handleError(err)
	}
	return &rpc.Empty{}, nil
}

func (h *Access) ListPermissions(ctx context.Context, req *rpc.DocumentTypeRequest) (*rpc.ListPermissionsResponse, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	grants, err := h.accessService.Permissions(ctx, session, model.DocumentType(req.DocumentType))
	if err != nil {
		return nil, handleError(err)
	}

	resp := &rpc.ListPermissionsResponse{Grants: make([]rpc.Grant, 0, len(grants))}
	for _, g := range grants {
		resp.Grants = append(resp.Grants, rpc.Grant{
			Identifier: g.Subject.Identifier,
			RootURL:    g.Subject.RootURL,
			Read:       g.Read,
			Append:     g.Append,
			Write:      g.Write,
			Control:    g.Control,
		})
	}
	return resp, nil
}
