package handler

import (
	"context"

	"github.com/dtroode/podkeeper/internal/api/grpc/rpc"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

// DocumentService defines the document operations served over gRPC.
type DocumentService interface {
	Upload(ctx context.Context, session model.Session, params model.UploadParams) error
	FetchLocation(ctx context.Context, session model.Session, docType model.DocumentType) (string, error)
	DeleteDocument(ctx context.Context, session model.Session, docType model.DocumentType) (string, error)
	DeleteContainer(ctx context.Context, session model.Session, containerURL string) error
	Documents(ctx context.Context, session model.Session, docType model.DocumentType) ([]model.DocumentRecord, error)
	Download(ctx context.Context, session model.Session, docType model.DocumentType, name string) (model.Resource, error)
}

// Documents handles gRPC endpoints for pod documents.
type Documents struct {
	documentService DocumentService
	contextManager  model.ContextManager
	logger          *logger.Logger
}

var _ rpc.DocumentsServer = (*Documents)(nil)

// NewDocuments creates a new Documents handler.
func NewDocuments(documentService DocumentService, contextManager model.ContextManager, logger *logger.Logger) *Documents {
	return &Documents{
		documentService: documentService,
		contextManager:  contextManager,
		logger:          logger,
	}
}

// Upload stores a document and its metadata in the caller's pod, or in the
// pod named by CrossRoot.
func (h *Documents) Upload(ctx context.Context, req *rpc.UploadRequest) (*rpc.Empty, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	params := model.UploadParams{
		Type:        model.DocumentType(req.DocumentType),
		EndDate:     req.EndDate,
		Description: req.Description,
		CrossRoot:   req.CrossRoot,
	}
	if req.FileName != "" || len(req.Data) > 0 {
		params.File = &model.File{Name: req.FileName, MimeType: req.MimeType, Data: req.Data}
	}

	if err := h.documentService.Upload(ctx, session, params); err != nil {
		h.logger.Error("Documents handler: upload failed",
			"owner", session.Identity.Identifier,
			"document_type", req.DocumentType,
			"error", err.Error())
		return nil, handleError(err)
	}
	return &rpc.Empty{}, nil
}

func (h *Documents) FetchLocation(ctx context.Context, req *rpc.DocumentTypeRequest) (*rpc.LocationResponse, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	location, err := h.documentService.FetchLocation(ctx, session, model.DocumentType(req.DocumentType))
	if err != nil {
		return nil, handleError(err)
	}
	return &rpc.LocationResponse{URL: location}, nil
}

// DeleteDocument deletes every file of a document type and returns the
// emptied container's URL.
func (h *Documents) DeleteDocument(ctx context.Context, req *rpc.DocumentTypeRequest) (*rpc.LocationResponse, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	location, err := h.documentService.DeleteDocument(ctx, session, model.DocumentType(req.DocumentType))
	if err != nil {
		h.logger.Error("Documents handler: delete document failed",
			"owner", session.Identity.Identifier,
			"document_type", req.DocumentType,
			"error", err.Error())
		return nil, handleError(err)
	}
	return &rpc.LocationResponse{URL: location}, nil
}

func (h *Documents) DeleteContainer(ctx context.Context, req *rpc.DeleteContainerRequest) (*rpc.Empty, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	if err := h.documentService.DeleteContainer(ctx, session, req.ContainerURL); err != nil {
		return nil, handleError(err)
	}
	return &rpc.Empty{}, nil
}

// ListDocuments returns the metadata records of a document type.
func (h *Documents) ListDocuments(ctx context.Context, req *rpc.DocumentTypeRequest) (*rpc.ListDocumentsResponse, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	records, err := h.documentService.Documents(ctx, session, model.DocumentType(req.DocumentType))
	if err != nil {
		return nil, handleError(err)
	}

	resp := &rpc.ListDocumentsResponse{Documents: make([]rpc.Document, 0, len(records))}
	for _, rec := range records {
		resp.Documents = append(resp.Documents, convertDocumentRecord(rec))
	}
	return resp, nil
}

func (h *Documents) Download(ctx context.Context, req *rpc.DownloadRequest) (*rpc.DownloadResponse, error) {
	session, ok := h.contextManager.GetSessionFromContext(ctx)
	if !ok {
		return nil, unauthenticated()
	}

	res, err := h.documentService.Download(ctx, session, model.DocumentType(req.DocumentType), req.Name)
	if err != nil {
		return nil, handleError(err)
	}
	return &rpc.DownloadResponse{
		URL:          res.URL,
		ContentType:  res.ContentType,
		Data:         res.Data,
		LastModified: res.LastModified,
	}, nil
}

func convertDocumentRecord(rec model.DocumentRecord) rpc.Document {
	return rpc.Document{
		Resource:     rec.Key(),
		Name:         rec.Name,
		MimeType:     rec.MimeType,
		DocumentType: string(rec.Identifier),
		EndDate:      rec.EndDate,
		Description:  rec.Description,
		DateModified: rec.DateModified,
	}
}
