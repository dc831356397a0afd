package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const DocumentsServiceName = "podkeeper.Documents"

const (
	Documents_Upload_FullMethodName          = "/podkeeper.Documents/Upload"
	Documents_FetchLocation_FullMethodName   = "/podkeeper.Documents/FetchLocation"
	Documents_DeleteDocument_FullMethodName  = "/podkeeper.Documents/DeleteDocument"
	Documents_DeleteContainer_FullMethodName = "/podkeeper.Documents/DeleteContainer"
	Documents_ListDocuments_FullMethodName   = "/podkeeper.Documents/ListDocuments"
	Documents_Download_FullMethodName        = "/podkeeper.Documents/Download"
)

// DocumentsServer stores documents in the caller's pod.
type DocumentsServer interface {
	Upload(context.Context, *UploadRequest) (*Empty, error)
	FetchLocation(context.Context, *DocumentTypeRequest) (*LocationResponse, error)
	DeleteDocument(context.Context, *DocumentTypeRequest) (*LocationResponse, error)
	DeleteContainer(context.Context, *DeleteContainerRequest) (*Empty, error)
	ListDocuments(context.Context, *DocumentTypeRequest) (*ListDocumentsResponse, error)
	Download(context.Context, *DownloadRequest) (*DownloadResponse, error)
}

var Documents_ServiceDesc = grpc.ServiceDesc{
	ServiceName: DocumentsServiceName,
	HandlerType: (*DocumentsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(DocumentsServiceName, "Upload", func(srv any, ctx context.Context, req *UploadRequest) (*Empty, error) {
			return srv.(DocumentsServer).Upload(ctx, req)
		}),
		unary(DocumentsServiceName, "FetchLocation", func(srv any, ctx context.Context, req *DocumentTypeRequest) (*LocationResponse, error) {
			return srv.(DocumentsServer).FetchLocation(ctx, req)
		}),
		unary(DocumentsServiceName, "DeleteDocument", func(srv any, ctx context.Context, req *DocumentTypeRequest) (*LocationResponse, error) {
			return srv.(DocumentsServer).DeleteDocument(ctx, req)
		}),
		unary(DocumentsServiceName, "DeleteContainer", func(srv any, ctx context.Context, req *DeleteContainerRequest) (*Empty, error) {
			return srv.(DocumentsServer).DeleteContainer(ctx, req)
		}),
		unary(DocumentsServiceName, "ListDocuments", func(srv any, ctx context.Context, req *DocumentTypeRequest) (*ListDocumentsResponse, error) {
			return srv.(DocumentsServer).ListDocuments(ctx, req)
		}),
		unary(DocumentsServiceName, "Download", func(srv any, ctx context.Context, req *DownloadRequest) (*DownloadResponse, error) {
			return srv.(DocumentsServer).Download(ctx, req)
		}),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterDocumentsServer(s grpc.ServiceRegistrar, srv DocumentsServer) {
	s.RegisterService(&Documents_ServiceDesc, srv)
}

// DocumentsClient calls the Documents service.
type DocumentsClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentsClient(cc grpc.ClientConnInterface) *DocumentsClient {
	return &DocumentsClient{cc: cc}
}

func (c *DocumentsClient) Upload(ctx context.Context, in *UploadRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Documents_Upload_FullMethodName, in, opts)
}

func (c *DocumentsClient) FetchLocation(ctx context.Context, in *DocumentTypeRequest, opts ...grpc.CallOption) (*LocationResponse, error) {
	return invoke[LocationResponse](ctx, c.cc, Documents_FetchLocation_FullMethodName, in, opts)
}

func (c *DocumentsClient) DeleteDocument(ctx context.Context, in *DocumentTypeRequest, opts ...grpc.CallOption) (*LocationResponse, error) {
	return invoke[LocationResponse](ctx, c.cc, Documents_DeleteDocument_FullMethodName, in, opts)
}

func (c *DocumentsClient) DeleteContainer(ctx context.Context, in *DeleteContainerRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Documents_DeleteContainer_FullMethodName, in, opts)
}

func (c *DocumentsClient) ListDocuments(ctx context.Context, in *DocumentTypeRequest, opts ...grpc.CallOption) (*ListDocumentsResponse, error) {
	return invoke[ListDocumentsResponse](ctx, c.cc, Documents_ListDocuments_FullMethodName, in, opts)
}

func (c *DocumentsClient) Download(ctx context.Context, in *DownloadRequest, opts ...grpc.CallOption) (*DownloadResponse, error) {
	return invoke[DownloadResponse](ctx, c.cc, Documents_Download_FullMethodName, in, opts)
}
