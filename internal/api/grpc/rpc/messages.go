package rpc

import "time"

// Empty is the request or response of calls that carry no data.
type Empty struct{}

type UploadRequest struct {
	DocumentType string    `json:"document_type"`
	FileName     string    `json:"file_name"`
	MimeType     string    `json:"mime_type,omitempty"`
	Data         []byte    `json:"data"`
	EndDate      time.Time `json:"end_date,omitzero"`
	Description  string    `json:"description,omitempty"`
	// CrossRoot is the pod root of another user to upload into.
	CrossRoot string `json:"cross_root,omitempty"`
}

type DocumentTypeRequest struct {
	DocumentType string `json:"document_type"`
}

type LocationResponse struct {
	URL string `json:"url"`
}

type DeleteContainerRequest struct {
	ContainerURL string `json:"container_url"`
}

type Document struct {
	Resource     string    `json:"resource"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mime_type,omitempty"`
	DocumentType string    `json:"document_type"`
	EndDate      time.Time `json:"end_date,omitzero"`
	Description  string    `json:"description,omitempty"`
	DateModified time.Time `json:"date_modified,omitzero"`
}

type ListDocumentsResponse struct {
	Documents []Document `json:"documents"`
}

type DownloadRequest struct {
	DocumentType string `json:"document_type"`
	Name         string `json:"name"`
}

type DownloadResponse struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	Data         []byte    `json:"data"`
	LastModified time.Time `json:"last_modified,omitzero"`
}

// SetPermissionRequest changes the modes named in Capability, keyed by
// "Read", "Append", "Write" or "Control". True grants, false revokes.
type SetPermissionRequest struct {
	Subject      string          `json:"subject"`
	DocumentType string          `json:"document_type"`
	Capability   map[string]bool `json:"capability"`
}

type Grant struct {
	Identifier string `json:"identifier"`
	RootURL    string `json:"root_url"`
	Read       bool   `json:"read"`
	Append     bool   `json:"append"`
	Write      bool   `json:"write"`
	Control    bool   `json:"control"`
}

type ListPermissionsResponse struct {
	Grants []Grant `json:"grants"`
}

// MemberRequest names a roster member by pod URL, WebID or username.
type MemberRequest struct {
	Subject string `json:"subject"`
}

type Member struct {
	Identifier string    `json:"identifier"`
	RootURL    string    `json:"root_url"`
	AddedAt    time.Time `json:"added_at,omitzero"`
}

type ListMembersResponse struct {
	Members []Member `json:"members"`
}

type Activity struct {
	Identifier string     `json:"identifier"`
	RootURL    string     `json:"root_url"`
	LastActive *time.Time `json:"last_active"`
}

type ActivityResponse struct {
	Records []Activity `json:"records"`
	// Cached is set when the records come from the last refresh.
	Cached bool `json:"cached"`
}
