package model

import "time"

// DocumentType enumerates the kinds of documents a pod keeps, one container per kind.
type DocumentType string

const (
	DocumentTypeBankStatement  DocumentType = "Bank Statement"
	DocumentTypePassport       DocumentType = "Passport"
	DocumentTypeDriversLicense DocumentType = "Drivers License"
	// DocumentTypeGeneric holds user-level data such as the roster.
	DocumentTypeGeneric DocumentType = "Users"
)

// DocumentTypes lists the closed set of document types.
var DocumentTypes = []DocumentType{
	DocumentTypeBankStatement,
	DocumentTypePassport,
	DocumentTypeDriversLicense,
	DocumentTypeGeneric,
}

// Scope selects whose pod a container is located in.
type Scope int

const (
	// ScopeSelf addresses the owner's own pod.
	ScopeSelf Scope = iota
	// ScopeCross addresses another user's pod by its root URL.
	ScopeCross
)

// Container is a pod directory holding all documents of one type.
type Container struct {
	URL          string
	DocumentType DocumentType
	Owner        UserIdentity
}

// DocumentRecord describes one stored document. Resource is the name the
// payload is stored under inside its container and keys the record in the
// container's metadata dataset.
type DocumentRecord struct {
	Resource     string
	Name         string
	MimeType     string
	Identifier   DocumentType
	EndDate      time.Time
	Description  string
	DateModified time.Time
}

// Key returns the resource name the record is keyed by.
func (r DocumentRecord) Key() string {
	if r.Resource != "" {
		return r.Resource
	}
	return r.Name
}

// File is a document payload submitted for upload.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// UploadParams describes one document upload. CrossRoot, when set, is the
// root of another user's pod the document is uploaded to.
type UploadParams struct {
	Type        DocumentType
	File        *File
	EndDate     time.Time
	Description string
	CrossRoot   string
}
