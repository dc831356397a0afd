package model

import (
	"context"
	"encoding/json"
	"time"
)

// Resource is a stored payload together with the metadata the gateway reports for it.
type Resource struct {
	URL          string
	Data         []byte
	ContentType  string
	LastModified time.Time
}

// WriteOptions control how WriteResource stores a payload inside a container.
type WriteOptions struct {
	Name     string
	MimeType string
	// Overwrite replaces an existing resource of the same name. Without it
	// the write fails with ErrAlreadyExists.
	Overwrite bool
}

// Dataset is a small metadata graph stored as a list of entries keyed by
// resource name. Raw holds each entry's serialized node so entries that are
// not touched by a merge are written back unchanged.
type Dataset struct {
	Context json.RawMessage
	Entries []DatasetEntry
}

// DatasetEntry is one node of a Dataset.
type DatasetEntry struct {
	Name string
	Raw  json.RawMessage
}

// Gateway is the remote pod storage. Every call is authenticated with the
// caller's session. Containers are addressed by URLs ending with a slash.
type Gateway interface {
	// CreateContainer creates url, returning ErrAlreadyExists when it is already present.
	CreateContainer(ctx context.Context, s Session, url string) error
	ReadResource(ctx context.Context, s Session, url string) (Resource, error)
	// WriteResource stores data inside containerURL and returns its location.
	WriteResource(ctx context.Context, s Session, containerURL string, data []byte, opts WriteOptions) (string, error)
	// ListContainer returns the URLs of the direct children of containerURL.
	ListContainer(ctx context.Context, s Session, containerURL string) ([]string, error)
	ReadDataset(ctx context.Context, s Session, url string) (*Dataset, error)
	// CreateDataset stores ds at url only if nothing is there yet.
	CreateDataset(ctx context.Context, s Session, url string, ds *Dataset) error
	WriteDataset(ctx context.Context, s Session, url string, ds *Dataset) error
	DeleteResource(ctx context.Context, s Session, url string) error
	// DeleteContainer removes an empty container, returning ErrNotEmpty otherwise.
	DeleteContainer(ctx context.Context, s Session, url string) error
	ReadAccessControl(ctx context.Context, s Session, resourceURL string) (*AccessControl, error)
	WriteAccessControl(ctx context.Context, s Session, resourceURL string, acl *AccessControl) error
}
