package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/dtroode/podkeeper/internal/dataset"
	"github.com/dtroode/podkeeper/internal/locator"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

const (
	maxDisplayName  = 25
	displayNameEdge = 10
	defaultMimeType = "application/octet-stream"
)

// Document stores documents and their metadata in per-type pod containers.
type Document struct {
	gateway model.Gateway
	logger  *logger.Logger
	now     func() time.Time
}

func NewDocument(gateway model.Gateway, logger *logger.Logger) *Document {
	return &Document{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

type uploadState int

const (
	stateStart uploadState = iota
	stateContainerEnsured
	statePayloadPlaced
	stateMetadataProbed
	stateMetadataMerged
	statePersisted
)

func (s uploadState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateContainerEnsured:
		return "container_ensured"
	case statePayloadPlaced:
		return "payload_placed"
	case stateMetadataProbed:
		return "metadata_probed"
	case stateMetadataMerged:
		return "metadata_merged"
	case statePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type uploadMode int

const (
	modeCreate uploadMode = iota
	modeUpdate
)

func (m uploadMode) String() string {
	if m == modeUpdate {
		return "update"
	}
	return "create"
}

// upload carries the state of one Upload call through its transitions.
type upload struct {
	session      model.Session
	file         *model.File
	record       model.DocumentRecord
	containerURL string
	metadataURL  string

	mode         uploadMode
	state        uploadState
	location     string
	metadataRead bool
	existing     *model.Dataset
	merged       *model.Dataset
}

// stepResult is the outcome of a single transition.
type stepResult struct {
	next uploadState
	err  error
}

// Upload stores params.File in the container of params.Type and merges its
// metadata into the container's dataset. The create path expects neither the
// payload nor the metadata to exist yet; when the pod reports otherwise, or
// any other remote failure happens on that path, the upload is replayed once
// with update semantics. A payload placed before a later failure is not removed.
// Update mode reads the metadata before overwriting anything and fails with
// model.ErrNameCollision when the resource name belongs to a differently
// named file.
func (d *Document) Upload(ctx context.Context, session model.Session, params model.UploadParams) error {
	log := d.logger.With("request_id", uuid.NewString(), "document_type", string(params.Type))

	if params.File == nil || params.File.Name == "" {
		return model.ErrMissingFile
	}

	scope := model.ScopeSelf
	if params.CrossRoot != "" {
		scope = model.ScopeCross
	}
	containerURL, err := locator.Locate(session.Identity, params.Type, scope, params.CrossRoot)
	if err != nil {
		return err
	}

	mimeType := params.File.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	u := &upload{
		session:      session,
		file:         params.File,
		containerURL: containerURL,
		metadataURL:  locator.MetadataURL(containerURL),
		record: model.DocumentRecord{
			Resource:    SanitizeName(params.File.Name),
			Name:        params.File.Name,
			MimeType:    mimeType,
			Identifier:  params.Type,
			EndDate:     params.EndDate,
			Description: params.Description,
		},
	}

	log.Debug("Document service: starting upload",
		"container", containerURL,
		"resource", u.record.Resource)

	if err := d.run(ctx, u, log); err != nil {
		log.Error("Document service: upload failed",
			"container", containerURL,
			"state", u.state.String(),
			"mode", u.mode.String(),
			"error", err)
		return err
	}

	log.Info("Document service: upload finished",
		"location", u.location,
		"mode", u.mode.String(),
		"file", TruncateLongFileName(params.File.Name))

	return nil
}

func (d *Document) run(ctx context.Context, u *upload, log *logger.Logger) error {
	for u.state != statePersisted {
		res := d.step(ctx, u)
		if res.err != nil {
			if u.mode == modeCreate && canFallBack(ctx, res.err) {
				log.Warn("Document service: create path failed, retrying as update",
					"state", u.state.String(),
					"error", res.err)
				u.mode = modeUpdate
				u.state = stateStart
				u.metadataRead = false
				u.existing = nil
				u.merged = nil
				continue
			}
			return fmt.Errorf("failed to upload document (%s, %s): %w", u.mode, u.state, res.err)
		}
		u.state = res.next
	}
	return nil
}

// step performs the transition out of u.state.
func (d *Document) step(ctx context.Context, u *upload) stepResult {
	switch u.state {
	case stateStart:
		err := d.gateway.CreateContainer(ctx, u.session, u.containerURL)
		if err != nil && !errors.Is(err, model.ErrAlreadyExists) {
			return stepResult{err: fmt.Errorf("failed to create container: %w", err)}
		}
		return stepResult{next: stateContainerEnsured}

	case stateContainerEnsured:
		if u.mode == modeUpdate {
			// checked before the payload is overwritten
			if err := d.readMetadata(ctx, u); err != nil {
				return stepResult{err: err}
			}
			if err := nameCollision(u.existing, u.record); err != nil {
				return stepResult{err: err}
			}
		}
		location, err := d.gateway.WriteResource(ctx, u.session, u.containerURL, u.file.Data, model.WriteOptions{
			Name:      u.record.Resource,
			MimeType:  u.record.MimeType,
			Overwrite: u.mode == modeUpdate,
		})
		if err != nil {
			return stepResult{err: fmt.Errorf("failed to place file: %w", err)}
		}
		u.location = location
		return stepResult{next: statePayloadPlaced}

	case statePayloadPlaced:
		if !u.metadataRead {
			if err := d.readMetadata(ctx, u); err != nil {
				return stepResult{err: err}
			}
		}
		return stepResult{next: stateMetadataProbed}

	case stateMetadataProbed:
		merged, err := dataset.Merge(u.existing, u.record, d.now())
		if err != nil {
			return stepResult{err: fmt.Errorf("failed to merge metadata: %w", err)}
		}
		u.merged = merged
		return stepResult{next: stateMetadataMerged}

	case stateMetadataMerged:
		var err error
		if u.mode == modeCreate {
			err = d.gateway.CreateDataset(ctx, u.session, u.metadataURL, u.merged)
		} else {
			err = d.gateway.WriteDataset(ctx, u.session, u.metadataURL, u.merged)
		}
		if err != nil {
			return stepResult{err: fmt.Errorf("failed to save metadata: %w", err)}
		}
		return stepResult{next: statePersisted}

	default:
		return stepResult{err: fmt.Errorf("no transition out of state %s", u.state)}
	}
}

// readMetadata reads the container's metadata into u.existing. On the create path
// metadata that is already there is a conflict.
func (d *Document) readMetadata(ctx context.Context, u *upload) error {
	ds, err := d.gateway.ReadDataset(ctx, u.session, u.metadataURL)
	switch {
	case errors.Is(err, model.ErrNotFound):
		u.existing = nil
	case err != nil:
		return fmt.Errorf("failed to read metadata: %w", err)
	case u.mode == modeCreate:
		return fmt.Errorf("metadata: %w", model.ErrAlreadyExists)
	default:
		u.existing = ds
	}
	u.metadataRead = true
	return nil
}

// nameCollision rejects a record whose resource name is already taken by a
// file with a different name, such as "my file.pdf" and "my-file.pdf".
func nameCollision(ds *model.Dataset, record model.DocumentRecord) error {
	idx := dataset.Find(ds, record.Key())
	if idx < 0 {
		return nil
	}
	stored, err := dataset.Record(ds.Entries[idx])
	if err != nil {
		return err
	}
	if stored.Name != "" && stored.Name != record.Name {
		return fmt.Errorf("%w: %q and %q are both stored as %q", model.ErrNameCollision, stored.Name, record.Name, record.Key())
	}
	return nil
}

// canFallBack reports whether a create-path failure may be retried with
// update semantics. Unreadable metadata and caller errors are final.
func canFallBack(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, model.ErrCorruptMetadata) &&
		!errors.Is(err, model.ErrValidation) &&
		!errors.Is(err, model.ErrAddressing)
}

// FetchLocation returns the container URL of docType if its metadata exists.
func (d *Document) FetchLocation(ctx context.Context, session model.Session, docType model.DocumentType) (string, error) {
	containerURL, err := locator.Locate(session.Identity, docType, model.ScopeSelf, "")
	if err != nil {
		return "", err
	}

	_, err = d.gateway.ReadResource(ctx, session, locator.MetadataURL(containerURL))
	if errors.Is(err, model.ErrNotFound) {
		d.logger.Debug("Document service: no data found", "container", containerURL)
		return "", fmt.Errorf("no data found for %s: %w", docType, model.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read metadata: %w", err)
	}

	return containerURL, nil
}

// DeleteDocument removes every file of docType's container and returns the
// container URL. The now empty container itself is left for the caller to
// remove with DeleteContainer.
func (d *Document) DeleteDocument(ctx context.Context, session model.Session, docType model.DocumentType) (string, error) {
	containerURL, err := locator.Locate(session.Identity, docType, model.ScopeSelf, "")
	if err != nil {
		return "", err
	}
	log := d.logger.With("request_id", uuid.NewString(), "container", containerURL)

	children, err := d.gateway.ListContainer(ctx, session, containerURL)
	if err != nil {
		return "", fmt.Errorf("failed to list container: %w", err)
	}

	for _, child := range children {
		if strings.HasSuffix(child, "/") {
			continue
		}
		if err := d.gateway.DeleteResource(ctx, session, child); err != nil {
			log.Error("Document service: failed to delete file", "file", child, "error", err)
			return "", fmt.Errorf("failed to delete %s: %w", child, err)
		}
		log.Debug("Document service: file deleted", "file", child)
	}

	log.Info("Document service: container emptied", "files", len(children))
	return containerURL, nil
}

// DeleteContainer removes an empty container.
func (d *Document) DeleteContainer(ctx context.Context, session model.Session, containerURL string) error {
	if err := d.gateway.DeleteContainer(ctx, session, containerURL); err != nil {
		return fmt.Errorf("failed to delete container %s: %w", containerURL, err)
	}
	d.logger.Info("Document service: container deleted", "container", containerURL)
	return nil
}

// Documents lists the records kept in docType's metadata dataset.
func (d *Document) Documents(ctx context.Context, session model.Session, docType model.DocumentType) ([]model.DocumentRecord, error) {
	containerURL, err := locator.Locate(session.Identity, docType, model.ScopeSelf, "")
	if err != nil {
		return nil, err
	}

	ds, err := d.gateway.ReadDataset(ctx, session, locator.MetadataURL(containerURL))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	return dataset.Records(ds)
}

// Download reads the payload stored under name in docType's container.
func (d *Document) Download(ctx context.Context, session model.Session, docType model.DocumentType, name string) (model.Resource, error) {
	containerURL, err := locator.Locate(session.Identity, docType, model.ScopeSelf, "")
	if err != nil {
		return model.Resource{}, err
	}
	if name == "" {
		return model.Resource{}, model.ErrMissingFile
	}

	res, err := d.gateway.ReadResource(ctx, session, containerURL+url.PathEscape(name))
	if err != nil {
		return model.Resource{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return res, nil
}

// TruncateLongFileName shortens names longer than 25 characters to their
// first and last 10 characters joined by an ellipsis.
func TruncateLongFileName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxDisplayName {
		return name
	}
	return string(runes[:displayNameEdge]) + "..." + string(runes[len(runes)-displayNameEdge:])
}

// SanitizeName turns a file name into a resource name safe to use as a slug.
func SanitizeName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_':
			b.WriteRune(r)
			dash = false
		case !dash:
			b.WriteRune('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-.")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}
