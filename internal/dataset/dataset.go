// Package dataset reads, writes and merges the JSON-LD metadata datasets kept
// next to documents in a pod.
//
// A dataset is a list of nodes keyed by resource name. Merging only rewrites
// the node it targets; every other node is written back with the exact bytes
// it was read with.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dtroode/podkeeper/internal/model"
)

// ContentType is the media type datasets are stored with.
const ContentType = "application/ld+json"

const (
	keyID           = "@id"
	keyType         = "@type"
	keyName         = "name"
	keyFormat       = "encodingFormat"
	keyIdentifier   = "identifier"
	keyEndDate      = "endDate"
	keyDescription  = "description"
	keyDateModified = "dateModified"

	documentType = "DigitalDocument"
	dateLayout   = time.DateOnly
)

var defaultContext = json.RawMessage(`{"@vocab":"https://schema.org/"}`)

type document struct {
	Context json.RawMessage    `json:"@context"`
	Graph   *[]json.RawMessage `json:"@graph"`
	ID      string             `json:"@id"`
}

// New returns an empty dataset with the schema.org context.
func New() *model.Dataset {
	return &model.Dataset{Context: defaultContext}
}

// Decode parses a serialized dataset. Anything that is not a JSON-LD object
// whose nodes all carry an @id is reported as model.ErrCorruptMetadata.
func Decode(data []byte) (*model.Dataset, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCorruptMetadata, err)
	}

	var nodes []json.RawMessage
	switch {
	case doc.Graph != nil:
		nodes = *doc.Graph
	case doc.ID != "":
		nodes = []json.RawMessage{json.RawMessage(bytes.TrimSpace(data))}
	default:
		return nil, fmt.Errorf("%w: no @graph", model.ErrCorruptMetadata)
	}

	ds := &model.Dataset{Context: doc.Context}
	if len(ds.Context) == 0 {
		ds.Context = defaultContext
	}
	for i, raw := range nodes {
		name, err := nodeName(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", model.ErrCorruptMetadata, i, err)
		}
		ds.Entries = append(ds.Entries, model.DatasetEntry{Name: name, Raw: raw})
	}

	return ds, nil
}

// Encode serializes ds. Entry bytes are copied verbatim.
func Encode(ds *model.Dataset) []byte {
	ctx := ds.Context
	if len(ctx) == 0 {
		ctx = defaultContext
	}

	var buf bytes.Buffer
	buf.WriteString(`{"@context":`)
	buf.Write(ctx)
	buf.WriteString(`,"@graph":[`)
	for i, e := range ds.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(e.Raw)
	}
	buf.WriteString(`]}`)
	return buf.Bytes()
}

// Find returns the index of the entry named name, or -1.
func Find(ds *model.Dataset, name string) int {
	if ds == nil {
		return -1
	}
	for i, e := range ds.Entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// Merge returns the dataset that must be stored to reflect record. A nil
// existing dataset yields a fresh dataset holding only record. Otherwise the
// entry keyed by record.Key() gets name, identifier, endDate and description
// overwritten and dateModified set to now, and all other entries are kept.
// existing is never modified.
func Merge(existing *model.Dataset, record model.DocumentRecord, now time.Time) (*model.Dataset, error) {
	key := record.Key()
	if key == "" {
		return nil, fmt.Errorf("%w: record has no resource name", model.ErrValidation)
	}

	if existing == nil {
		raw, err := newNode(record, now)
		if err != nil {
			return nil, err
		}
		ds := New()
		ds.Entries = []model.DatasetEntry{{Name: key, Raw: raw}}
		return ds, nil
	}

	merged := clone(existing)
	idx := Find(merged, key)
	if idx < 0 {
		raw, err := newNode(record, now)
		if err != nil {
			return nil, err
		}
		merged.Entries = append(merged.Entries, model.DatasetEntry{Name: key, Raw: raw})
		return merged, nil
	}

	fields, err := nodeFields(merged.Entries[idx].Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: %v", model.ErrCorruptMetadata, key, err)
	}
	setString(fields, keyName, record.Name)
	setString(fields, keyIdentifier, string(record.Identifier))
	setString(fields, keyEndDate, formatDate(record.EndDate))
	setString(fields, keyDescription, record.Description)
	setString(fields, keyDateModified, now.UTC().Format(time.RFC3339Nano))

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry %q: %w", key, err)
	}
	merged.Entries[idx].Raw = raw

	return merged, nil
}

// Stamp sets dateModified of the entry named name to now, adding the entry if needed.
func Stamp(existing *model.Dataset, name string, now time.Time) (*model.Dataset, error) {
	ds := New()
	if existing != nil {
		ds = clone(existing)
	}

	fields := map[string]json.RawMessage{}
	idx := Find(ds, name)
	if idx >= 0 {
		var err error
		fields, err = nodeFields(ds.Entries[idx].Raw)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", model.ErrCorruptMetadata, name, err)
		}
	}
	setString(fields, keyID, "#"+url.PathEscape(name))
	setString(fields, keyDateModified, now.UTC().Format(time.RFC3339Nano))

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry %q: %w", name, err)
	}
	if idx >= 0 {
		ds.Entries[idx].Raw = raw
	} else {
		ds.Entries = append(ds.Entries, model.DatasetEntry{Name: name, Raw: raw})
	}
	return ds, nil
}

// Records decodes every entry of ds into a DocumentRecord.
func Records(ds *model.Dataset) ([]model.DocumentRecord, error) {
	records := make([]model.DocumentRecord, 0, len(ds.Entries))
	for _, e := range ds.Entries {
		r, err := Record(e)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

type node struct {
	Name         string `json:"name"`
	Format       string `json:"encodingFormat"`
	Identifier   string `json:"identifier"`
	EndDate      string `json:"endDate"`
	Description  string `json:"description"`
	DateModified string `json:"dateModified"`
}

// Record decodes a single entry.
func Record(e model.DatasetEntry) (model.DocumentRecord, error) {
	var n node
	if err := json.Unmarshal(e.Raw, &n); err != nil {
		return model.DocumentRecord{}, fmt.Errorf("%w: entry %q: %v", model.ErrCorruptMetadata, e.Name, err)
	}

	r := model.DocumentRecord{
		Resource:    e.Name,
		Name:        n.Name,
		MimeType:    n.Format,
		Identifier:  model.DocumentType(n.Identifier),
		Description: n.Description,
	}

	var err error
	if n.EndDate != "" {
		r.EndDate, err = parseDate(n.EndDate)
		if err != nil {
			return model.DocumentRecord{}, fmt.Errorf("%w: entry %q end date: %v", model.ErrCorruptMetadata, e.Name, err)
		}
	}
	if n.DateModified != "" {
		r.DateModified, err = time.Parse(time.RFC3339Nano, n.DateModified)
		if err != nil {
			return model.DocumentRecord{}, fmt.Errorf("%w: entry %q date modified: %v", model.ErrCorruptMetadata, e.Name, err)
		}
	}

	return r, nil
}

// LatestModified returns the most recent dateModified in ds, or nil when no
// entry carries one.
func LatestModified(ds *model.Dataset) (*time.Time, error) {
	var latest *time.Time
	for _, e := range ds.Entries {
		var n node
		if err := json.Unmarshal(e.Raw, &n); err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", model.ErrCorruptMetadata, e.Name, err)
		}
		if n.DateModified == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, n.DateModified)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q date modified: %v", model.ErrCorruptMetadata, e.Name, err)
		}
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest, nil
}

func newNode(record model.DocumentRecord, now time.Time) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	setString(fields, keyID, "#"+url.PathEscape(record.Key()))
	setString(fields, keyType, documentType)
	setString(fields, keyName, record.Name)
	setString(fields, keyFormat, record.MimeType)
	setString(fields, keyIdentifier, string(record.Identifier))
	setString(fields, keyEndDate, formatDate(record.EndDate))
	setString(fields, keyDescription, record.Description)
	setString(fields, keyDateModified, now.UTC().Format(time.RFC3339Nano))

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry %q: %w", record.Key(), err)
	}
	return raw, nil
}

func nodeName(raw json.RawMessage) (string, error) {
	var n struct {
		ID string `json:"@id"`
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if n.ID == "" {
		return "", fmt.Errorf("node without @id")
	}
	id := n.ID
	if i := strings.LastIndex(id, "#"); i >= 0 {
		id = id[i+1:]
	}
	return url.PathUnescape(id)
}

func nodeFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// setString stores value under key, removing the key for an empty value.
func setString(fields map[string]json.RawMessage, key, value string) {
	if value == "" {
		delete(fields, key)
		return
	}
	b, _ := json.Marshal(value)
	fields[key] = b
}

func clone(ds *model.Dataset) *model.Dataset {
	return &model.Dataset{
		Context: ds.Context,
		Entries: append([]model.DatasetEntry(nil), ds.Entries...),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
