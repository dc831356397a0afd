package dataset

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/podkeeper/internal/model"
)

var now = time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

func passportRecord() model.DocumentRecord {
	return model.DocumentRecord{
		Resource:    "passport.pdf",
		Name:        "passport.pdf",
		MimeType:    "application/pdf",
		Identifier:  model.DocumentTypePassport,
		EndDate:     time.Date(2031, 5, 1, 0, 0, 0, 0, time.UTC),
		Description: "scanned passport",
	}
}

func TestMerge_IntoAbsentDataset(t *testing.T) {
	record := passportRecord()

	ds, err := Merge(nil, record, now)
	require.NoError(t, err)
	require.Len(t, ds.Entries, 1)
	assert.Equal(t, "passport.pdf", ds.Entries[0].Name)

	got, err := Record(ds.Entries[0])
	require.NoError(t, err)
	record.DateModified = now
	assert.Equal(t, record, got)
}

func TestMerge_PreservesUnrelatedEntry(t *testing.T) {
	unrelated := `{ "@id":"#statement.pdf", "name":"statement.pdf",  "identifier":"Bank Statement", "note":"kept <as is>" }`
	existing, err := Decode([]byte(`{"@context":{"@vocab":"https://schema.org/"},"@graph":[` + unrelated + `]}`))
	require.NoError(t, err)

	merged, err := Merge(existing, passportRecord(), now)
	require.NoError(t, err)
	require.Len(t, merged.Entries, 2)
	assert.Equal(t, unrelated, string(merged.Entries[0].Raw))
	assert.True(t, bytes.Contains(Encode(merged), []byte(unrelated)))

	// the input dataset is left alone
	assert.Len(t, existing.Entries, 1)

	decoded, err := Decode(Encode(merged))
	require.NoError(t, err)
	records, err := Records(decoded)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "statement.pdf", records[0].Resource)
	assert.Equal(t, model.DocumentTypeBankStatement, records[0].Identifier)
	assert.Equal(t, "scanned passport", records[1].Description)
}

func TestMerge_OverwritesMatchingEntryOnly(t *testing.T) {
	first, err := Merge(nil, passportRecord(), now.Add(-time.Hour))
	require.NoError(t, err)
	first, err = Merge(first, model.DocumentRecord{Resource: "other.png", Name: "other.png", Identifier: model.DocumentTypePassport}, now.Add(-time.Hour))
	require.NoError(t, err)
	otherRaw := string(first.Entries[1].Raw)

	update := passportRecord()
	update.Description = "renewed passport"
	update.EndDate = time.Date(2036, 5, 1, 0, 0, 0, 0, time.UTC)
	update.MimeType = "image/png"

	merged, err := Merge(first, update, now)
	require.NoError(t, err)
	require.Len(t, merged.Entries, 2)
	assert.Equal(t, otherRaw, string(merged.Entries[1].Raw))

	got, err := Record(merged.Entries[0])
	require.NoError(t, err)
	assert.Equal(t, "renewed passport", got.Description)
	assert.Equal(t, update.EndDate, got.EndDate)
	assert.Equal(t, now, got.DateModified)
	// encoding format is only written on creation
	assert.Equal(t, "application/pdf", got.MimeType)
}

func TestMerge_KeyedByNameNotContent(t *testing.T) {
	a := passportRecord()
	b := passportRecord()
	b.Resource = "passport-copy.pdf"

	ds, err := Merge(nil, a, now)
	require.NoError(t, err)
	ds, err = Merge(ds, b, now)
	require.NoError(t, err)
	assert.Len(t, ds.Entries, 2)

	ds, err = Merge(ds, a, now)
	require.NoError(t, err)
	assert.Len(t, ds.Entries, 2)
}

func TestMerge_RequiresResourceName(t *testing.T) {
	_, err := Merge(nil, model.DocumentRecord{}, now)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDecode_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "@prefix schema: <https://schema.org/> ."},
		{name: "empty", data: ""},
		{name: "array", data: `[{"@id":"#a"}]`},
		{name: "no graph", data: `{"@context":{}}`},
		{name: "node without id", data: `{"@graph":[{"name":"a"}]}`},
		{name: "node not an object", data: `{"@graph":["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Decode([]byte(tt.data))
			assert.Nil(t, ds)
			assert.ErrorIs(t, err, model.ErrCorruptMetadata)
		})
	}
}

func TestDecode_SingleNode(t *testing.T) {
	ds, err := Decode([]byte(`{"@context":{"@vocab":"https://schema.org/"},"@id":"#active","dateModified":"2026-10-01T08:00:00Z"}`))
	require.NoError(t, err)
	require.Len(t, ds.Entries, 1)
	assert.Equal(t, "active", ds.Entries[0].Name)
}

func TestStampAndLatestModified(t *testing.T) {
	ds, err := Stamp(nil, "active", now.Add(-time.Hour))
	require.NoError(t, err)
	ds, err = Merge(ds, passportRecord(), now.Add(-2*time.Hour))
	require.NoError(t, err)

	latest, err := LatestModified(ds)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, now.Add(-time.Hour), *latest)

	ds, err = Stamp(ds, "active", now)
	require.NoError(t, err)
	assert.Len(t, ds.Entries, 2)
	latest, err = LatestModified(ds)
	require.NoError(t, err)
	assert.Equal(t, now, *latest)
}

func TestLatestModified_NoTimestamps(t *testing.T) {
	ds, err := Decode([]byte(`{"@graph":[{"@id":"#a","name":"a"}]}`))
	require.NoError(t, err)
	latest, err := LatestModified(ds)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestLatestModified_BadTimestamp(t *testing.T) {
	ds, err := Decode([]byte(`{"@graph":[{"@id":"#a","dateModified":"yesterday"}]}`))
	require.NoError(t, err)
	_, err = LatestModified(ds)
	assert.ErrorIs(t, err, model.ErrCorruptMetadata)
}
