package workorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Additional-Code/orderdesk/internal/entity"
)

func sampleOrder(id string, ts time.Time) entity.WorkOrder {
	return entity.WorkOrder{
		OrderID:      id,
		Size:         "1",
		Filled:       "0",
		Status:       "Accepted",
		Ticker:       "BTCUSD",
		MIC:          "LIQD",
		Action:       "BUY",
		Timestamp:    ts,
		LastModified: ts,
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 30, 15, 250_000_000, time.UTC)
	in := sampleOrder("665599", ts)
	in.LastModified = ts.Add(90 * time.Second)

	raw, err := Marshal(ToDocument(in))
	require.NoError(t, err)

	out, issues, err := FromDocument(raw, time.Now())
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, in, out)
}

func TestToDocumentUsesCanonicalFieldNames(t *testing.T) {
	doc := ToDocument(sampleOrder("1", time.Now()))

	keys := make([]string, 0, len(doc))
	for _, e := range doc {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, documentFields, keys)
	assert.NotContains(t, keys, "last_modified")
}

func TestFromDocumentDefaultsMissingFields(t *testing.T) {
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	raw, err := Marshal(bson.D{
		{Key: FieldOrderID, Value: "42"},
		{Key: FieldStatus, Value: nil},
	})
	require.NoError(t, err)

	w, issues, err := FromDocument(raw, fallback)
	require.NoError(t, err)

	assert.Equal(t, "42", w.OrderID)
	assert.Equal(t, "", w.Status)
	assert.Equal(t, fallback, w.Timestamp)
	assert.Equal(t, fallback, w.LastModified)

	assert.Len(t, issues, 8)
	for _, issue := range issues {
		assert.Equal(t, FieldMissing, issue.State, issue.Field)
	}
}

func TestFromDocumentFlagsMalformedFields(t *testing.T) {
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	legacy := time.Date(2023, 7, 1, 8, 0, 0, 0, time.UTC)
	doc := ToDocument(sampleOrder("7", legacy))
	doc[1] = bson.E{Key: FieldSize, Value: 5}
	doc[7] = bson.E{Key: FieldTimestamp, Value: "yesterday"}
	doc[8] = bson.E{Key: FieldLastModified, Value: legacy.Format(time.RFC3339)}

	raw, err := Marshal(doc)
	require.NoError(t, err)

	w, issues, err := FromDocument(raw, fallback)
	require.NoError(t, err)

	assert.Equal(t, "", w.Size)
	assert.Equal(t, fallback, w.Timestamp)
	assert.Equal(t, fallback, w.LastModified, "string datetimes are not parsed")
	assert.Equal(t, []FieldIssue{
		{Field: FieldSize, State: FieldMalformed},
		{Field: FieldTimestamp, State: FieldMalformed},
		{Field: FieldLastModified, State: FieldMalformed},
	}, issues)
	assert.Equal(t, "size:malformed", issues[0].String())
}

func TestFromDocumentRejectsCorruptBytes(t *testing.T) {
	_, _, err := FromDocument(bson.Raw{0x05, 0x00, 0x00}, time.Now())
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestProjectionCoversAllFields(t *testing.T) {
	p := Projection()
	assert.Equal(t, "_id", p[0].Key)
	assert.Equal(t, 0, p[0].Value)
	assert.Len(t, p, len(documentFields)+1)
}
