package workorder

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Additional-Code/orderdesk/internal/entity"
)

// Document field names. lastModified is the only spelling written or read.
const (
	FieldOrderID      = "orderId"
	FieldSize         = "size"
	FieldFilled       = "filled"
	FieldStatus       = "status"
	FieldTicker       = "ticker"
	FieldMIC          = "mic"
	FieldAction       = "action"
	FieldTimestamp    = "timestamp"
	FieldLastModified = "lastModified"
)

var documentFields = []string{
	FieldOrderID,
	FieldSize,
	FieldFilled,
	FieldStatus,
	FieldTicker,
	FieldMIC,
	FieldAction,
	FieldTimestamp,
	FieldLastModified,
}

// FieldState describes how a document field was read.
type FieldState int

const (
	FieldPresent FieldState = iota
	FieldMissing
	FieldMalformed
)

func (s FieldState) String() string {
	switch s {
	case FieldPresent:
		return "present"
	case FieldMissing:
		return "missing"
	case FieldMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("FieldState(%d)", int(s))
	}
}

// FieldIssue records a field that was defaulted while decoding.
type FieldIssue struct {
	Field string
	State FieldState
}

func (i FieldIssue) String() string {
	return i.Field + ":" + i.State.String()
}

// Projection limits reads to the work-order fields.
func Projection() bson.D {
	projection := bson.D{{Key: "_id", Value: 0}}
	for _, field := range documentFields {
		projection = append(projection, bson.E{Key: field, Value: 1})
	}
	return projection
}

// ToDocument maps a work order onto its stored document shape.
func ToDocument(w entity.WorkOrder) bson.D {
	return bson.D{
		{Key: FieldOrderID, Value: w.OrderID},
		{Key: FieldSize, Value: w.Size},
		{Key: FieldFilled, Value: w.Filled},
		{Key: FieldStatus, Value: w.Status},
		{Key: FieldTicker, Value: w.Ticker},
		{Key: FieldMIC, Value: w.MIC},
		{Key: FieldAction, Value: w.Action},
		{Key: FieldTimestamp, Value: w.Timestamp.UTC()},
		{Key: FieldLastModified, Value: w.LastModified.UTC()},
	}
}

// FromDocument decodes a raw document. Missing or mistyped strings become "",
// missing or malformed datetimes become fallback; each is reported as an issue.
// An error is returned only when raw is not a valid document.
func FromDocument(raw bson.Raw, fallback time.Time) (entity.WorkOrder, []FieldIssue, error) {
	if err := raw.Validate(); err != nil {
		return entity.WorkOrder{}, nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	d := decoder{raw: raw, fallback: fallback.UTC().Truncate(time.Millisecond)}
	w := entity.WorkOrder{
		OrderID:      d.str(FieldOrderID),
		Size:         d.str(FieldSize),
		Filled:       d.str(FieldFilled),
		Status:       d.str(FieldStatus),
		Ticker:       d.str(FieldTicker),
		MIC:          d.str(FieldMIC),
		Action:       d.str(FieldAction),
		Timestamp:    d.datetime(FieldTimestamp),
		LastModified: d.datetime(FieldLastModified),
	}
	return w, d.issues, nil
}

// Marshal encodes a document to raw bytes, used to read back what was written.
func Marshal(doc bson.D) (bson.Raw, error) {
	b, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return bson.Raw(b), nil
}

type decoder struct {
	raw      bson.Raw
	fallback time.Time
	issues   []FieldIssue
}

func (d *decoder) lookup(field string) (bson.RawValue, bool) {
	val, err := d.raw.LookupErr(field)
	if err != nil || val.Type == bson.TypeNull || val.Type == bson.TypeUndefined {
		d.issues = append(d.issues, FieldIssue{Field: field, State: FieldMissing})
		return bson.RawValue{}, false
	}
	return val, true
}

func (d *decoder) str(field string) string {
	val, ok := d.lookup(field)
	if !ok {
		return ""
	}
	s, ok := val.StringValueOK()
	if !ok {
		d.issues = append(d.issues, FieldIssue{Field: field, State: FieldMalformed})
		return ""
	}
	return s
}

func (d *decoder) datetime(field string) time.Time {
	val, ok := d.lookup(field)
	if !ok {
		return d.fallback
	}
	if ms, ok := val.DateTimeOK(); ok {
		return time.UnixMilli(ms).UTC()
	}
	d.issues = append(d.issues, FieldIssue{Field: field, State: FieldMalformed})
	return d.fallback
}
