package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Timestamp is a point in time held as a canonical ISO-8601 (RFC 3339,
// UTC) string. The remote database stores datetimes in its own CBOR
// tagged format; converting them at the store boundary means everything
// above the store layer deals in one well-defined representation.
//
// The zero value ("") marks a document that arrived without the field.
// Normalization replaces it with the read time rather than rejecting
// the record.
type Timestamp string

// NewTimestamp converts t to the canonical representation.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Format(time.RFC3339))
}

func (t Timestamp) IsZero() bool { return t == "" }

// Time parses the timestamp back into a time.Time.
func (t Timestamp) Time() (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("zero timestamp")
	}
	return time.Parse(time.RFC3339, string(t))
}

func (t Timestamp) String() string { return string(t) }

// MarshalCBOR encodes the timestamp as the database's native datetime
// tag so that range queries and ordering keep working server-side.
func (t Timestamp) MarshalCBOR() ([]byte, error) {
	if t.IsZero() {
		return cbor.Marshal(nil)
	}
	parsed, err := t.Time()
	if err != nil {
		return nil, fmt.Errorf("marshal timestamp: %w", err)
	}
	d := surrealdb_models.CustomDateTime{Time: parsed}
	return d.MarshalCBOR()
}

// UnmarshalCBOR accepts the database's datetime tag, a plain string, or
// null. Anything unreadable decodes to the zero value instead of
// failing the surrounding record; normalization supplies a default.
func (t *Timestamp) UnmarshalCBOR(data []byte) error {
	var d surrealdb_models.CustomDateTime
	if err := d.UnmarshalCBOR(data); err == nil {
		if d.IsZero() {
			*t = ""
		} else {
			*t = NewTimestamp(d.Time)
		}
		return nil
	}

	var s string
	if err := cbor.Unmarshal(data, &s); err == nil {
		if s == "" {
			*t = ""
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			*t = ""
			return nil
		}
		*t = NewTimestamp(parsed)
		return nil
	}

	*t = ""
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = Timestamp(s)
	return nil
}
