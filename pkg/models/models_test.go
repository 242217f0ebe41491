package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var readTime = time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)

func TestNormalizeDefaultsMissingTimestamps(t *testing.T) {
	docs := []Client{
		{ID: NewClientID(), Name: "Acme"},
		{ID: NewClientID(), Name: "Globex"},
		{ID: NewClientID(), Name: "Initech"},
	}
	for i := range docs {
		docs[i].Normalize(readTime)
	}

	want := NewTimestamp(readTime)
	for _, c := range docs {
		assert.Equal(t, want, c.CreatedAt)
		assert.Equal(t, want, c.UpdatedAt)
		_, err := c.CreatedAt.Time()
		assert.NoError(t, err, "defaulted timestamp must parse")
	}
}

func TestNormalizeKeepsExistingTimestamps(t *testing.T) {
	existing := NewTimestamp(time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC))
	c := Client{ID: NewClientID(), Name: "Acme", CreatedAt: existing}
	c.Normalize(readTime)

	assert.Equal(t, existing, c.CreatedAt)
	assert.Equal(t, existing, c.UpdatedAt, "missing updated_at inherits created_at")
}

func TestNormalizeDefaultsStatuses(t *testing.T) {
	lead := Lead{ID: NewLeadID(), Name: "Prospect"}
	lead.Normalize(readTime)
	assert.Equal(t, LeadNew, lead.Status)

	task := Task{ID: NewTaskID(), Title: "Ship it"}
	task.Normalize(readTime)
	assert.Equal(t, TaskOpen, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)

	ticket := Ticket{ID: NewTicketID(), Subject: "Login broken"}
	ticket.Normalize(readTime)
	assert.Equal(t, TicketOpen, ticket.Status)

	invoice := Invoice{ID: NewInvoiceID(), Amount: 100, Tax: 18}
	invoice.Normalize(readTime)
	assert.Equal(t, InvoiceDraft, invoice.Status)
	assert.Equal(t, 118.0, invoice.Total, "missing total computed from amount and tax")
}

func TestNormalizeRoleSuppliesPermissionMap(t *testing.T) {
	r := Role{ID: NewRoleID(), Name: "Viewer"}
	r.Normalize(readTime)
	require.NotNil(t, r.Permissions)
	assert.Empty(t, r.Permissions)
}

func TestTimestampCanonicalForm(t *testing.T) {
	// Non-UTC inputs canonicalize to UTC.
	ist := time.FixedZone("IST", 5*3600+1800)
	ts := NewTimestamp(time.Date(2024, 5, 20, 15, 0, 0, 0, ist))
	assert.Equal(t, Timestamp("2024-05-20T09:30:00Z"), ts)

	parsed, err := ts.Time()
	require.NoError(t, err)
	assert.True(t, parsed.Equal(readTime))
}

func TestTimestampCBORRoundTrip(t *testing.T) {
	ts := NewTimestamp(readTime)
	data, err := ts.MarshalCBOR()
	require.NoError(t, err)

	var got Timestamp
	require.NoError(t, got.UnmarshalCBOR(data))
	assert.Equal(t, ts, got)
}

func TestTimestampUnmarshalCBORNeverFailsRecord(t *testing.T) {
	var ts Timestamp
	// Garbage decodes to the zero value so normalization can repair it.
	require.NoError(t, ts.UnmarshalCBOR([]byte{0xf6})) // null
	assert.True(t, ts.IsZero())

	require.NoError(t, ts.UnmarshalCBOR([]byte{0x41, 0x00})) // byte string
	assert.True(t, ts.IsZero())
}

func TestTypedIDJSON(t *testing.T) {
	id := NewClientID()
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(data))

	var got ClientID
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, id, got)
}

func TestTypedIDCBORRejectsForeignTable(t *testing.T) {
	id := NewClientID()
	data, err := id.MarshalCBOR()
	require.NoError(t, err)

	var same ClientID
	require.NoError(t, same.UnmarshalCBOR(data))
	assert.Equal(t, id.String(), same.String())

	var wrong LeadID
	assert.Error(t, wrong.UnmarshalCBOR(data), "a clients record id is not a leads id")
}

func TestParseTypedID(t *testing.T) {
	id := NewInvoiceID()
	parsed, err := ParseInvoiceID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseInvoiceID("not-a-uuid")
	assert.Error(t, err)

	assert.True(t, InvoiceID{}.IsZero())
	assert.False(t, id.IsZero())
}

func TestTypedIDRecordID(t *testing.T) {
	id := NewTicketID()
	rid := id.RecordID()
	assert.Equal(t, TableTickets, rid.Table)
	assert.Equal(t, id.String(), rid.ID)
}
