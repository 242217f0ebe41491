package models

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Typed IDs give every entity its own identifier type so that an
// InvoiceID can never be passed where a ClientID is expected. Each type
// marshals to a plain UUID string in JSON and to a SurrealDB RecordID
// (CBOR tag 8, [table, id]) on the wire, so foreign keys stored in the
// document database are real record links.

func marshalCBORID(table string, id uuid.UUID) ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{table, id.String()},
	})
}

func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// RecordIDs arrive as CBOR tag 8 with a [table, id] pair.
	if data[0]>>5 != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", data[0]>>5)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}
	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}
	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}
	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsed, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}
	*target = parsed
	return nil
}

func unmarshalJSONID(data []byte, target *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = id
	return nil
}

// ClientID is a typed ID for clients
type ClientID struct {
	uuid uuid.UUID
}

func NewClientID() ClientID { return ClientID{uuid: uuid.New()} }

func ParseClientID(s string) (ClientID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ClientID{}, fmt.Errorf("invalid client ID: %w", err)
	}
	return ClientID{uuid: id}, nil
}

func (c ClientID) String() string { return c.uuid.String() }
func (c ClientID) IsZero() bool   { return c.uuid == uuid.Nil }

func (c ClientID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableClients, ID: c.uuid.String()}
}

func (c ClientID) MarshalJSON() ([]byte, error)     { return json.Marshal(c.uuid.String()) }
func (c *ClientID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &c.uuid) }
func (c ClientID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableClients, c.uuid) }
func (c *ClientID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableClients, &c.uuid)
}

// LeadID is a typed ID for leads
type LeadID struct {
	uuid uuid.UUID
}

func NewLeadID() LeadID { return LeadID{uuid: uuid.New()} }

func ParseLeadID(s string) (LeadID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return LeadID{}, fmt.Errorf("invalid lead ID: %w", err)
	}
	return LeadID{uuid: id}, nil
}

func (l LeadID) String() string { return l.uuid.String() }
func (l LeadID) IsZero() bool   { return l.uuid == uuid.Nil }

func (l LeadID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableLeads, ID: l.uuid.String()}
}

func (l LeadID) MarshalJSON() ([]byte, error)     { return json.Marshal(l.uuid.String()) }
func (l *LeadID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &l.uuid) }
func (l LeadID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableLeads, l.uuid) }
func (l *LeadID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableLeads, &l.uuid)
}

// InvoiceID is a typed ID for invoices
type InvoiceID struct {
	uuid uuid.UUID
}

func NewInvoiceID() InvoiceID { return InvoiceID{uuid: uuid.New()} }

func ParseInvoiceID(s string) (InvoiceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return InvoiceID{}, fmt.Errorf("invalid invoice ID: %w", err)
	}
	return InvoiceID{uuid: id}, nil
}

func (i InvoiceID) String() string { return i.uuid.String() }
func (i InvoiceID) IsZero() bool   { return i.uuid == uuid.Nil }

func (i InvoiceID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableInvoices, ID: i.uuid.String()}
}

func (i InvoiceID) MarshalJSON() ([]byte, error)     { return json.Marshal(i.uuid.String()) }
func (i *InvoiceID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &i.uuid) }
func (i InvoiceID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableInvoices, i.uuid) }
func (i *InvoiceID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableInvoices, &i.uuid)
}

// PaymentID is a typed ID for payments
type PaymentID struct {
	uuid uuid.UUID
}

func NewPaymentID() PaymentID { return PaymentID{uuid: uuid.New()} }

func ParsePaymentID(s string) (PaymentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PaymentID{}, fmt.Errorf("invalid payment ID: %w", err)
	}
	return PaymentID{uuid: id}, nil
}

func (p PaymentID) String() string { return p.uuid.String() }
func (p PaymentID) IsZero() bool   { return p.uuid == uuid.Nil }

func (p PaymentID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TablePayments, ID: p.uuid.String()}
}

func (p PaymentID) MarshalJSON() ([]byte, error)     { return json.Marshal(p.uuid.String()) }
func (p *PaymentID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &p.uuid) }
func (p PaymentID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TablePayments, p.uuid) }
func (p *PaymentID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TablePayments, &p.uuid)
}

// ExpenseID is a typed ID for expenses
type ExpenseID struct {
	uuid uuid.UUID
}

func NewExpenseID() ExpenseID { return ExpenseID{uuid: uuid.New()} }

func ParseExpenseID(s string) (ExpenseID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ExpenseID{}, fmt.Errorf("invalid expense ID: %w", err)
	}
	return ExpenseID{uuid: id}, nil
}

func (e ExpenseID) String() string { return e.uuid.String() }
func (e ExpenseID) IsZero() bool   { return e.uuid == uuid.Nil }

func (e ExpenseID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableExpenses, ID: e.uuid.String()}
}

func (e ExpenseID) MarshalJSON() ([]byte, error)     { return json.Marshal(e.uuid.String()) }
func (e *ExpenseID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &e.uuid) }
func (e ExpenseID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableExpenses, e.uuid) }
func (e *ExpenseID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableExpenses, &e.uuid)
}

// TaskID is a typed ID for tasks
type TaskID struct {
	uuid uuid.UUID
}

func NewTaskID() TaskID { return TaskID{uuid: uuid.New()} }

func ParseTaskID(s string) (TaskID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TaskID{}, fmt.Errorf("invalid task ID: %w", err)
	}
	return TaskID{uuid: id}, nil
}

func (t TaskID) String() string { return t.uuid.String() }
func (t TaskID) IsZero() bool   { return t.uuid == uuid.Nil }

func (t TaskID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableTasks, ID: t.uuid.String()}
}

func (t TaskID) MarshalJSON() ([]byte, error)     { return json.Marshal(t.uuid.String()) }
func (t *TaskID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &t.uuid) }
func (t TaskID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableTasks, t.uuid) }
func (t *TaskID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableTasks, &t.uuid)
}

// TicketID is a typed ID for support tickets
type TicketID struct {
	uuid uuid.UUID
}

func NewTicketID() TicketID { return TicketID{uuid: uuid.New()} }

func ParseTicketID(s string) (TicketID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TicketID{}, fmt.Errorf("invalid ticket ID: %w", err)
	}
	return TicketID{uuid: id}, nil
}

func (t TicketID) String() string { return t.uuid.String() }
func (t TicketID) IsZero() bool   { return t.uuid == uuid.Nil }

func (t TicketID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableTickets, ID: t.uuid.String()}
}

func (t TicketID) MarshalJSON() ([]byte, error)     { return json.Marshal(t.uuid.String()) }
func (t *TicketID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &t.uuid) }
func (t TicketID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableTickets, t.uuid) }
func (t *TicketID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableTickets, &t.uuid)
}

// RoleID is a typed ID for roles
type RoleID struct {
	uuid uuid.UUID
}

func NewRoleID() RoleID { return RoleID{uuid: uuid.New()} }

func ParseRoleID(s string) (RoleID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RoleID{}, fmt.Errorf("invalid role ID: %w", err)
	}
	return RoleID{uuid: id}, nil
}

func (r RoleID) String() string { return r.uuid.String() }
func (r RoleID) IsZero() bool   { return r.uuid == uuid.Nil }

func (r RoleID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableRoles, ID: r.uuid.String()}
}

func (r RoleID) MarshalJSON() ([]byte, error)     { return json.Marshal(r.uuid.String()) }
func (r *RoleID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &r.uuid) }
func (r RoleID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableRoles, r.uuid) }
func (r *RoleID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableRoles, &r.uuid)
}

// UserID is a typed ID for portal users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID { return UserID{uuid: uuid.New()} }

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) String() string { return u.uuid.String() }
func (u UserID) IsZero() bool   { return u.uuid == uuid.Nil }

func (u UserID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableUsers, ID: u.uuid.String()}
}

func (u UserID) MarshalJSON() ([]byte, error)     { return json.Marshal(u.uuid.String()) }
func (u *UserID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &u.uuid) }
func (u UserID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableUsers, u.uuid) }
func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableUsers, &u.uuid)
}

// ServiceID is a typed ID for services
type ServiceID struct {
	uuid uuid.UUID
}

func NewServiceID() ServiceID { return ServiceID{uuid: uuid.New()} }

func ParseServiceID(s string) (ServiceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ServiceID{}, fmt.Errorf("invalid service ID: %w", err)
	}
	return ServiceID{uuid: id}, nil
}

func (s ServiceID) String() string { return s.uuid.String() }
func (s ServiceID) IsZero() bool   { return s.uuid == uuid.Nil }

func (s ServiceID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableServices, ID: s.uuid.String()}
}

func (s ServiceID) MarshalJSON() ([]byte, error)     { return json.Marshal(s.uuid.String()) }
func (s *ServiceID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &s.uuid) }
func (s ServiceID) MarshalCBOR() ([]byte, error)     { return marshalCBORID(TableServices, s.uuid) }
func (s *ServiceID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableServices, &s.uuid)
}

// NotificationID is a typed ID for notifications
type NotificationID struct {
	uuid uuid.UUID
}

func NewNotificationID() NotificationID { return NotificationID{uuid: uuid.New()} }

func ParseNotificationID(s string) (NotificationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NotificationID{}, fmt.Errorf("invalid notification ID: %w", err)
	}
	return NotificationID{uuid: id}, nil
}

func (n NotificationID) String() string { return n.uuid.String() }
func (n NotificationID) IsZero() bool   { return n.uuid == uuid.Nil }

func (n NotificationID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: TableNotifications, ID: n.uuid.String()}
}

func (n NotificationID) MarshalJSON() ([]byte, error)     { return json.Marshal(n.uuid.String()) }
func (n *NotificationID) UnmarshalJSON(data []byte) error { return unmarshalJSONID(data, &n.uuid) }
func (n NotificationID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID(TableNotifications, n.uuid)
}
func (n *NotificationID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, TableNotifications, &n.uuid)
}
