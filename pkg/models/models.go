// Package models defines the business entities of the ParanovaX portal
// and the normalization applied to raw documents at the store boundary.
//
// The remote document database enforces no schema, so every record read
// from it passes through its entity's Normalize method before entering
// any cache: provider datetimes become canonical ISO-8601 strings,
// missing timestamps default to the read time, and missing status
// fields default to the entity's initial state. A malformed document is
// repaired where a safe default exists rather than rejected, so one bad
// record never blocks a whole collection from loading.
package models

import "time"

// Collection names in the remote document database.
const (
	TableClients       = "clients"
	TableLeads         = "leads"
	TableInvoices      = "invoices"
	TablePayments      = "payments"
	TableExpenses      = "expenses"
	TableTasks         = "tasks"
	TableTickets       = "tickets"
	TableRoles         = "roles"
	TableUsers         = "users"
	TableServices      = "services"
	TableNotifications = "notifications"
	TableCounters      = "counters"
)

// InvoiceStatus tracks an invoice through its lifecycle.
type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// LeadStatus tracks a lead through the sales funnel.
type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

// TaskStatus tracks a task on the board.
type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// TicketStatus tracks a support ticket.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketPending  TicketStatus = "pending"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

// Priority is shared by tasks and tickets.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Client is a customer account managed through the admin portal.
type Client struct {
	ID         ClientID  `json:"id" cbor:"id"`
	Name       string    `json:"name" cbor:"name"`
	Email      string    `json:"email" cbor:"email"`
	Phone      string    `json:"phone,omitempty" cbor:"phone,omitempty"`
	Company    string    `json:"company,omitempty" cbor:"company,omitempty"`
	ClientType string    `json:"client_type,omitempty" cbor:"client_type,omitempty"`
	Active     bool      `json:"active" cbor:"active"`
	CreatedAt  Timestamp `json:"created_at" cbor:"created_at"`
	UpdatedAt  Timestamp `json:"updated_at" cbor:"updated_at"`
}

func (c *Client) Normalize(now time.Time) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = NewTimestamp(now)
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
}

// Lead is a prospective client.
type Lead struct {
	ID         LeadID     `json:"id" cbor:"id"`
	Name       string     `json:"name" cbor:"name"`
	Email      string     `json:"email,omitempty" cbor:"email,omitempty"`
	Phone      string     `json:"phone,omitempty" cbor:"phone,omitempty"`
	Source     string     `json:"source,omitempty" cbor:"source,omitempty"`
	Status     LeadStatus `json:"status" cbor:"status"`
	AssignedTo UserID     `json:"assigned_to,omitempty" cbor:"assigned_to,omitempty"`
	CreatedAt  Timestamp  `json:"created_at" cbor:"created_at"`
	UpdatedAt  Timestamp  `json:"updated_at" cbor:"updated_at"`
}

func (l *Lead) Normalize(now time.Time) {
	if l.Status == "" {
		l.Status = LeadNew
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = NewTimestamp(now)
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
}

// Invoice is a bill issued to a client. Number is the human-readable
// sequential identifier allocated by the sequence generator; it is
// assigned exactly once at creation and never reused.
type Invoice struct {
	ID        InvoiceID     `json:"id" cbor:"id"`
	Number    string        `json:"number" cbor:"number"`
	ClientID  ClientID      `json:"client_id" cbor:"client_id"`
	Amount    float64       `json:"amount" cbor:"amount"`
	Tax       float64       `json:"tax,omitempty" cbor:"tax,omitempty"`
	Total     float64       `json:"total" cbor:"total"`
	Status    InvoiceStatus `json:"status" cbor:"status"`
	DueDate   Timestamp     `json:"due_date,omitempty" cbor:"due_date,omitempty"`
	IssuedAt  Timestamp     `json:"issued_at,omitempty" cbor:"issued_at,omitempty"`
	CreatedAt Timestamp     `json:"created_at" cbor:"created_at"`
	UpdatedAt Timestamp     `json:"updated_at" cbor:"updated_at"`
}

func (i *Invoice) Normalize(now time.Time) {
	if i.Status == "" {
		i.Status = InvoiceDraft
	}
	if i.Total == 0 && i.Amount != 0 {
		i.Total = i.Amount + i.Tax
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = NewTimestamp(now)
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = i.CreatedAt
	}
}

// Payment records money received against an invoice.
type Payment struct {
	ID         PaymentID `json:"id" cbor:"id"`
	InvoiceID  InvoiceID `json:"invoice_id" cbor:"invoice_id"`
	ClientID   ClientID  `json:"client_id" cbor:"client_id"`
	Amount     float64   `json:"amount" cbor:"amount"`
	Method     string    `json:"method,omitempty" cbor:"method,omitempty"`
	ReceivedAt Timestamp `json:"received_at,omitempty" cbor:"received_at,omitempty"`
	CreatedAt  Timestamp `json:"created_at" cbor:"created_at"`
}

func (p *Payment) Normalize(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = NewTimestamp(now)
	}
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = p.CreatedAt
	}
}

// Expense is an operational cost tracked by the admin portal.
type Expense struct {
	ID          ExpenseID `json:"id" cbor:"id"`
	Category    string    `json:"category" cbor:"category"`
	Description string    `json:"description,omitempty" cbor:"description,omitempty"`
	Amount      float64   `json:"amount" cbor:"amount"`
	IncurredAt  Timestamp `json:"incurred_at,omitempty" cbor:"incurred_at,omitempty"`
	CreatedAt   Timestamp `json:"created_at" cbor:"created_at"`
}

func (e *Expense) Normalize(now time.Time) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = NewTimestamp(now)
	}
	if e.IncurredAt.IsZero() {
		e.IncurredAt = e.CreatedAt
	}
}

// Task is a unit of internal work, optionally assigned to a user.
type Task struct {
	ID          TaskID     `json:"id" cbor:"id"`
	Title       string     `json:"title" cbor:"title"`
	Description string     `json:"description,omitempty" cbor:"description,omitempty"`
	Status      TaskStatus `json:"status" cbor:"status"`
	Priority    Priority   `json:"priority" cbor:"priority"`
	AssignedTo  UserID     `json:"assigned_to,omitempty" cbor:"assigned_to,omitempty"`
	DueDate     Timestamp  `json:"due_date,omitempty" cbor:"due_date,omitempty"`
	CreatedAt   Timestamp  `json:"created_at" cbor:"created_at"`
	UpdatedAt   Timestamp  `json:"updated_at" cbor:"updated_at"`
}

func (t *Task) Normalize(now time.Time) {
	if t.Status == "" {
		t.Status = TaskOpen
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = NewTimestamp(now)
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
}

// Ticket is a support request raised by a client.
type Ticket struct {
	ID         TicketID     `json:"id" cbor:"id"`
	Subject    string       `json:"subject" cbor:"subject"`
	Body       string       `json:"body,omitempty" cbor:"body,omitempty"`
	Status     TicketStatus `json:"status" cbor:"status"`
	Priority   Priority     `json:"priority" cbor:"priority"`
	ClientID   ClientID     `json:"client_id,omitempty" cbor:"client_id,omitempty"`
	AssignedTo UserID       `json:"assigned_to,omitempty" cbor:"assigned_to,omitempty"`
	CreatedAt  Timestamp    `json:"created_at" cbor:"created_at"`
	UpdatedAt  Timestamp    `json:"updated_at" cbor:"updated_at"`
}

func (t *Ticket) Normalize(now time.Time) {
	if t.Status == "" {
		t.Status = TicketOpen
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = NewTimestamp(now)
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
}

// Role is an access-control role. Level orders roles by privilege
// (lower is more privileged). Super marks a role that bypasses the
// permission map entirely; it is the explicit form of the legacy
// convention of naming a role "Super Admin", which the evaluator still
// honors for data created before the flag existed.
type Role struct {
	ID          RoleID              `json:"id" cbor:"id"`
	Name        string              `json:"name" cbor:"name"`
	Level       int                 `json:"level" cbor:"level"`
	Super       bool                `json:"super,omitempty" cbor:"super,omitempty"`
	Permissions map[string][]string `json:"permissions" cbor:"permissions"`
	CreatedAt   Timestamp           `json:"created_at" cbor:"created_at"`
	UpdatedAt   Timestamp           `json:"updated_at" cbor:"updated_at"`
}

func (r *Role) Normalize(now time.Time) {
	if r.Permissions == nil {
		r.Permissions = map[string][]string{}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = NewTimestamp(now)
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
}

// User is a portal user. Authentication is delegated to the external
// identity provider; the record only links the identity to a role.
type User struct {
	ID        UserID    `json:"id" cbor:"id"`
	Name      string    `json:"name" cbor:"name"`
	Email     string    `json:"email" cbor:"email"`
	RoleID    RoleID    `json:"role_id,omitempty" cbor:"role_id,omitempty"`
	Active    bool      `json:"active" cbor:"active"`
	CreatedAt Timestamp `json:"created_at" cbor:"created_at"`
	UpdatedAt Timestamp `json:"updated_at" cbor:"updated_at"`
}

func (u *User) Normalize(now time.Time) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = NewTimestamp(now)
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
}

// Service is a billable service offered to clients.
type Service struct {
	ID          ServiceID `json:"id" cbor:"id"`
	Name        string    `json:"name" cbor:"name"`
	Description string    `json:"description,omitempty" cbor:"description,omitempty"`
	Rate        float64   `json:"rate" cbor:"rate"`
	Active      bool      `json:"active" cbor:"active"`
	CreatedAt   Timestamp `json:"created_at" cbor:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at" cbor:"updated_at"`
}

func (s *Service) Normalize(now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = NewTimestamp(now)
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
}

// Notification is an in-app notification record. Delivery to devices is
// handled by an external collaborator; this is only the stored entity.
type Notification struct {
	ID        NotificationID `json:"id" cbor:"id"`
	Title     string         `json:"title" cbor:"title"`
	Body      string         `json:"body,omitempty" cbor:"body,omitempty"`
	Topic     string         `json:"topic,omitempty" cbor:"topic,omitempty"`
	UserID    UserID         `json:"user_id,omitempty" cbor:"user_id,omitempty"`
	ReadAt    Timestamp      `json:"read_at,omitempty" cbor:"read_at,omitempty"`
	CreatedAt Timestamp      `json:"created_at" cbor:"created_at"`
}

func (n *Notification) Normalize(now time.Time) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = NewTimestamp(now)
	}
}

// OutstandingBalance is a derived reporting row: total invoiced minus
// total paid per client. It is computed by the reporting mirror, never
// stored in the document database.
type OutstandingBalance struct {
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name"`
	Invoiced   float64 `json:"invoiced"`
	Paid       float64 `json:"paid"`
	Balance    float64 `json:"balance"`
}
