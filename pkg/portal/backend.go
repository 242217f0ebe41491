package portal

import (
	smodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
	"github.com/Paraserot/ParanovaX-sub001/pkg/store/memory"
	"github.com/Paraserot/ParanovaX-sub001/pkg/store/surreal"
)

// Backend bundles the remote collection handles for every entity plus
// the sequence counter. The portal is written against these interfaces;
// production wires the SurrealDB implementation, tests wire the
// in-memory one.
type Backend struct {
	Clients       store.Collection[models.Client]
	Leads         store.Collection[models.Lead]
	Invoices      store.Collection[models.Invoice]
	Payments      store.Collection[models.Payment]
	Expenses      store.Collection[models.Expense]
	Tasks         store.Collection[models.Task]
	Tickets       store.Collection[models.Ticket]
	Roles         store.Collection[models.Role]
	Users         store.Collection[models.User]
	Services      store.Collection[models.Service]
	Notifications store.Collection[models.Notification]
	Sequencer     store.Sequencer
}

// NewSurrealBackend declares every collection over the shared SurrealDB
// connection. Sort keys follow how each entity is consumed: reference
// data (clients, users, services) by name, activity streams (leads,
// invoices, payments, expenses, tasks, tickets, notifications) newest
// first, roles by privilege level.
func NewSurrealBackend(st *surreal.Store) *Backend {
	return &Backend{
		Clients: surreal.NewCollection(st, models.TableClients, "name", false,
			func(c *models.Client) smodels.RecordID { return c.ID.RecordID() }),
		Leads: surreal.NewCollection(st, models.TableLeads, "created_at", true,
			func(l *models.Lead) smodels.RecordID { return l.ID.RecordID() }),
		Invoices: surreal.NewCollection(st, models.TableInvoices, "created_at", true,
			func(i *models.Invoice) smodels.RecordID { return i.ID.RecordID() }),
		Payments: surreal.NewCollection(st, models.TablePayments, "created_at", true,
			func(p *models.Payment) smodels.RecordID { return p.ID.RecordID() }),
		Expenses: surreal.NewCollection(st, models.TableExpenses, "created_at", true,
			func(e *models.Expense) smodels.RecordID { return e.ID.RecordID() }),
		Tasks: surreal.NewCollection(st, models.TableTasks, "created_at", true,
			func(t *models.Task) smodels.RecordID { return t.ID.RecordID() }),
		Tickets: surreal.NewCollection(st, models.TableTickets, "created_at", true,
			func(t *models.Ticket) smodels.RecordID { return t.ID.RecordID() }),
		Roles: surreal.NewCollection(st, models.TableRoles, "level", false,
			func(r *models.Role) smodels.RecordID { return r.ID.RecordID() }),
		Users: surreal.NewCollection(st, models.TableUsers, "name", false,
			func(u *models.User) smodels.RecordID { return u.ID.RecordID() }),
		Services: surreal.NewCollection(st, models.TableServices, "name", false,
			func(s *models.Service) smodels.RecordID { return s.ID.RecordID() }),
		Notifications: surreal.NewCollection(st, models.TableNotifications, "created_at", true,
			func(n *models.Notification) smodels.RecordID { return n.ID.RecordID() }),
		Sequencer: surreal.NewSequencer(st),
	}
}

// byName orders ascending by a name key, falling back to id so the
// order is total.
func byName(nameA, idA, nameB, idB string) bool {
	if nameA != nameB {
		return nameA < nameB
	}
	return idA < idB
}

// newestFirst orders descending by creation time; RFC 3339 strings sort
// chronologically, so string comparison is enough.
func newestFirst(tsA models.Timestamp, idA string, tsB models.Timestamp, idB string) bool {
	if tsA != tsB {
		return tsA > tsB
	}
	return idA < idB
}

// NewMemoryBackend builds a fully in-process backend with the same
// declared ordering as the SurrealDB one.
func NewMemoryBackend() *Backend {
	return &Backend{
		Clients: memory.NewCollection(models.TableClients,
			func(c *models.Client) string { return c.ID.String() },
			func(a, b *models.Client) bool { return byName(a.Name, a.ID.String(), b.Name, b.ID.String()) }),
		Leads: memory.NewCollection(models.TableLeads,
			func(l *models.Lead) string { return l.ID.String() },
			func(a, b *models.Lead) bool { return newestFirst(a.CreatedAt, a.ID.String(), b.CreatedAt, b.ID.String()) }),
		Invoices: memory.NewCollection(models.TableInvoices,
			func(i *models.Invoice) string { return i.ID.String() },
			func(a, b *models.Invoice) bool { return newestFirst(a.CreatedAt, a.ID.String(), b.CreatedAt, b.ID.String()) }),
		Payments: memory.NewCollection(models.TablePayments,
			func(p *models.Payment) string { return p.ID.String() },
			func(a, b *models.Payment) bool { return newestFirst(a.CreatedAt, a.ID.String(), b.CreatedAt, b.ID.String()) }),
		Expenses: memory.NewCollection(models.TableExpenses,
			func(e *models.Expense) string { return e.ID.String() },
			func(a, b *models.Expense) bool { return newestFirst(a.CreatedAt, a.ID.String(), b.CreatedAt, b.ID.String()) }),
		Tasks: memory.NewCollection(models.TableTasks,
			func(t *models.Task) string { return t.ID.String() },
			func(a, b *models.Task) bool { return newestFirst(a.CreatedAt, a.ID.String(), b.CreatedAt, b.ID.String()) }),
		Tickets: memory.NewCollection(models.TableTickets,
			func(t *models.Ticket) string { return t.ID.String() },
			func(a, b *models.Ticket) bool { return newestFirst(a.CreatedAt, a.ID.String(), b.CreatedAt, b.ID.String()) }),
		Roles: memory.NewCollection(models.TableRoles,
			func(r *models.Role) string { return r.ID.String() },
			func(a, b *models.Role) bool {
				if a.Level != b.Level {
					return a.Level < b.Level
				}
				return a.ID.String() < b.ID.String()
			}),
		Users: memory.NewCollection(models.TableUsers,
			func(u *models.User) string { return u.ID.String() },
			func(a, b *models.User) bool { return byName(a.Name, a.ID.String(), b.Name, b.ID.String()) }),
		Services: memory.NewCollection(models.TableServices,
			func(s *models.Service) string { return s.ID.String() },
			func(a, b *models.Service) bool { return byName(a.Name, a.ID.String(), b.Name, b.ID.String()) }),
		Notifications: memory.NewCollection(models.TableNotifications,
			func(n *models.Notification) string { return n.ID.String() },
			func(a, b *models.Notification) bool { return newestFirst(a.CreatedAt, a.ID.String(), b.CreatedAt, b.ID.String()) }),
		Sequencer: memory.NewSequencer(),
	}
}
