package portal

import (
	"github.com/rs/zerolog"

	"github.com/Paraserot/ParanovaX-sub001/pkg/cache"
	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
)

// Stores is the portal's cache registry: one cache store per entity,
// constructed once per application session and injected wherever state
// is consumed. Each store owns its snapshot and flags exclusively.
//
// Tickets, tasks, roles, services and notifications run in subscribe
// mode (the admin screens need live updates); the rest are
// fetch-and-invalidate.
type Stores struct {
	Clients       *cache.Collection[models.Client]
	Leads         *cache.Collection[models.Lead]
	Invoices      *cache.Collection[models.Invoice]
	Payments      *cache.Collection[models.Payment]
	Expenses      *cache.Collection[models.Expense]
	Tasks         *cache.Collection[models.Task]
	Tickets       *cache.Collection[models.Ticket]
	Roles         *cache.Collection[models.Role]
	Users         *cache.Collection[models.User]
	Services      *cache.Collection[models.Service]
	Notifications *cache.Collection[models.Notification]
}

// NewStores builds the registry over a backend. Every store gets its
// entity's Normalize method as the normalization hook, so documents are
// repaired at the cache boundary and nothing above it sees a missing
// timestamp or status.
func NewStores(b *Backend, log zerolog.Logger) *Stores {
	return &Stores{
		Clients: cache.New(b.Clients,
			cache.WithLogger[models.Client](log),
			cache.WithNormalize((*models.Client).Normalize)),
		Leads: cache.New(b.Leads,
			cache.WithLogger[models.Lead](log),
			cache.WithNormalize((*models.Lead).Normalize)),
		Invoices: cache.New(b.Invoices,
			cache.WithLogger[models.Invoice](log),
			cache.WithNormalize((*models.Invoice).Normalize)),
		Payments: cache.New(b.Payments,
			cache.WithLogger[models.Payment](log),
			cache.WithNormalize((*models.Payment).Normalize)),
		Expenses: cache.New(b.Expenses,
			cache.WithLogger[models.Expense](log),
			cache.WithNormalize((*models.Expense).Normalize)),
		Tasks: cache.New(b.Tasks,
			cache.WithLogger[models.Task](log),
			cache.WithNormalize((*models.Task).Normalize)),
		Tickets: cache.New(b.Tickets,
			cache.WithLogger[models.Ticket](log),
			cache.WithNormalize((*models.Ticket).Normalize)),
		Roles: cache.New(b.Roles,
			cache.WithLogger[models.Role](log),
			cache.WithNormalize((*models.Role).Normalize)),
		Users: cache.New(b.Users,
			cache.WithLogger[models.User](log),
			cache.WithNormalize((*models.User).Normalize)),
		Services: cache.New(b.Services,
			cache.WithLogger[models.Service](log),
			cache.WithNormalize((*models.Service).Normalize)),
		Notifications: cache.New(b.Notifications,
			cache.WithLogger[models.Notification](log),
			cache.WithNormalize((*models.Notification).Normalize)),
	}
}
