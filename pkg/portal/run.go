package portal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Paraserot/ParanovaX-sub001/pkg/permission"
	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
)

// Router builds the portal's HTTP API. Every entity gets list, create,
// update and delete endpoints gated on its module's (module, action)
// permission; listing is served from the cache stores. Split out from
// Run so tests can drive the API without a listening socket.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	// Clients
	api.HandleFunc("/clients", a.requirePermission(permission.ModuleClients, permission.ActionView,
		listHandler(a.stores.Clients))).Methods("GET")
	api.HandleFunc("/clients", a.requirePermission(permission.ModuleClients, permission.ActionCreate,
		createHandler(a.backend.Clients, a.stores.Clients, prepareClient))).Methods("POST")
	api.HandleFunc("/clients/{id}", a.requirePermission(permission.ModuleClients, permission.ActionEdit,
		updateHandler(a.backend.Clients, a.stores.Clients, rebindClient))).Methods("PUT")
	api.HandleFunc("/clients/{id}", a.requirePermission(permission.ModuleClients, permission.ActionDelete,
		deleteHandler(a.backend.Clients, a.stores.Clients))).Methods("DELETE")

	// Leads
	api.HandleFunc("/leads", a.requirePermission(permission.ModuleLeads, permission.ActionView,
		listHandler(a.stores.Leads))).Methods("GET")
	api.HandleFunc("/leads", a.requirePermission(permission.ModuleLeads, permission.ActionCreate,
		createHandler(a.backend.Leads, a.stores.Leads, prepareLead))).Methods("POST")
	api.HandleFunc("/leads/{id}", a.requirePermission(permission.ModuleLeads, permission.ActionEdit,
		updateHandler(a.backend.Leads, a.stores.Leads, rebindLead))).Methods("PUT")
	api.HandleFunc("/leads/{id}", a.requirePermission(permission.ModuleLeads, permission.ActionDelete,
		deleteHandler(a.backend.Leads, a.stores.Leads))).Methods("DELETE")

	// Invoices: creation allocates the sequential invoice number, so it
	// gets its own handler instead of the generic one.
	api.HandleFunc("/invoices", a.requirePermission(permission.ModuleInvoices, permission.ActionView,
		listHandler(a.stores.Invoices))).Methods("GET")
	api.HandleFunc("/invoices", a.requirePermission(permission.ModuleInvoices, permission.ActionCreate,
		a.handleCreateInvoice)).Methods("POST")
	api.HandleFunc("/invoices/{id}", a.requirePermission(permission.ModuleInvoices, permission.ActionEdit,
		updateHandler(a.backend.Invoices, a.stores.Invoices, rebindInvoice))).Methods("PUT")
	api.HandleFunc("/invoices/{id}", a.requirePermission(permission.ModuleInvoices, permission.ActionDelete,
		deleteHandler(a.backend.Invoices, a.stores.Invoices))).Methods("DELETE")

	// Payments
	api.HandleFunc("/payments", a.requirePermission(permission.ModulePayments, permission.ActionView,
		listHandler(a.stores.Payments))).Methods("GET")
	api.HandleFunc("/payments", a.requirePermission(permission.ModulePayments, permission.ActionCreate,
		createHandler(a.backend.Payments, a.stores.Payments, preparePayment))).Methods("POST")
	api.HandleFunc("/payments/{id}", a.requirePermission(permission.ModulePayments, permission.ActionEdit,
		updateHandler(a.backend.Payments, a.stores.Payments, rebindPayment))).Methods("PUT")
	api.HandleFunc("/payments/{id}", a.requirePermission(permission.ModulePayments, permission.ActionDelete,
		deleteHandler(a.backend.Payments, a.stores.Payments))).Methods("DELETE")

	// Expenses
	api.HandleFunc("/expenses", a.requirePermission(permission.ModuleExpenses, permission.ActionView,
		listHandler(a.stores.Expenses))).Methods("GET")
	api.HandleFunc("/expenses", a.requirePermission(permission.ModuleExpenses, permission.ActionCreate,
		createHandler(a.backend.Expenses, a.stores.Expenses, prepareExpense))).Methods("POST")
	api.HandleFunc("/expenses/{id}", a.requirePermission(permission.ModuleExpenses, permission.ActionEdit,
		updateHandler(a.backend.Expenses, a.stores.Expenses, rebindExpense))).Methods("PUT")
	api.HandleFunc("/expenses/{id}", a.requirePermission(permission.ModuleExpenses, permission.ActionDelete,
		deleteHandler(a.backend.Expenses, a.stores.Expenses))).Methods("DELETE")

	// Tasks
	api.HandleFunc("/tasks", a.requirePermission(permission.ModuleTasks, permission.ActionView,
		listHandler(a.stores.Tasks))).Methods("GET")
	api.HandleFunc("/tasks", a.requirePermission(permission.ModuleTasks, permission.ActionCreate,
		createHandler(a.backend.Tasks, a.stores.Tasks, prepareTask))).Methods("POST")
	api.HandleFunc("/tasks/{id}", a.requirePermission(permission.ModuleTasks, permission.ActionEdit,
		updateHandler(a.backend.Tasks, a.stores.Tasks, rebindTask))).Methods("PUT")
	api.HandleFunc("/tasks/{id}", a.requirePermission(permission.ModuleTasks, permission.ActionDelete,
		deleteHandler(a.backend.Tasks, a.stores.Tasks))).Methods("DELETE")

	// Tickets
	api.HandleFunc("/tickets", a.requirePermission(permission.ModuleTickets, permission.ActionView,
		listHandler(a.stores.Tickets))).Methods("GET")
	api.HandleFunc("/tickets", a.requirePermission(permission.ModuleTickets, permission.ActionCreate,
		createHandler(a.backend.Tickets, a.stores.Tickets, prepareTicket))).Methods("POST")
	api.HandleFunc("/tickets/{id}", a.requirePermission(permission.ModuleTickets, permission.ActionEdit,
		updateHandler(a.backend.Tickets, a.stores.Tickets, rebindTicket))).Methods("PUT")
	api.HandleFunc("/tickets/{id}", a.requirePermission(permission.ModuleTickets, permission.ActionDelete,
		deleteHandler(a.backend.Tickets, a.stores.Tickets))).Methods("DELETE")

	// Roles
	api.HandleFunc("/roles", a.requirePermission(permission.ModuleRoles, permission.ActionView,
		listHandler(a.stores.Roles))).Methods("GET")
	api.HandleFunc("/roles", a.requirePermission(permission.ModuleRoles, permission.ActionCreate,
		createHandler(a.backend.Roles, a.stores.Roles, prepareRole))).Methods("POST")
	api.HandleFunc("/roles/{id}", a.requirePermission(permission.ModuleRoles, permission.ActionEdit,
		updateHandler(a.backend.Roles, a.stores.Roles, rebindRole))).Methods("PUT")
	api.HandleFunc("/roles/{id}", a.requirePermission(permission.ModuleRoles, permission.ActionDelete,
		deleteHandler(a.backend.Roles, a.stores.Roles))).Methods("DELETE")

	// Users
	api.HandleFunc("/users", a.requirePermission(permission.ModuleUsers, permission.ActionView,
		listHandler(a.stores.Users))).Methods("GET")
	api.HandleFunc("/users", a.requirePermission(permission.ModuleUsers, permission.ActionCreate,
		createHandler(a.backend.Users, a.stores.Users, prepareUser))).Methods("POST")
	api.HandleFunc("/users/{id}", a.requirePermission(permission.ModuleUsers, permission.ActionEdit,
		updateHandler(a.backend.Users, a.stores.Users, rebindUser))).Methods("PUT")
	api.HandleFunc("/users/{id}", a.requirePermission(permission.ModuleUsers, permission.ActionDelete,
		deleteHandler(a.backend.Users, a.stores.Users))).Methods("DELETE")

	// Services
	api.HandleFunc("/services", a.requirePermission(permission.ModuleServices, permission.ActionView,
		listHandler(a.stores.Services))).Methods("GET")
	api.HandleFunc("/services", a.requirePermission(permission.ModuleServices, permission.ActionCreate,
		createHandler(a.backend.Services, a.stores.Services, prepareService))).Methods("POST")
	api.HandleFunc("/services/{id}", a.requirePermission(permission.ModuleServices, permission.ActionEdit,
		updateHandler(a.backend.Services, a.stores.Services, rebindService))).Methods("PUT")
	api.HandleFunc("/services/{id}", a.requirePermission(permission.ModuleServices, permission.ActionDelete,
		deleteHandler(a.backend.Services, a.stores.Services))).Methods("DELETE")

	// Notifications
	api.HandleFunc("/notifications", a.requirePermission(permission.ModuleNotifications, permission.ActionView,
		listHandler(a.stores.Notifications))).Methods("GET")
	api.HandleFunc("/notifications", a.requirePermission(permission.ModuleNotifications, permission.ActionCreate,
		createHandler(a.backend.Notifications, a.stores.Notifications, prepareNotification))).Methods("POST")
	api.HandleFunc("/notifications/{id}", a.requirePermission(permission.ModuleNotifications, permission.ActionEdit,
		updateHandler(a.backend.Notifications, a.stores.Notifications, rebindNotification))).Methods("PUT")
	api.HandleFunc("/notifications/{id}", a.requirePermission(permission.ModuleNotifications, permission.ActionDelete,
		deleteHandler(a.backend.Notifications, a.stores.Notifications))).Methods("DELETE")

	// Reports
	api.HandleFunc("/reports/outstanding", a.requirePermission(permission.ModuleReports, permission.ActionView,
		a.handleOutstanding)).Methods("GET")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	return router
}

// Subscribe opens the live-mode watches: tickets, tasks, roles,
// services and notifications stream changes into their caches for as
// long as the session runs. The returned release function disposes
// every watch; callers pair one Subscribe with exactly one release.
func (a *App) Subscribe(ctx context.Context) (func(), error) {
	var disposers []store.Unsubscribe

	release := func() {
		for _, d := range disposers {
			if err := d(); err != nil {
				a.log.Warn().Err(err).Msg("watch disposal failed")
			}
		}
	}

	subs := []func(context.Context) (store.Unsubscribe, error){
		a.stores.Tickets.Subscribe,
		a.stores.Tasks.Subscribe,
		a.stores.Roles.Subscribe,
		a.stores.Services.Subscribe,
		a.stores.Notifications.Subscribe,
	}
	for _, subscribe := range subs {
		d, err := subscribe(ctx)
		if err != nil {
			release()
			return nil, err
		}
		disposers = append(disposers, d)
	}
	return release, nil
}

// Run starts the HTTP server and blocks until the context is cancelled
// or the server fails. Live watches are opened before serving and
// released on shutdown.
func (a *App) Run(ctx context.Context) error {
	release, err := a.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to open live subscriptions: %w", err)
	}
	defer release()

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().Str("addr", addr).Msg("starting ParanovaX portal server")

	server := &http.Server{
		Addr:    addr,
		Handler: a.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
