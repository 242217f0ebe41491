package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Paraserot/ParanovaX-sub001/pkg/cache"
	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listHandler serves a collection from its cache store. A non-forced
// fetch is a no-op when the cache is fresh; ?refresh=true forces a
// remote read. When the remote read fails but a stale snapshot exists,
// the snapshot is served rather than an empty error page, matching the
// degrade-to-stale behavior the cache layer guarantees.
func listHandler[T any](c *cache.Collection[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force := r.URL.Query().Get("refresh") == "true"
		err := c.Fetch(r.Context(), force)
		items := c.Items()
		if err != nil && len(items) == 0 {
			respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		if items == nil {
			items = []T{}
		}
		respondJSON(w, http.StatusOK, items)
	}
}

// createHandler decodes a record, runs the entity's prepare hook
// (ID assignment and normalization), writes it through to the remote
// collection and invalidates the cache so the next read goes remote.
func createHandler[T any](backend store.Collection[T], cached *cache.Collection[T], prepare func(*T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec T
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if err := prepare(&rec); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := backend.Create(r.Context(), &rec); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		cached.Invalidate()
		respondJSON(w, http.StatusCreated, rec)
	}
}

// updateHandler decodes a record, rebinds it to the path ID and writes
// it through. Updates are full replacements at the document level.
func updateHandler[T any](backend store.Collection[T], cached *cache.Collection[T], rebind func(*T, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec T
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if err := rebind(&rec, mux.Vars(r)["id"]); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := backend.Update(r.Context(), &rec); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		cached.Invalidate()
		respondJSON(w, http.StatusOK, rec)
	}
}

func deleteHandler[T any](backend store.Collection[T], cached *cache.Collection[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := backend.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		cached.Invalidate()
		respondJSON(w, http.StatusNoContent, nil)
	}
}

// handleCreateInvoice is the one mutation that is not plain CRUD: the
// invoice number comes from the atomic sequence counter, and creation
// aborts when the counter transaction cannot commit: an invoice must
// never be stored with a missing or duplicate number.
func (a *App) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv models.Invoice
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx := r.Context()
	number, err := a.seq.NextInvoiceNumber(ctx)
	if err != nil {
		if errors.Is(err, store.ErrTransaction) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if inv.ID.IsZero() {
		inv.ID = models.NewInvoiceID()
	}
	inv.Number = number
	now := time.Now()
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = models.NewTimestamp(now)
	}
	inv.Normalize(now)

	if err := a.backend.Invoices.Create(ctx, &inv); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.stores.Invoices.Invalidate()
	respondJSON(w, http.StatusCreated, inv)
}

// handleOutstanding syncs the reporting mirror from the billing caches
// and returns per-client outstanding balances.
func (a *App) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	if a.mirror == nil {
		respondError(w, http.StatusServiceUnavailable, "Reporting mirror not configured")
		return
	}

	ctx := r.Context()
	_ = a.stores.Clients.Fetch(ctx, false)
	if err := a.stores.Invoices.Fetch(ctx, false); err != nil && len(a.stores.Invoices.Items()) == 0 {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := a.stores.Payments.Fetch(ctx, false); err != nil && len(a.stores.Payments.Items()) == 0 {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	clientNames := make(map[string]string)
	for _, c := range a.stores.Clients.Items() {
		clientNames[c.ID.String()] = c.Name
	}

	if err := a.mirror.SyncInvoices(ctx, a.stores.Invoices.Items(), clientNames); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := a.mirror.SyncPayments(ctx, a.stores.Payments.Items()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	balances, err := a.mirror.OutstandingBalances(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, balances)
}

// Per-entity prepare and rebind hooks for the generic handlers.
// Prepare assigns an ID to new records and normalizes them before the
// write; rebind pins an update to the path ID and refreshes the update
// timestamp where the entity has one.

func prepareClient(c *models.Client) error {
	if c.ID.IsZero() {
		c.ID = models.NewClientID()
	}
	c.Normalize(time.Now())
	return nil
}

func rebindClient(c *models.Client, id string) error {
	parsed, err := models.ParseClientID(id)
	if err != nil {
		return err
	}
	c.ID = parsed
	c.UpdatedAt = models.NewTimestamp(time.Now())
	return nil
}

func prepareLead(l *models.Lead) error {
	if l.ID.IsZero() {
		l.ID = models.NewLeadID()
	}
	l.Normalize(time.Now())
	return nil
}

func rebindLead(l *models.Lead, id string) error {
	parsed, err := models.ParseLeadID(id)
	if err != nil {
		return err
	}
	l.ID = parsed
	l.UpdatedAt = models.NewTimestamp(time.Now())
	return nil
}

// Invoices have no prepare hook: creation goes through
// handleCreateInvoice so the number allocation cannot be bypassed.
func rebindInvoice(i *models.Invoice, id string) error {
	parsed, err := models.ParseInvoiceID(id)
	if err != nil {
		return err
	}
	i.ID = parsed
	i.UpdatedAt = models.NewTimestamp(time.Now())
	return nil
}

func preparePayment(p *models.Payment) error {
	if p.ID.IsZero() {
		p.ID = models.NewPaymentID()
	}
	p.Normalize(time.Now())
	return nil
}

func rebindPayment(p *models.Payment, id string) error {
	parsed, err := models.ParsePaymentID(id)
	if err != nil {
		return err
	}
	p.ID = parsed
	return nil
}

func prepareExpense(e *models.Expense) error {
	if e.ID.IsZero() {
		e.ID = models.NewExpenseID()
	}
	e.Normalize(time.Now())
	return nil
}

func rebindExpense(e *models.Expense, id string) error {
	parsed, err := models.ParseExpenseID(id)
	if err != nil {
		return err
	}
	e.ID = parsed
	return nil
}

func prepareTask(t *models.Task) error {
	if t.ID.IsZero() {
		t.ID = models.NewTaskID()
	}
	t.Normalize(time.Now())
	return nil
}

func rebindTask(t *models.Task, id string) error {
	parsed, err := models.ParseTaskID(id)
	if err != nil {
		return err
	}
	t.ID = parsed
	t.UpdatedAt = models.NewTimestamp(time.Now())
	return nil
}

func prepareTicket(t *models.Ticket) error {
	if t.ID.IsZero() {
		t.ID = models.NewTicketID()
	}
	t.Normalize(time.Now())
	return nil
}

func rebindTicket(t *models.Ticket, id string) error {
	parsed, err := models.ParseTicketID(id)
	if err != nil {
		return err
	}
	t.ID = parsed
	t.UpdatedAt = models.NewTimestamp(time.Now())
	return nil
}

func prepareRole(r *models.Role) error {
	if r.ID.IsZero() {
		r.ID = models.NewRoleID()
	}
	r.Normalize(time.Now())
	return nil
}

func rebindRole(r *models.Role, id string) error {
	parsed, err := models.ParseRoleID(id)
	if err != nil {
		return err
	}
	r.ID = parsed
	r.UpdatedAt = models.NewTimestamp(time.Now())
	return nil
}

func prepareUser(u *models.User) error {
	if u.ID.IsZero() {
		u.ID = models.NewUserID()
	}
	u.Normalize(time.Now())
	return nil
}

func rebindUser(u *models.User, id string) error {
	parsed, err := models.ParseUserID(id)
	if err != nil {
		return err
	}
	u.ID = parsed
	u.UpdatedAt = models.NewTimestamp(time.Now())
	return nil
}

func prepareService(s *models.Service) error {
	if s.ID.IsZero() {
		s.ID = models.NewServiceID()
	}
	s.Normalize(time.Now())
	return nil
}

func rebindService(s *models.Service, id string) error {
	parsed, err := models.ParseServiceID(id)
	if err != nil {
		return err
	}
	s.ID = parsed
	s.UpdatedAt = models.NewTimestamp(time.Now())
	return nil
}

func prepareNotification(n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = models.NewNotificationID()
	}
	n.Normalize(time.Now())
	return nil
}

func rebindNotification(n *models.Notification, id string) error {
	parsed, err := models.ParseNotificationID(id)
	if err != nil {
		return err
	}
	n.ID = parsed
	return nil
}
