// Package permission decides whether a role may perform an action on a
// portal module. The decision is a pure map lookup, callable
// synchronously on every request: no I/O, no side effects.
// Deny-by-default applies throughout: a nil role, an unknown module,
// or an unlisted action all evaluate to false.
package permission

import (
	"strings"

	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
)

// Portal modules, the first half of the (module, action) key.
const (
	ModuleClients       = "clients"
	ModuleLeads         = "leads"
	ModuleInvoices      = "invoices"
	ModulePayments      = "payments"
	ModuleExpenses      = "expenses"
	ModuleTasks         = "tasks"
	ModuleTickets       = "tickets"
	ModuleRoles         = "roles"
	ModuleUsers         = "users"
	ModuleServices      = "services"
	ModuleNotifications = "notifications"
	ModuleReports       = "reports"
)

// Actions, the second half of the key.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Allowed reports whether role may perform action on module.
//
// A nil role (no authenticated principal, or a principal without an
// admin role) is denied everything. A super role is granted everything:
// either the explicit Super flag, or a name containing "super"
// case-insensitively for role documents that predate the flag.
// Otherwise the role's permission map decides; absent modules deny.
func Allowed(role *models.Role, module, action string) bool {
	if role == nil {
		return false
	}
	if role.Super || strings.Contains(strings.ToLower(role.Name), "super") {
		return true
	}
	actions, ok := role.Permissions[module]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// RoleProvider resolves the calling principal's current role. A nil
// result means no role could be resolved and every check denies.
type RoleProvider func() *models.Role

// Evaluator binds Allowed to the currently loaded role, typically the
// roles cache joined with the authenticated user.
type Evaluator struct {
	role RoleProvider
}

func NewEvaluator(role RoleProvider) *Evaluator {
	return &Evaluator{role: role}
}

func (e *Evaluator) HasPermission(module, action string) bool {
	return Allowed(e.role(), module, action)
}
