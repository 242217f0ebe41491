package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
)

func TestAllowed(t *testing.T) {
	staff := &models.Role{
		Name:  "Staff",
		Level: 3,
		Permissions: map[string][]string{
			ModuleClients: {ActionView},
			ModuleTickets: {ActionView, ActionCreate, ActionEdit},
		},
	}
	superByName := &models.Role{
		Name:        "Super Admin",
		Level:       0,
		Permissions: map[string][]string{},
	}
	superByFlag := &models.Role{
		Name:        "Owner",
		Level:       0,
		Super:       true,
		Permissions: map[string][]string{},
	}

	tests := []struct {
		name   string
		role   *models.Role
		module string
		action string
		want   bool
	}{
		{"nil role denies", nil, ModuleClients, ActionView, false},
		{"super by name grants everything", superByName, ModuleLeads, ActionDelete, true},
		{"super flag grants everything", superByFlag, ModuleRoles, ActionDelete, true},
		{"listed action allows", staff, ModuleClients, ActionView, true},
		{"unlisted action denies", staff, ModuleClients, ActionDelete, false},
		{"absent module denies", staff, ModuleInvoices, ActionView, false},
		{"unknown module denies", staff, "billing", ActionView, false},
		{"listed among several", staff, ModuleTickets, ActionEdit, true},
		{"delete not granted to staff", staff, ModuleTickets, ActionDelete, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.role, tc.module, tc.action))
		})
	}
}

func TestAllowedSuperNameMatchIsCaseInsensitive(t *testing.T) {
	role := &models.Role{Name: "SUPERVISOR", Permissions: map[string][]string{}}
	assert.True(t, Allowed(role, ModuleExpenses, ActionDelete))
}

func TestAllowedNilPermissionMapDenies(t *testing.T) {
	role := &models.Role{Name: "Viewer"}
	assert.False(t, Allowed(role, ModuleClients, ActionView))
}

func TestEvaluator(t *testing.T) {
	var current *models.Role
	ev := NewEvaluator(func() *models.Role { return current })

	assert.False(t, ev.HasPermission(ModuleClients, ActionView), "no role loaded yet")

	current = &models.Role{
		Name:        "Accountant",
		Permissions: map[string][]string{ModuleInvoices: {ActionView, ActionCreate}},
	}
	assert.True(t, ev.HasPermission(ModuleInvoices, ActionCreate))
	assert.False(t, ev.HasPermission(ModuleInvoices, ActionDelete))

	// Role changes take effect on the next check.
	current = nil
	assert.False(t, ev.HasPermission(ModuleInvoices, ActionCreate))
}
