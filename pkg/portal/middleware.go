package portal

import (
	"net/http"

	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
	"github.com/Paraserot/ParanovaX-sub001/pkg/permission"
)

// userHeader carries the authenticated principal's user ID. The
// identity provider terminates authentication upstream and forwards the
// verified subject here; the portal only maps it to a role.
const userHeader = "X-User-ID"

// roleFor resolves the calling principal's role from the users and
// roles caches. Any gap in the chain (no header, unknown or inactive
// user, dangling role reference) resolves to nil, which the evaluator
// denies.
func (a *App) roleFor(r *http.Request) *models.Role {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		return nil
	}

	ctx := r.Context()
	// Non-forced fetches: cache hits after the first request. A failed
	// refresh still leaves any stale snapshot usable.
	_ = a.stores.Users.Fetch(ctx, false)
	_ = a.stores.Roles.Fetch(ctx, false)

	var roleID string
	for _, u := range a.stores.Users.Items() {
		if u.ID.String() == userID && u.Active {
			roleID = u.RoleID.String()
			break
		}
	}
	if roleID == "" {
		return nil
	}

	for _, role := range a.stores.Roles.Items() {
		if role.ID.String() == roleID {
			found := role
			return &found
		}
	}
	return nil
}

// requirePermission gates a handler on a (module, action) check against
// the caller's role. Denial is a plain 403 before any store access; the
// evaluator itself never errors.
func (a *App) requirePermission(module, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !permission.Allowed(a.roleFor(r), module, action) {
			respondError(w, http.StatusForbidden, "Permission denied")
			return
		}
		next(w, r)
	}
}
