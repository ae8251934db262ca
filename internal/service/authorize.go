package service

import "github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"

// RequireRole is the single capability check every operation runs at its
// boundary. An actor without a valid role is unauthorized; a valid role
// outside allowed is forbidden.
func RequireRole(actor model.Actor, allowed ...model.Role) error {
	if actor.UserID == 0 || !actor.Role.Valid() {
		return newError(KindUnauthorized, "missing or invalid identity")
	}
	if !actor.Is(allowed...) {
		return errForbidden("role %q may not perform this operation", actor.Role)
	}
	return nil
}

var (
	anyRole    = []model.Role{model.RoleUser, model.RoleStaff, model.RoleAdmin}
	privileged = []model.Role{model.RoleStaff, model.RoleAdmin}
)

// canSee reports whether the actor may read a booking owned by customerID.
func canSee(actor model.Actor, customerID uint64) bool {
	return actor.Privileged() || actor.UserID == customerID
}
