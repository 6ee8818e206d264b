package scheduler

// Guard holds the capability checks. It never looks at availability.
type Guard struct{}

// CanCreate allows professors and administrators to request slots.
func (Guard) CanCreate(actor Actor) bool {
	return actor.ID != "" && (actor.Role == RoleProfessor || actor.Role == RoleAdmin)
}

// CanDecide allows administrators only to confirm or reject.
func (Guard) CanDecide(actor Actor) bool {
	return actor.ID != "" && actor.Role == RoleAdmin
}

// CanCancel allows administrators, or the requester while the reservation is still active.
func (Guard) CanCancel(actor Actor, reservation Reservation) bool {
	if actor.ID == "" {
		return false
	}
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.ID == reservation.RequesterID && reservation.Status.Occupies()
}

// CanView allows administrators to see every reservation and requesters to see their own.
func (Guard) CanView(actor Actor, reservation Reservation) bool {
	if actor.ID == "" {
		return false
	}
	return actor.Role == RoleAdmin || actor.ID == reservation.RequesterID
}
