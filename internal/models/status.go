package models

// Status is the authoritative order state as reported by the order service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Role identifies which of the three independent actors is making a request.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleRider    Role = "rider"
	RoleAdmin    Role = "admin"
)

// transitions lists, per role, the status edges that actor may request.
// Customers can only abandon an order that nobody has picked up yet; riders
// drive the delivery forward; dispatch can do either.
var transitions = map[Role]map[Status][]Status{
	RoleCustomer: {
		StatusPending: {StatusCancelled},
	},
	RoleRider: {
		StatusPending:  {StatusAssigned},
		StatusAssigned: {StatusCompleted},
	},
	RoleAdmin: {
		StatusPending:  {StatusAssigned, StatusCancelled},
		StatusAssigned: {StatusCompleted},
	},
}

// CanTransition reports whether role may request moving an order from one
// status to another. Unknown statuses and roles are never allowed.
func CanTransition(role Role, from, to Status) bool {
	for _, next := range transitions[role][from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the four known states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAssigned, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidRole reports whether r is a known actor role.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleRider, RoleAdmin:
		return true
	}
	return false
}
