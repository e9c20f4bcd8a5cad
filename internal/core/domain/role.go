package domain

// Roles carried in the JWT "role" claim.
const (
	RoleAdmin      = "admin"
	RoleDriver     = "driver"
	RoleSubscriber = "subscriber"
)
