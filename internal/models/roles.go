package models

const (
	RoleInvestor = "investor"
	RoleAdmin    = "admin"
)

const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

// ValidRole reports whether role is one of the known profile roles.
func ValidRole(role string) bool {
	return role == RoleInvestor || role == RoleAdmin
}

// ValidProfileStatus reports whether status is a known profile status.
func ValidProfileStatus(status string) bool {
	return status == StatusActive || status == StatusBlocked
}
