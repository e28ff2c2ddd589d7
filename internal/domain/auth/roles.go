package auth

const (
	// RoleAdmin can edit any record directly and process change requests.
	RoleAdmin = "admin"
	// RoleVerified is an employee self-service account; edits require approval.
	RoleVerified = "verified"
)

type UserContext struct {
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId,omitempty"`
	Role       string `json:"role"`
}

func (u UserContext) IsAdmin() bool {
	return u.Role == RoleAdmin
}
