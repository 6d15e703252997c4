package core

type (
	// Role gates what a user may do; only admins reach the designer routes.
	Role string

	// User is the identity carried by a bearer token.
	User struct {
		Subject string `json:"subject"`
		Email   string `json:"email,omitempty"`
		Name    string `json:"name"`
		Role    Role   `json:"role"`
	}
)

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
