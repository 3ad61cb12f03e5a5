package survey

import "strings"

// Roles a dashboard user can hold.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleUser     = "user"
	RoleReadOnly = "readonly"
)

// User is an account on the admin backend.
type User struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=admin manager user readonly"`
	Enabled   bool   `json:"enabled"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8"`
	CreatedAt string `json:"createdAt,omitempty"`
	LastLogin string `json:"lastLogin,omitempty"`
}

// FullName joins the first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// FilterUsers keeps users holding role, when set, whose email or name
// contains term, ignoring case.
func FilterUsers(users []User, term, role string) []User {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []User
	for _, u := range users {
		if role != "" && !strings.EqualFold(u.Role, role) {
			continue
		}
		if term != "" && !containsFold(term, u.Email, u.FullName()) {
			continue
		}
		out = append(out, u)
	}
	return out
}
