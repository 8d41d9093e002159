package models

// Role is the active application role of a logged-in session
type Role string

const (
	RoleShowroom  Role = "showroom"
	RoleWarehouse Role = "warehouse"
)

// LoginRequest represents the request body for POST /login
// Example: {"username": "showroom", "password": "secret"}
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Role Role `json:"role"`
}
