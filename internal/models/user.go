package models

// Session is the identity bound after a successful login
type Session struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// UserListItem represents a user in the admin dashboard list
type UserListItem struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdateUserRequest represents an admin modification of a user
// Nil fields are left unchanged
type UpdateUserRequest struct {
	Username *string        `json:"username,omitempty"`
	Password *string        `json:"password,omitempty"`
	IsAdmin  *bool          `json:"is_admin,omitempty"`
	Daily    *TargetsUpdate `json:"daily,omitempty"`
}

// IsEmpty reports whether the request changes nothing
func (r *UpdateUserRequest) IsEmpty() bool {
	return r.Username == nil && r.Password == nil && r.IsAdmin == nil && r.Daily == nil
}
