package models

// User owns folders, files and shares. All catalog rows are scoped to one
// UserID; shares are the only cross-user reference.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"` // bcrypt hash
	IsAdmin  bool   `json:"is_admin"`
}
