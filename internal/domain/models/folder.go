package models

// Folder is one node of a user's directory tree. Exactly one folder per user
// has ParentID == nil: the root created at registration. (Name, ParentID,
// UserID) is unique; the graph is a tree rooted at that root.
type Folder struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	ParentID *int64  `json:"parent_id"` // nil = root
	UserID   int64   `json:"user_id"`
	IsLocked bool    `json:"is_locked"`
	Password *string `json:"-"` // bcrypt hash, never serialized
}

// IsRoot reports whether this is the user's root folder.
func (f *Folder) IsRoot() bool { return f.ParentID == nil }
