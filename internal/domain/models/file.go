package models

import "time"

// File is a catalog row describing one stored object. FileID is the backend
// locator: a filesystem path (local), a remote key (s3), a WebDAV path
// (webdav) or a remote message identifier (botapi). It is resolved only
// through the storage backend tagged by StorageType, never handed to the
// browser directly.
type File struct {
	MessageID   int64     `json:"message_id"` // backend-assigned or synthesized
	FileName    string    `json:"file_name"`
	Mimetype    string    `json:"mimetype"`
	Size        int64     `json:"size"`
	FileID      string    `json:"-"`
	ThumbFileID *string   `json:"-"`
	Date        time.Time `json:"date"`
	FolderID    int64     `json:"folder_id"`
	UserID      int64     `json:"user_id"`
	StorageType string    `json:"storage_type"`
}
