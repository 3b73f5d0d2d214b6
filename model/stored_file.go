package model

import "time"

// Owner types of a StoredFile. They double as the file store's kind.
const (
	OwnerAssignment = "assignment"
	OwnerClass      = "class"
	OwnerSubmission = "submission"
	OwnerNote       = "note"
)

// StoredFile records an upload: the name the client sent and the name it was stored under.
type StoredFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerType    string    `gorm:"type:varchar(20);not null;index:idx_stored_file_owner" json:"owner_type"`
	OwnerID      uint      `gorm:"not null;index:idx_stored_file_owner" json:"owner_id"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	StoredName   string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"stored_name"`
	ContentType  string    `gorm:"type:varchar(100);not null" json:"content_type"`
	Size         int64     `gorm:"not null" json:"size"`
	PageCount    int       `json:"page_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for StoredFile
func (StoredFile) TableName() string {
	return "stored_files"
}
