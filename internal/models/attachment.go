// internal/models/attachment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is file metadata embedded in an application's file list. It
// never exists on its own: it is created by the upload path and removed when
// its parent application is deleted.
//
// Ordering is carried by Position. Both application variants use the same
// convention: the position-0 slot is the head of the list, and a copyright
// primary file always claims it (existing rows are shifted down), while
// supporting documents and drawings are appended at the tail.
type Attachment struct {
	BaseModel
	OwnerType    string         `json:"-" gorm:"size:20;not null;index:idx_attachments_owner"`
	OwnerID      uuid.UUID      `json:"-" gorm:"type:uuid;not null;index:idx_attachments_owner"`
	Kind         AttachmentKind `json:"kind" gorm:"type:varchar(20);not null"`
	Position     int            `json:"position" gorm:"not null;default:0"`
	Filename     string         `json:"filename" gorm:"size:255;not null"`
	OriginalName string         `json:"original_name" gorm:"size:255;not null"`
	Path         string         `json:"path" gorm:"size:512;not null"`
	Size         int64          `json:"size" gorm:"not null"`
	MimeType     string         `json:"mime_type" gorm:"size:100;not null"`
	UploadDate   time.Time      `json:"upload_date"`
}

// Payment records the filing fee for an application. Creating it is what
// flips the parent from draft to submitted.
type Payment struct {
	BaseModel
	OwnerType     string    `json:"-" gorm:"size:20;not null;index:idx_payments_owner"`
	OwnerID       uuid.UUID `json:"-" gorm:"type:uuid;not null;index:idx_payments_owner"`
	Amount        float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	Method        string    `json:"method" gorm:"size:50;not null;default:'card'"`
	TransactionID string    `json:"transaction_id" gorm:"size:100;not null"`
	PaidAt        time.Time `json:"paid_at"`
}
