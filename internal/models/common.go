// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums

type ApplicationStatus string

const (
	StatusDraft       ApplicationStatus = "draft"
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusUnderReview ApplicationStatus = "under-review"
	StatusRegistered  ApplicationStatus = "registered" // copyright terminal
	StatusGranted     ApplicationStatus = "granted"    // patent terminal
	StatusPublished   ApplicationStatus = "published"  // patent terminal
	StatusRejected    ApplicationStatus = "rejected"
)

type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusInProgress ContactStatus = "in-progress"
	ContactStatusResolved   ContactStatus = "resolved"
)

type AttachmentKind string

const (
	AttachmentKindPrimary  AttachmentKind = "primary"
	AttachmentKindDocument AttachmentKind = "document"
	AttachmentKindDrawing  AttachmentKind = "drawing"
)

type UserType string

const (
	UserTypeApplicant UserType = "applicant"
	UserTypeAdmin     UserType = "admin"
)

// Owner discriminators for polymorphic attachments and payments.
const (
	OwnerCopyright = "copyright"
	OwnerPatent    = "patent"
)

// Application number prefixes and wizard bounds.
const (
	CopyrightNumberPrefix = "CR"
	PatentNumberPrefix    = "PAT"

	CopyrightStepCount = 6
	PatentStepCount    = 7

	// Recording a payment always lands the wizard on at least this step.
	PaymentStep = 4
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}

// Sequence is the Postgres fallback for the per-(prefix, year) application
// number counter. The Redis counter is preferred when configured.
type Sequence struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Prefix    string    `json:"prefix" gorm:"size:10;not null;uniqueIndex:idx_sequences_prefix_year"`
	Year      int       `json:"year" gorm:"not null;uniqueIndex:idx_sequences_prefix_year"`
	Value     int64     `json:"value" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
