// internal/models/copyright.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type CopyrightApplication struct {
	BaseModel
	ApplicantID       uuid.UUID  `json:"applicant_id" gorm:"type:uuid;not null;index"`
	Title             string     `json:"title" gorm:"size:255;not null"`
	WorkType          string     `json:"work_type" gorm:"size:100"`
	Description       string     `json:"description" gorm:"type:text"`
	AuthorName        string     `json:"author_name" gorm:"size:255"`
	ApplicantName     string     `json:"applicant_name" gorm:"size:255"`
	ApplicantEmail    string     `json:"applicant_email" gorm:"size:255"`
	CreationDate      *time.Time `json:"creation_date"`
	PublicationDate   *time.Time `json:"publication_date"`
	ApplicationNumber string     `json:"application_number" gorm:"size:20;uniqueIndex"`
	CurrentStep       int        `json:"current_step" gorm:"not null;default:1"`

	Status ApplicationStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`

	// Wizard state snapshot for resuming a half-finished filing.
	FormData JSONB `json:"form_data,omitempty" gorm:"type:jsonb"`

	Attachments []Attachment `json:"files" gorm:"polymorphic:Owner;polymorphicValue:copyright"`
	Payment     *Payment     `json:"payment,omitempty" gorm:"polymorphic:Owner;polymorphicValue:copyright"`
}
