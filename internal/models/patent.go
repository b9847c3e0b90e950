// internal/models/patent.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PatentApplication struct {
	BaseModel
	ApplicantID       uuid.UUID      `json:"applicant_id" gorm:"type:uuid;not null;index"`
	InventionTitle    string         `json:"invention_title" gorm:"size:255;not null"`
	TechnicalField    string         `json:"technical_field" gorm:"size:255"`
	Abstract          string         `json:"abstract" gorm:"type:text"`
	Claims            pq.StringArray `json:"claims" gorm:"type:text[]"`
	InventorName      string         `json:"inventor_name" gorm:"size:255"`
	ApplicantName     string         `json:"applicant_name" gorm:"size:255"`
	ApplicantEmail    string         `json:"applicant_email" gorm:"size:255"`
	ApplicationNumber string         `json:"application_number" gorm:"size:20;uniqueIndex"`
	CurrentStep       int            `json:"current_step" gorm:"not null;default:1"`

	Status ApplicationStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`

	FormData JSONB `json:"form_data,omitempty" gorm:"type:jsonb"`

	Attachments []Attachment `json:"files" gorm:"polymorphic:Owner;polymorphicValue:patent"`
	Payment     *Payment     `json:"payment,omitempty" gorm:"polymorphic:Owner;polymorphicValue:patent"`
}
