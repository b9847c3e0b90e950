// internal/models/contact.go
package models

// Contact is a standalone inquiry from the marketing site. It is not part of
// the filing wizard and only ever soft-deletes (BaseModel's DeletedAt).
type Contact struct {
	BaseModel
	FullName    string        `json:"full_name" gorm:"size:255;not null"`
	Email       string        `json:"email" gorm:"size:255;not null;index"`
	Phone       string        `json:"phone,omitempty" gorm:"size:50"`
	Company     string        `json:"company,omitempty" gorm:"size:255"`
	ServiceType string        `json:"service_type" gorm:"size:100;not null;index"`
	Message     string        `json:"message" gorm:"type:text;not null"`
	Status      ContactStatus `json:"status" gorm:"type:varchar(20);default:'new';index"`
}
