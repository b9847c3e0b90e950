// internal/services/patent_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lexfield/filings-backend/internal/database"
	"github.com/lexfield/filings-backend/internal/models"
	"github.com/lexfield/filings-backend/internal/utils"
)

// PatentService mirrors the copyright workflow for patent filings: same
// stepped lifecycle, with technical drawings in place of a primary work file
// and a seven-step wizard.
type PatentService struct {
	db            *gorm.DB
	sequences     *SequenceService
	storage       *StorageService
	payments      *PaymentService
	notifications *NotificationService
}

type CreatePatentRequest struct {
	InventionTitle string   `json:"invention_title" validate:"required,min=1,max=255"`
	TechnicalField string   `json:"technical_field,omitempty" validate:"omitempty,max=255"`
	Abstract       string   `json:"abstract,omitempty"`
	Claims         []string `json:"claims,omitempty" validate:"omitempty,dive,min=1"`
	InventorName   string   `json:"inventor_name,omitempty" validate:"omitempty,max=255"`
	ApplicantName  string   `json:"applicant_name,omitempty" validate:"omitempty,max=255"`
	ApplicantEmail string   `json:"applicant_email,omitempty" validate:"omitempty,email"`
}

var patentReviewTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusSubmitted:   {models.StatusUnderReview, models.StatusRejected},
	models.StatusUnderReview: {models.StatusGranted, models.StatusPublished, models.StatusRejected},
	models.StatusGranted:     {models.StatusPublished},
}

func NewPatentService(db *gorm.DB, sequences *SequenceService, storage *StorageService, payments *PaymentService, notifications *NotificationService) *PatentService {
	return &PatentService{
		db:            db,
		sequences:     sequences,
		storage:       storage,
		payments:      payments,
		notifications: notifications,
	}
}

func (s *PatentService) Create(ctx context.Context, applicantID uuid.UUID, req *CreatePatentRequest) (*models.PatentApplication, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if strings.TrimSpace(req.InventionTitle) == "" {
		return nil, fmt.Errorf("validation failed: invention title must not be blank")
	}

	number, err := s.sequences.NextApplicationNumber(ctx, models.PatentNumberPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to assign application number: %w", err)
	}

	app := &models.PatentApplication{
		ApplicantID:       applicantID,
		InventionTitle:    req.InventionTitle,
		TechnicalField:    req.TechnicalField,
		Abstract:          req.Abstract,
		Claims:            req.Claims,
		InventorName:      req.InventorName,
		ApplicantName:     req.ApplicantName,
		ApplicantEmail:    strings.ToLower(req.ApplicantEmail),
		ApplicationNumber: number,
		CurrentStep:       1,
		Status:            models.StatusDraft,
	}

	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, fmt.Errorf("failed to create patent application: %w", err)
	}

	return app, nil
}

func (s *PatentService) Get(id uuid.UUID, principal Principal) (*models.PatentApplication, error) {
	var app models.PatentApplication
	err := s.db.
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Preload("Payment").
		First(&app, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !principal.owns(app.ApplicantID) {
		return nil, ErrNotOwner
	}

	return &app, nil
}

func (s *PatentService) List(principal Principal, params utils.PaginationParams) ([]models.PatentApplication, int64, error) {
	query := s.db.Model(&models.PatentApplication{})

	if !principal.Admin {
		query = query.Where("applicant_id = ?", principal.UserID)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(invention_title) LIKE ? OR LOWER(application_number) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count patent applications: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "invention_title", "status", "current_step"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var apps []models.PatentApplication
	if err := query.Preload("Attachments").Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch patent applications: %w", err)
	}

	return apps, total, nil
}

// AttachDrawings appends technical drawings in request order.
func (s *PatentService) AttachDrawings(id uuid.UUID, principal Principal, files []*StoredFile) (*models.PatentApplication, error) {
	return s.attach(id, principal, models.AttachmentKindDrawing, files)
}

// AttachDocuments appends supporting documents in request order.
func (s *PatentService) AttachDocuments(id uuid.UUID, principal Principal, files []*StoredFile) (*models.PatentApplication, error) {
	return s.attach(id, principal, models.AttachmentKindDocument, files)
}

func (s *PatentService) attach(id uuid.UUID, principal Principal, kind models.AttachmentKind, files []*StoredFile) (*models.PatentApplication, error) {
	app, err := s.Get(id, principal)
	if err != nil {
		return nil, err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return appendAttachments(tx, models.OwnerPatent, app.ID, kind, files)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id, principal)
}

var patentFormColumns = map[string]string{
	"invention_title": "invention_title",
	"technical_field": "technical_field",
	"abstract":        "abstract",
	"inventor_name":   "inventor_name",
	"applicant_name":  "applicant_name",
	"applicant_email": "applicant_email",
}

func (s *PatentService) AdvanceStep(id uuid.UUID, principal Principal, req *AdvanceStepRequest) (*models.PatentApplication, error) {
	if req.Step < 1 || req.Step > models.PatentStepCount {
		return nil, ErrInvalidStep
	}

	app, err := s.Get(id, principal)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"current_step": req.Step}
	if req.FormData != nil {
		updates["form_data"] = models.JSONB(req.FormData)
		for column, value := range formColumnUpdates(req.FormData, patentFormColumns) {
			updates[column] = value
		}
		if claims := formClaims(req.FormData); claims != nil {
			updates["claims"] = claims
		}
	}

	if err := s.db.Model(app).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to advance step: %w", err)
	}

	return s.Get(id, principal)
}

func (s *PatentService) RecordPayment(ctx context.Context, id uuid.UUID, principal Principal, req *RecordPaymentRequest) (*models.PatentApplication, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	app, err := s.Get(id, principal)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.Prepare(ctx, models.OwnerPatent, app.ID, req)
	if err != nil {
		return nil, err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := upsertPayment(tx, app.Payment, payment); err != nil {
			return err
		}

		step := app.CurrentStep
		if step < models.PaymentStep {
			step = models.PaymentStep
		}

		return tx.Model(app).Updates(map[string]interface{}{
			"status":       models.StatusSubmitted,
			"current_step": step,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	go func() {
		if err := s.notifications.SendSubmissionReceipt(app.ApplicantEmail, app.ApplicantName, app.ApplicationNumber, payment.Amount); err != nil {
			logrus.WithError(err).Warn("Failed to send submission receipt")
		}
	}()

	return s.Get(id, principal)
}

func (s *PatentService) UpdateStatus(id uuid.UUID, status models.ApplicationStatus) (*models.PatentApplication, error) {
	app, err := s.Get(id, Principal{Admin: true})
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(patentReviewTransitions, app.Status, status) {
		return nil, ErrInvalidStatus
	}

	if err := s.db.Model(app).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return s.Get(id, Principal{Admin: true})
}

func (s *PatentService) Delete(id uuid.UUID, principal Principal) error {
	app, err := s.Get(id, principal)
	if err != nil {
		return err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("owner_type = ? AND owner_id = ?", models.OwnerPatent, app.ID).
			Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("failed to delete attachments: %w", err)
		}
		if err := tx.Delete(app).Error; err != nil {
			return fmt.Errorf("failed to delete application: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	unlinkAttachments(s.storage, app.Attachments)
	return nil
}

// formClaims pulls the claims list out of a form snapshot. JSON decoding
// hands the list over as []interface{}; the wizard client sets []string.
func formClaims(form map[string]interface{}) pq.StringArray {
	switch v := form["claims"].(type) {
	case []string:
		if len(v) == 0 {
			return nil
		}
		return pq.StringArray(v)
	case []interface{}:
		claims := make(pq.StringArray, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				claims = append(claims, s)
			}
		}
		if len(claims) == 0 {
			return nil
		}
		return claims
	}
	return nil
}

func (s *PatentService) FindAttachment(id, fileID uuid.UUID, principal Principal) (*models.Attachment, error) {
	if _, err := s.Get(id, principal); err != nil {
		return nil, err
	}

	var attachment models.Attachment
	err := s.db.Where("owner_type = ? AND owner_id = ?", models.OwnerPatent, id).
		First(&attachment, fileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &attachment, nil
}
