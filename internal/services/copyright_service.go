// internal/services/copyright_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lexfield/filings-backend/internal/database"
	"github.com/lexfield/filings-backend/internal/models"
	"github.com/lexfield/filings-backend/internal/utils"
)

// CopyrightService owns the stepped copyright filing workflow: draft
// creation, file attachment, step advancement and the payment that submits
// the application.
type CopyrightService struct {
	db            *gorm.DB
	sequences     *SequenceService
	storage       *StorageService
	payments      *PaymentService
	notifications *NotificationService
}

type CreateCopyrightRequest struct {
	Title           string     `json:"title" validate:"required,min=1,max=255"`
	WorkType        string     `json:"work_type,omitempty" validate:"omitempty,max=100"`
	Description     string     `json:"description,omitempty"`
	AuthorName      string     `json:"author_name,omitempty" validate:"omitempty,max=255"`
	ApplicantName   string     `json:"applicant_name,omitempty" validate:"omitempty,max=255"`
	ApplicantEmail  string     `json:"applicant_email,omitempty" validate:"omitempty,email"`
	CreationDate    *time.Time `json:"creation_date,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

type AdvanceStepRequest struct {
	Step     int                    `json:"step" validate:"required"`
	FormData map[string]interface{} `json:"form_data,omitempty"`
}

// Review transitions available to admins, per variant vocabulary.
var copyrightReviewTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusSubmitted:   {models.StatusUnderReview, models.StatusRejected},
	models.StatusUnderReview: {models.StatusRegistered, models.StatusRejected},
}

func NewCopyrightService(db *gorm.DB, sequences *SequenceService, storage *StorageService, payments *PaymentService, notifications *NotificationService) *CopyrightService {
	return &CopyrightService{
		db:            db,
		sequences:     sequences,
		storage:       storage,
		payments:      payments,
		notifications: notifications,
	}
}

// Create stores a new draft at step 1 with a freshly assigned application
// number. The number is generated here, exactly once; it is never touched
// again for the lifetime of the row.
func (s *CopyrightService) Create(ctx context.Context, applicantID uuid.UUID, req *CreateCopyrightRequest) (*models.CopyrightApplication, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("validation failed: title must not be blank")
	}

	number, err := s.sequences.NextApplicationNumber(ctx, models.CopyrightNumberPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to assign application number: %w", err)
	}

	app := &models.CopyrightApplication{
		ApplicantID:       applicantID,
		Title:             req.Title,
		WorkType:          req.WorkType,
		Description:       req.Description,
		AuthorName:        req.AuthorName,
		ApplicantName:     req.ApplicantName,
		ApplicantEmail:    strings.ToLower(req.ApplicantEmail),
		CreationDate:      req.CreationDate,
		PublicationDate:   req.PublicationDate,
		ApplicationNumber: number,
		CurrentStep:       1,
		Status:            models.StatusDraft,
	}

	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, fmt.Errorf("failed to create copyright application: %w", err)
	}

	return app, nil
}

func (s *CopyrightService) Get(id uuid.UUID, principal Principal) (*models.CopyrightApplication, error) {
	var app models.CopyrightApplication
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

// List returns the caller's applications; admins see everything.
func (s *CopyrightService) List(principal Principal, params utils.PaginationParams) ([]models.CopyrightApplication, int64, error) {
	query := s.db.Model(&models.CopyrightApplication{})

	if !principal.Admin {
		query = query.Where("applicant_id = ?", principal.UserID)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(application_number) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count copyright applications: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "status", "current_step"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var apps []models.CopyrightApplication
	if err := query.Preload("Attachments").Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch copyright applications: %w", err)
	}

	return apps, total, nil
}

// AttachPrimary prepends the main work file: it claims position 0 and shifts
// every existing attachment down one slot.
func (s *CopyrightService) AttachPrimary(id uuid.UUID, principal Principal, file *StoredFile) (*models.CopyrightApplication, error) {
	app, err := s.Get(id, principal)
	if err != nil {
		return nil, err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Model(&models.Attachment{}).
			Where("owner_type = ? AND owner_id = ?", models.OwnerCopyright, app.ID).
			UpdateColumn("position", gorm.Expr("position + 1")).Error; err != nil {
			return fmt.Errorf("failed to shift attachment positions: %w", err)
		}

		attachment := newAttachment(models.OwnerCopyright, app.ID, models.AttachmentKindPrimary, 0, file)
		if err := tx.Create(attachment).Error; err != nil {
			return fmt.Errorf("failed to store attachment: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id, principal)
}

// AttachDocuments appends supporting documents in request order.
func (s *CopyrightService) AttachDocuments(id uuid.UUID, principal Principal, files []*StoredFile) (*models.CopyrightApplication, error) {
	app, err := s.Get(id, principal)
	if err != nil {
		return nil, err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return appendAttachments(tx, models.OwnerCopyright, app.ID, models.AttachmentKindDocument, files)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id, principal)
}

// Form keys that shadow typed columns. Later wizard steps deliver these
// inside the form snapshot, after the row was created.
var copyrightFormColumns = map[string]string{
	"title":           "title",
	"work_type":       "work_type",
	"description":     "description",
	"author_name":     "author_name",
	"applicant_name":  "applicant_name",
	"applicant_email": "applicant_email",
}

// AdvanceStep sets the wizard position. Out-of-range targets are rejected
// without mutating anything; an optional form snapshot rides along so a
// reloaded client can resume where it left off. Known form keys are copied
// onto their columns so values collected mid-wizard are queryable and the
// submission receipt has an address to go to.
func (s *CopyrightService) AdvanceStep(id uuid.UUID, principal Principal, req *AdvanceStepRequest) (*models.CopyrightApplication, error) {
	if req.Step < 1 || req.Step > models.CopyrightStepCount {
		return nil, ErrInvalidStep
	}

	app, err := s.Get(id, principal)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"current_step": req.Step}
	if req.FormData != nil {
		updates["form_data"] = models.JSONB(req.FormData)
		for column, value := range formColumnUpdates(req.FormData, copyrightFormColumns) {
			updates[column] = value
		}
	}

	if err := s.db.Model(app).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to advance step: %w", err)
	}

	return s.Get(id, principal)
}

// RecordPayment stores the filing fee and is the only operation that moves a
// draft to submitted. The step counter is raised to the payment step but
// never lowered.
func (s *CopyrightService) RecordPayment(ctx context.Context, id uuid.UUID, principal Principal, req *RecordPaymentRequest) (*models.CopyrightApplication, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	app, err := s.Get(id, principal)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.Prepare(ctx, models.OwnerCopyright, app.ID, req)
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

// UpdateStatus applies an admin review decision.
func (s *CopyrightService) UpdateStatus(id uuid.UUID, status models.ApplicationStatus) (*models.CopyrightApplication, error) {
	app, err := s.Get(id, Principal{Admin: true})
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(copyrightReviewTransitions, app.Status, status) {
		return nil, ErrInvalidStatus
	}

	if err := s.db.Model(app).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return s.Get(id, Principal{Admin: true})
}

// Delete removes the application and unlinks every referenced file from
// disk. A missing physical file never aborts the delete.
func (s *CopyrightService) Delete(id uuid.UUID, principal Principal) error {
	app, err := s.Get(id, principal)
	if err != nil {
		return err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("owner_type = ? AND owner_id = ?", models.OwnerCopyright, app.ID).
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

// FindAttachment resolves a file reference for download.
func (s *CopyrightService) FindAttachment(id, fileID uuid.UUID, principal Principal) (*models.Attachment, error) {
	if _, err := s.Get(id, principal); err != nil {
		return nil, err
	}

	var attachment models.Attachment
	err := s.db.Where("owner_type = ? AND owner_id = ?", models.OwnerCopyright, id).
		First(&attachment, fileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &attachment, nil
}

// Shared helpers for both application variants.

func newAttachment(ownerType string, ownerID uuid.UUID, kind models.AttachmentKind, position int, file *StoredFile) *models.Attachment {
	return &models.Attachment{
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Kind:         kind,
		Position:     position,
		Filename:     file.Filename,
		OriginalName: file.OriginalName,
		Path:         file.Path,
		Size:         file.Size,
		MimeType:     file.MimeType,
		UploadDate:   time.Now(),
	}
}

func appendAttachments(tx *gorm.DB, ownerType string, ownerID uuid.UUID, kind models.AttachmentKind, files []*StoredFile) error {
	var maxPosition int
	err := tx.Model(&models.Attachment{}).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Select("COALESCE(MAX(position), -1)").Scan(&maxPosition).Error
	if err != nil {
		return fmt.Errorf("failed to read attachment positions: %w", err)
	}

	next := maxPosition + 1

	for i, file := range files {
		attachment := newAttachment(ownerType, ownerID, kind, next+i, file)
		if err := tx.Create(attachment).Error; err != nil {
			return fmt.Errorf("failed to store attachment: %w", err)
		}
	}

	return nil
}

func upsertPayment(tx *gorm.DB, existing *models.Payment, payment *models.Payment) error {
	if existing != nil {
		return tx.Model(existing).Updates(map[string]interface{}{
			"amount":         payment.Amount,
			"method":         payment.Method,
			"transaction_id": payment.TransactionID,
			"paid_at":        payment.PaidAt,
		}).Error
	}

	if err := tx.Create(payment).Error; err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

// formColumnUpdates extracts the string-valued form fields that belong on a
// typed column. Blank and non-string values are ignored so a sparse snapshot
// never wipes a column already set.
func formColumnUpdates(form map[string]interface{}, columns map[string]string) map[string]interface{} {
	updates := make(map[string]interface{})
	for key, column := range columns {
		raw, ok := form[key]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if key == "applicant_email" {
			value = strings.ToLower(value)
		}
		updates[column] = value
	}
	return updates
}

func transitionAllowed(transitions map[models.ApplicationStatus][]models.ApplicationStatus, from, to models.ApplicationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func unlinkAttachments(storage *StorageService, attachments []models.Attachment) {
	for _, attachment := range attachments {
		if err := storage.Remove(attachment.Path); err != nil {
			logrus.WithError(err).WithField("path", attachment.Path).
				Warn("Failed to unlink attachment file")
		}
	}
}
