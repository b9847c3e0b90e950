// internal/services/contact_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lexfield/filings-backend/internal/models"
	"github.com/lexfield/filings-backend/internal/utils"
)

const contactDedupeWindow = 24 * time.Hour

type ContactService struct {
	db            *gorm.DB
	rdb           *redis.Client
	notifications *NotificationService
}

type CreateContactRequest struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=255"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company     string `json:"company,omitempty" validate:"omitempty,max=255"`
	ServiceType string `json:"service_type" validate:"required,service_type"`
	Message     string `json:"message" validate:"required,min=10"`
}

type ContactListFilter struct {
	Status      string
	ServiceType string
}

func NewContactService(db *gorm.DB, rdb *redis.Client, notifications *NotificationService) *ContactService {
	return &ContactService{
		db:            db,
		rdb:           rdb,
		notifications: notifications,
	}
}

// Create stores an inquiry unless an identical (email, message) pair arrived
// within the last 24 hours.
func (s *ContactService) Create(ctx context.Context, req *CreateContactRequest) (*models.Contact, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	duplicate, err := s.isDuplicate(ctx, req.Email, req.Message)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrDuplicateContact
	}

	contact := &models.Contact{
		FullName:    req.FullName,
		Email:       strings.ToLower(req.Email),
		Phone:       req.Phone,
		Company:     req.Company,
		ServiceType: strings.ToLower(req.ServiceType),
		Message:     req.Message,
		Status:      models.ContactStatusNew,
	}

	if err := s.db.WithContext(ctx).Create(contact).Error; err != nil {
		// The insert failed, so the caller has to resubmit; give the
		// claimed slot back so the retry is not answered with 429.
		s.releaseDedupe(ctx, req.Email, req.Message)
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	// Acknowledge by email without blocking the request
	go func() {
		if err := s.notifications.SendContactAcknowledgment(contact); err != nil {
			logrus.WithError(err).Warn("Failed to send contact acknowledgment")
		}
	}()

	return contact, nil
}

func (s *ContactService) dedupeKey(email, message string) string {
	return "contact:dedupe:" + utils.HashString(strings.ToLower(email)+"|"+message)
}

// isDuplicate guards the 24h window. With Redis the guard is a SETNX with a
// TTL; without it, a window query against Postgres. A slot claimed here is
// released again by Create when the insert itself fails.
func (s *ContactService) isDuplicate(ctx context.Context, email, message string) (bool, error) {
	if s.rdb != nil {
		set, err := s.rdb.SetNX(ctx, s.dedupeKey(email, message), 1, contactDedupeWindow).Result()
		if err != nil {
			return false, fmt.Errorf("dedupe check failed: %w", err)
		}
		return !set, nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Contact{}).
		Where("email = ? AND message = ? AND created_at > ?",
			strings.ToLower(email), message, time.Now().Add(-contactDedupeWindow)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("dedupe check failed: %w", err)
	}

	return count > 0, nil
}

func (s *ContactService) releaseDedupe(ctx context.Context, email, message string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, s.dedupeKey(email, message)).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to release contact dedupe slot")
	}
}

func (s *ContactService) List(params utils.PaginationParams, filter ContactListFilter) ([]models.Contact, int64, error) {
	query := s.db.Model(&models.Contact{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", strings.ToLower(filter.ServiceType))
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(message) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "full_name", "status", "service_type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var contacts []models.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	return contacts, total, nil
}

func (s *ContactService) Get(id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.First(&contact, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &contact, nil
}

func (s *ContactService) UpdateStatus(id uuid.UUID, status models.ContactStatus) (*models.Contact, error) {
	switch status {
	case models.ContactStatusNew, models.ContactStatusInProgress, models.ContactStatusResolved:
	default:
		return nil, ErrInvalidStatus
	}

	contact, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(contact).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update contact status: %w", err)
	}

	return contact, nil
}

// Delete soft-deletes; the row is retained with a deletion timestamp.
func (s *ContactService) Delete(id uuid.UUID) error {
	contact, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(contact).Error; err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	return nil
}
