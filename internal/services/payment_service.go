// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/lexfield/filings-backend/internal/config"
	"github.com/lexfield/filings-backend/internal/models"
	"github.com/lexfield/filings-backend/internal/utils"
)

// PaymentService builds filing-fee payment records. When Stripe is configured
// and the caller did not bring an external transaction id, a PaymentIntent is
// created and its id recorded instead of a locally generated one.
type PaymentService struct {
	cfg *config.Config
}

type RecordPaymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Method        string  `json:"method,omitempty" validate:"omitempty,max=50"`
	TransactionID string  `json:"transaction_id,omitempty" validate:"omitempty,max=100"`
}

func NewPaymentService(cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{cfg: cfg}
}

// Prepare applies defaults and returns an unsaved payment row for the given
// owner. The caller persists it inside the same transaction that flips the
// application to submitted.
func (s *PaymentService) Prepare(ctx context.Context, ownerType string, ownerID uuid.UUID, req *RecordPaymentRequest) (*models.Payment, error) {
	method := req.Method
	if method == "" {
		method = "card"
	}

	transactionID := req.TransactionID
	if transactionID == "" {
		var err error
		transactionID, err = s.newTransactionID(ctx, ownerType, ownerID, req.Amount)
		if err != nil {
			return nil, err
		}
	}

	return &models.Payment{
		OwnerType:     ownerType,
		OwnerID:       ownerID,
		Amount:        req.Amount,
		Method:        method,
		TransactionID: transactionID,
		PaidAt:        time.Now(),
	}, nil
}

func (s *PaymentService) newTransactionID(ctx context.Context, ownerType string, ownerID uuid.UUID, amount float64) (string, error) {
	if s.cfg.Payment.StripeSecretKey == "" {
		suffix, err := utils.GenerateRandomString(12)
		if err != nil {
			return "", fmt.Errorf("failed to generate transaction id: %w", err)
		}
		return "TXN-" + suffix, nil
	}

	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(int64(amount * 100)),
		Currency: stripe.String(s.cfg.Payment.Currency),
	}
	params.AddMetadata("application_type", ownerType)
	params.AddMetadata("application_id", ownerID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	return pi.ID, nil
}
