package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexfield/filings-backend/internal/config"
	"github.com/lexfield/filings-backend/internal/models"
)

func TestPaymentPrepareDefaults(t *testing.T) {
	svc := NewPaymentService(&config.Config{})
	ownerID := uuid.New()

	payment, err := svc.Prepare(context.Background(), models.OwnerCopyright, ownerID, &RecordPaymentRequest{Amount: 150})
	require.NoError(t, err)

	assert.Equal(t, models.OwnerCopyright, payment.OwnerType)
	assert.Equal(t, ownerID, payment.OwnerID)
	assert.Equal(t, 150.0, payment.Amount)
	assert.Equal(t, "card", payment.Method)
	assert.True(t, strings.HasPrefix(payment.TransactionID, "TXN-"))
	assert.False(t, payment.PaidAt.IsZero())
}

func TestPaymentPrepareKeepsCallerValues(t *testing.T) {
	svc := NewPaymentService(&config.Config{})

	payment, err := svc.Prepare(context.Background(), models.OwnerPatent, uuid.New(), &RecordPaymentRequest{
		Amount:        320,
		Method:        "bank-transfer",
		TransactionID: "EXT-0001",
	})
	require.NoError(t, err)

	assert.Equal(t, "bank-transfer", payment.Method)
	assert.Equal(t, "EXT-0001", payment.TransactionID)
}

func TestPaymentTransactionIDsAreUnique(t *testing.T) {
	svc := NewPaymentService(&config.Config{})
	ctx := context.Background()

	first, err := svc.Prepare(ctx, models.OwnerCopyright, uuid.New(), &RecordPaymentRequest{Amount: 1})
	require.NoError(t, err)
	second, err := svc.Prepare(ctx, models.OwnerCopyright, uuid.New(), &RecordPaymentRequest{Amount: 1})
	require.NoError(t, err)

	assert.NotEqual(t, first.TransactionID, second.TransactionID)
}
