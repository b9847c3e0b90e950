package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexfield/filings-backend/internal/models"
)

func newTestSequenceService(t *testing.T) (*SequenceService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSequenceService(nil, rdb), mr
}

func TestSequenceNextIncrements(t *testing.T) {
	svc, _ := newTestSequenceService(t)
	ctx := context.Background()

	first, err := svc.Next(ctx, models.CopyrightNumberPrefix, 2026)
	require.NoError(t, err)
	second, err := svc.Next(ctx, models.CopyrightNumberPrefix, 2026)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestSequenceIndependentPerPrefixAndYear(t *testing.T) {
	svc, _ := newTestSequenceService(t)
	ctx := context.Background()

	_, err := svc.Next(ctx, models.CopyrightNumberPrefix, 2026)
	require.NoError(t, err)
	_, err = svc.Next(ctx, models.CopyrightNumberPrefix, 2026)
	require.NoError(t, err)

	patent, err := svc.Next(ctx, models.PatentNumberPrefix, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), patent)

	lastYear, err := svc.Next(ctx, models.CopyrightNumberPrefix, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), lastYear)
}

func TestSequenceRedisKeyShape(t *testing.T) {
	svc, mr := newTestSequenceService(t)

	_, err := svc.Next(context.Background(), models.PatentNumberPrefix, 2026)
	require.NoError(t, err)

	value, err := mr.Get("seq:pat:2026")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestNextApplicationNumberFormat(t *testing.T) {
	svc, _ := newTestSequenceService(t)

	number, err := svc.NextApplicationNumber(context.Background(), models.CopyrightNumberPrefix)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CR-%d-00001", time.Now().Year()), number)
}

func TestFormatApplicationNumber(t *testing.T) {
	assert.Equal(t, "CR-2026-00042", FormatApplicationNumber("CR", 2026, 42))
	assert.Equal(t, "PAT-2026-12345", FormatApplicationNumber("PAT", 2026, 12345))
	assert.Equal(t, "PAT-2027-100000", FormatApplicationNumber("PAT", 2027, 100000))
}
