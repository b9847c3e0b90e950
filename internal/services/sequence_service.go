// internal/services/sequence_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SequenceService hands out application numbers from an atomic per-(prefix,
// year) counter: Redis INCR when a client is configured, otherwise a
// Postgres upsert that increments and returns in a single statement. Numbers
// are assigned exactly once per application and never regenerated.
type SequenceService struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewSequenceService(db *gorm.DB, rdb *redis.Client) *SequenceService {
	return &SequenceService{db: db, rdb: rdb}
}

// Next returns the next counter value for the given prefix and year.
func (s *SequenceService) Next(ctx context.Context, prefix string, year int) (int64, error) {
	if s.rdb != nil {
		key := fmt.Sprintf("seq:%s:%d", strings.ToLower(prefix), year)
		value, err := s.rdb.Incr(ctx, key).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to increment sequence %s: %w", key, err)
		}
		return value, nil
	}

	var value int64
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO sequences (prefix, year, value, created_at, updated_at)
		VALUES (?, ?, 1, now(), now())
		ON CONFLICT (prefix, year)
		DO UPDATE SET value = sequences.value + 1, updated_at = now()
		RETURNING value`,
		prefix, year,
	).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s-%d: %w", prefix, year, err)
	}

	return value, nil
}

// NextApplicationNumber returns a formatted number such as CR-2026-00042 for
// the current year.
func (s *SequenceService) NextApplicationNumber(ctx context.Context, prefix string) (string, error) {
	year := time.Now().Year()
	value, err := s.Next(ctx, prefix, year)
	if err != nil {
		return "", err
	}
	return FormatApplicationNumber(prefix, year, value), nil
}

func FormatApplicationNumber(prefix string, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, value)
}
