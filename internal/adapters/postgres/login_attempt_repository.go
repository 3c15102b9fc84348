package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
	"gorm.io/gorm"
)

type loginAttemptRepository struct {
	db *gorm.DB
}

func (r *loginAttemptRepository) Insert(ctx context.Context, attempt domain.LoginAttempt) error {
	rec := loginAttemptModel{
		UserID:        attempt.UserID,
		AttemptAt:     attempt.AttemptAt,
		IPAddress:     nullableString(attempt.IPAddress),
		Status:        attempt.Status,
		FailureReason: attempt.FailureReason,
		UserAgent:     attempt.UserAgent,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *loginAttemptRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LoginAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []loginAttemptModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("attempt_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.LoginAttempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainLoginAttempt(row))
	}
	return out, nil
}
