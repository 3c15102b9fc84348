package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
	"gorm.io/gorm"
)

type credentialRepository struct {
	db *gorm.DB
}

func (r *credentialRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
