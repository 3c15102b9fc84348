package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recoveryRepository struct {
	db *gorm.DB
}

// ReplacePasswordResetToken deletes any unused token for the user before
// inserting the new one. Issuing a fresh token always invalidates the
// outstanding one.
func (r *recoveryRepository) ReplacePasswordResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, createdAt, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).
			Where("used_at IS NULL").
			Delete(&passwordResetTokenModel{}).Error; err != nil {
			return err
		}
		rec := passwordResetTokenModel{
			UserID:    userID,
			TokenHash: tokenHash,
			CreatedAt: createdAt,
			ExpiresAt: expiresAt,
		}
		return tx.Create(&rec).Error
	})
}

// ConsumePasswordResetToken marks the matching unused, unexpired token as
// used. Row locking keeps concurrent resets from both succeeding on the same
// token.
func (r *recoveryRepository) ConsumePasswordResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, usedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec passwordResetTokenModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Where("token_hash = ?", tokenHash).
			Where("used_at IS NULL").
			Where("expires_at > ?", usedAt).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrInvalidResetToken
			}
			return err
		}
		return tx.Model(&passwordResetTokenModel{}).
			Where("token_id = ?", rec.TokenID).
			Update("used_at", usedAt).Error
	})
}
