package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
	"gorm.io/gorm"
)

type journalRepository struct {
	db *gorm.DB
}

func (r *journalRepository) Create(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	rec := journalEntryModel{
		EntryID:   entry.EntryID,
		UserID:    entry.UserID,
		Title:     entry.Title,
		Body:      entry.Body,
		Mood:      entry.Mood,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.JournalEntry{}, err
	}
	return toDomainJournalEntry(rec), nil
}

func (r *journalRepository) GetByID(ctx context.Context, entryID uuid.UUID) (domain.JournalEntry, error) {
	var rec journalEntryModel
	if err := r.db.WithContext(ctx).Where("entry_id = ?", entryID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.JournalEntry{}, domain.ErrNotFound
		}
		return domain.JournalEntry{}, err
	}
	return toDomainJournalEntry(rec), nil
}

func (r *journalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []journalEntryModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.JournalEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainJournalEntry(row))
	}
	return out, nil
}

func (r *journalRepository) Update(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	res := r.db.WithContext(ctx).
		Model(&journalEntryModel{}).
		Where("entry_id = ?", entry.EntryID).
		Updates(map[string]any{
			"title":      entry.Title,
			"body":       entry.Body,
			"mood":       entry.Mood,
			"updated_at": entry.UpdatedAt,
		})
	if res.Error != nil {
		return domain.JournalEntry{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.JournalEntry{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, entry.EntryID)
}

func (r *journalRepository) Delete(ctx context.Context, entryID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("entry_id = ?", entryID).Delete(&journalEntryModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
