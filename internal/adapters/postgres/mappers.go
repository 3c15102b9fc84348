package postgres

import (
	"errors"
	"strings"

	"github.com/mindscribe/auth-service/internal/domain"
	"gorm.io/gorm"
)

func toDomainUser(row userModel) domain.User {
	return domain.User{
		UserID:          row.UserID,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Email:           row.Email,
		PhoneNumber:     row.PhoneNumber,
		PasswordHash:    row.PasswordHash,
		TwoFactorSecret: row.TwoFactorSecret,
		TwoFAEnabled:    row.TwoFAEnabled,
		IsActive:        row.IsActive,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func toDomainJournalEntry(row journalEntryModel) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:   row.EntryID,
		UserID:    row.UserID,
		Title:     row.Title,
		Body:      row.Body,
		Mood:      row.Mood,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toDomainLoginAttempt(row loginAttemptModel) domain.LoginAttempt {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.LoginAttempt{
		ID:            row.ID,
		UserID:        row.UserID,
		AttemptAt:     row.AttemptAt,
		IPAddress:     ip,
		Status:        row.Status,
		FailureReason: row.FailureReason,
		UserAgent:     row.UserAgent,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
