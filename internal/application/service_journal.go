package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
)

// CreateJournalEntry stores a new entry owned by the caller.
func (s *Service) CreateJournalEntry(ctx context.Context, ownerID uuid.UUID, req CreateJournalEntryRequest) (JournalEntryResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return JournalEntryResponse{}, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	entry, err := s.journal.Create(ctx, domain.JournalEntry{
		EntryID:   uuid.New(),
		UserID:    ownerID,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Mood:      strings.TrimSpace(req.Mood),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return JournalEntryResponse{}, err
	}
	return toJournalResponse(entry), nil
}

// GetJournalEntry returns one entry. Entries owned by someone else are
// reported as not found, not forbidden, so entry IDs cannot be probed.
func (s *Service) GetJournalEntry(ctx context.Context, ownerID, entryID uuid.UUID) (JournalEntryResponse, error) {
	entry, err := s.journal.GetByID(ctx, entryID)
	if err != nil {
		return JournalEntryResponse{}, err
	}
	if entry.UserID != ownerID {
		return JournalEntryResponse{}, domain.ErrNotFound
	}
	return toJournalResponse(entry), nil
}

// ListJournalEntries returns the caller's entries, newest first.
func (s *Service) ListJournalEntries(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]JournalEntryResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.journal.ListByUser(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]JournalEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toJournalResponse(entry))
	}
	return out, nil
}

// UpdateJournalEntry replaces an entry's content after an ownership check.
func (s *Service) UpdateJournalEntry(ctx context.Context, ownerID, entryID uuid.UUID, req UpdateJournalEntryRequest) (JournalEntryResponse, error) {
	existing, err := s.journal.GetByID(ctx, entryID)
	if err != nil {
		return JournalEntryResponse{}, err
	}
	if existing.UserID != ownerID {
		return JournalEntryResponse{}, domain.ErrNotFound
	}
	if strings.TrimSpace(req.Title) == "" {
		return JournalEntryResponse{}, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	existing.Title = strings.TrimSpace(req.Title)
	existing.Body = req.Body
	existing.Mood = strings.TrimSpace(req.Mood)
	existing.UpdatedAt = s.nowFn()

	updated, err := s.journal.Update(ctx, existing)
	if err != nil {
		return JournalEntryResponse{}, err
	}
	return toJournalResponse(updated), nil
}

// DeleteJournalEntry removes an entry after an ownership check.
func (s *Service) DeleteJournalEntry(ctx context.Context, ownerID, entryID uuid.UUID) error {
	existing, err := s.journal.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if existing.UserID != ownerID {
		return domain.ErrNotFound
	}
	return s.journal.Delete(ctx, entryID)
}

func toJournalResponse(entry domain.JournalEntry) JournalEntryResponse {
	return JournalEntryResponse{
		EntryID:   entry.EntryID,
		Title:     entry.Title,
		Body:      entry.Body,
		Mood:      entry.Mood,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}
