package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/spacetime/internal/access"
	"github.com/sakif/spacetime/internal/apperror"
	"github.com/sakif/spacetime/internal/model"
	"github.com/sakif/spacetime/internal/repository"
)

// MaxContentLength caps a memory's text body (~100KB).
const MaxContentLength = 100000

// MemoryService handles business logic for memories. Every operation
// takes the caller's subject (the verified token's sub claim) and runs
// the access rules from internal/access before touching the store — the
// store itself is ownership-blind.
type MemoryService struct {
	repo   repository.MemoryRepository
	logger *slog.Logger
}

// NewMemoryService creates a MemoryService.
func NewMemoryService(repo repository.MemoryRepository, logger *slog.Logger) *MemoryService {
	return &MemoryService{
		repo:   repo,
		logger: logger,
	}
}

// MemoryExcerpt is a listing entry: identity, cover, and a content
// preview — never the full body.
type MemoryExcerpt struct {
	ID       string `json:"id"`
	CoverURL string `json:"coverUrl"`
	Excerpt  string `json:"excerpt"`
}

// List returns excerpts of every memory the caller may read, in
// creation order ascending. The read rule is applied per record: the
// caller sees all public memories plus their own private ones.
func (s *MemoryService) List(ctx context.Context, callerSub string) ([]MemoryExcerpt, error) {
	memories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list memories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing memories: %w", err)
	}

	excerpts := make([]MemoryExcerpt, 0, len(memories))
	for i := range memories {
		m := &memories[i]
		if !access.CanRead(callerSub, m) {
			continue
		}
		excerpts = append(excerpts, MemoryExcerpt{
			ID:       m.ID,
			CoverURL: m.CoverURL,
			Excerpt:  m.Excerpt(),
		})
	}

	return excerpts, nil
}

// Get returns the full memory if the caller may read it. A private
// memory read by a non-owner fails with the not-owner error — NOT with
// not-found; the record's existence is not a secret, its content is.
func (s *MemoryService) Get(ctx context.Context, callerSub, id string) (*model.Memory, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "memory ID is required")
	}

	memory, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanRead(callerSub, memory) {
		return nil, apperror.NotOwner("memory is not public")
	}

	return memory, nil
}

// Create stores a new memory owned by the caller. Visibility defaults to
// private — the handler only sets isPublic when the client sends it.
func (s *MemoryService) Create(ctx context.Context, callerSub, content, coverURL string, isPublic bool) (*model.Memory, error) {
	if callerSub == "" {
		return nil, apperror.Unauthorized("caller identity is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}

	memory := &model.Memory{
		Content:  content,
		CoverURL: coverURL,
		IsPublic: isPublic,
		OwnerID:  callerSub,
	}

	if err := s.repo.Create(ctx, memory); err != nil {
		s.logger.Error("failed to create memory",
			slog.String("ownerID", callerSub),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating memory: %w", err)
	}

	s.logger.Info("memory created",
		slog.String("id", memory.ID),
		slog.String("ownerID", memory.OwnerID),
	)

	return memory, nil
}

// Update overwrites content, cover URL, and visibility — owner only.
// Fetch first, then check ownership on the fetched record, then write:
// a failed check never mutates anything.
func (s *MemoryService) Update(ctx context.Context, callerSub, id, content, coverURL string, isPublic bool) (*model.Memory, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "memory ID is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}

	memory, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.AssertCanMutate(callerSub, memory); err != nil {
		return nil, err
	}

	memory.Content = content
	memory.CoverURL = coverURL
	memory.IsPublic = isPublic

	if err := s.repo.Update(ctx, memory); err != nil {
		s.logger.Error("failed to update memory",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating memory: %w", err)
	}

	s.logger.Info("memory updated", slog.String("id", memory.ID))

	return memory, nil
}

// Delete removes a memory — owner only, same fetch-then-check shape as
// Update.
func (s *MemoryService) Delete(ctx context.Context, callerSub, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "memory ID is required")
	}

	memory, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := access.AssertCanMutate(callerSub, memory); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("memory deleted", slog.String("id", id))
	return nil
}
