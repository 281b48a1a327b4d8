package service

import (
	"StudyVault/internal/repo"
	"StudyVault/internal/task"
	"StudyVault/model"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"
)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return validationError("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationError("malformed email %q", email)
	}
	return nil
}

// ShareFile grants email visibility of an active file the caller owns.
func (s *Service) ShareFile(ctx context.Context, id Identity, fileID, email string) (grant *model.ShareGrant, err error) {
	defer func() { s.metrics.observe("share_file", err) }()

	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	file, err := s.repo.Files.FindInState(ctx, id.UserID, fileID, false)
	if err != nil {
		return nil, fromRepo(err, "file", fileID)
	}
	exists, err := s.repo.Shares.Exists(ctx, fileID, email)
	if err != nil {
		return nil, fmt.Errorf("check share: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: file %s already shared with %s", ErrConflict, fileID, email)
	}

	grant = &model.ShareGrant{
		FileID:          fileID,
		SharedByUserID:  id.UserID,
		SharedWithEmail: email,
	}
	if err := s.repo.Shares.Create(ctx, grant); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: file %s already shared with %s", ErrConflict, fileID, email)
		}
		return nil, fmt.Errorf("create share: %w", err)
	}
	log.Info().Uint64("owner", id.UserID).Str("file", fileID).Str("to", email).Msg("file shared")
	s.publish(ctx, task.NewShareNotice(file.ID, file.Name, email, id.Email))
	return grant, nil
}

// ListSharedWithMe returns the active files granted to the caller's email.
// Grants whose file is trashed or purged are skipped.
func (s *Service) ListSharedWithMe(ctx context.Context, id Identity) ([]model.File, error) {
	email := NormalizeEmail(id.Email)
	if email == "" {
		return []model.File{}, nil
	}
	ids, err := s.repo.Shares.FileIDsForEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	files, err := s.repo.Files.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list shared files: %w", err)
	}
	for i := range files {
		files[i].IsShared = true
	}
	return files, nil
}

// sharedFile resolves an active file through a grant to the caller's email.
func (s *Service) sharedFile(ctx context.Context, id Identity, fileID string) (*model.File, error) {
	email := NormalizeEmail(id.Email)
	if email == "" {
		return nil, notFoundError("file", fileID)
	}
	granted, err := s.repo.Shares.Exists(ctx, fileID, email)
	if err != nil {
		return nil, fmt.Errorf("check share: %w", err)
	}
	if !granted {
		return nil, notFoundError("file", fileID)
	}
	file, err := s.repo.Files.FindActive(ctx, fileID)
	if err != nil {
		return nil, fromRepo(err, "file", fileID)
	}
	file.IsShared = true
	return file, nil
}
