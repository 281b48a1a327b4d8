package service

import (
	"StudyVault/model"
	"context"
	"fmt"
	"strings"
)

const (
	viewSubjects      = "subjects"
	viewFiles         = "files"
	viewFavorites     = "favorites"
	viewTrashSubjects = "trash_subjects"
	viewTrashFiles    = "trash_files"
)

// ListActiveSubjects lists the caller's subjects that are not trashed, newest first.
func (s *Service) ListActiveSubjects(ctx context.Context, id Identity) ([]model.Subject, error) {
	return cachedList(ctx, s, id.UserID, viewSubjects, "", func() ([]model.Subject, error) {
		return s.repo.Subjects.ListActive(ctx, id.UserID)
	})
}

// ListActiveFiles lists the active files of an active subject, newest first.
func (s *Service) ListActiveFiles(ctx context.Context, id Identity, subjectID string) ([]model.File, error) {
	if _, err := s.repo.Subjects.FindInState(ctx, id.UserID, subjectID, false); err != nil {
		return nil, fromRepo(err, "subject", subjectID)
	}
	return cachedList(ctx, s, id.UserID, viewFiles, subjectID, func() ([]model.File, error) {
		return s.repo.Files.ListActiveInSubject(ctx, id.UserID, subjectID)
	})
}

// ListFavoriteFiles lists active favorite files outside trashed subjects.
func (s *Service) ListFavoriteFiles(ctx context.Context, id Identity) ([]model.File, error) {
	return cachedList(ctx, s, id.UserID, viewFavorites, "", func() ([]model.File, error) {
		return s.repo.Files.ListFavorites(ctx, id.UserID)
	})
}

// ListTrashedSubjects lists trashed subjects, most recently trashed first.
func (s *Service) ListTrashedSubjects(ctx context.Context, id Identity) ([]model.Subject, error) {
	return cachedList(ctx, s, id.UserID, viewTrashSubjects, "", func() ([]model.Subject, error) {
		return s.repo.Subjects.ListTrashed(ctx, id.UserID)
	})
}

// ListTrashedFiles lists trashed files, most recently trashed first.
func (s *Service) ListTrashedFiles(ctx context.Context, id Identity) ([]model.File, error) {
	return cachedList(ctx, s, id.UserID, viewTrashFiles, "", func() ([]model.File, error) {
		return s.repo.Files.ListTrashed(ctx, id.UserID)
	})
}

// SearchFiles matches visible active files by a case-insensitive substring of
// their name. Results are not ranked.
func (s *Service) SearchFiles(ctx context.Context, id Identity, query string) ([]model.File, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("search query is required")
	}
	files, err := s.repo.Files.Search(ctx, id.UserID, query)
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	return files, nil
}

func cachedList[T any](ctx context.Context, s *Service, ownerID uint64, view, arg string, load func() ([]T, error)) ([]T, error) {
	var items []T
	if s.cache.Get(ctx, ownerID, view, arg, &items) && items != nil {
		return items, nil
	}
	items, err := load()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", view, err)
	}
	s.cache.Set(ctx, ownerID, view, arg, items)
	return items, nil
}
