package service

import (
	"StudyVault/internal/repo"
	"StudyVault/internal/storage"
	"StudyVault/internal/task"
	"StudyVault/model"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

const (
	defaultSubjectColor = "blue"
	maxPathAttempts     = 5
)

type SubjectInput struct {
	Name     string
	Color    string
	ImageURL string
}

// SubjectPatch holds the fields to change. Nil fields are left alone.
type SubjectPatch struct {
	Name     *string
	Color    *string
	ImageURL *string
}

type FileInput struct {
	SubjectID string
	Name      string
	Size      int64
	Type      string
	Body      io.Reader
}

type Usage struct {
	Files int64 `json:"files"`
	Bytes int64 `json:"bytes"`
}

// CreateSubject creates an active subject with no files.
func (s *Service) CreateSubject(ctx context.Context, id Identity, in SubjectInput) (subject *model.Subject, err error) {
	defer func() { s.metrics.observe("create_subject", err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("subject name is required")
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = defaultSubjectColor
	}
	subject = &model.Subject{
		ID:       uuid.NewString(),
		OwnerID:  id.UserID,
		Name:     name,
		Color:    color,
		ImageURL: strings.TrimSpace(in.ImageURL),
	}
	if err := s.repo.Subjects.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	s.cache.Invalidate(ctx, id.UserID)
	log.Info().Uint64("owner", id.UserID).Str("subject", subject.ID).Msg("subject created")
	return subject, nil
}

// UpdateSubject applies patch to an active subject.
func (s *Service) UpdateSubject(ctx context.Context, id Identity, subjectID string, patch SubjectPatch) (subject *model.Subject, err error) {
	defer func() { s.metrics.observe("update_subject", err) }()

	fields := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationError("subject name is required")
		}
		fields["name"] = name
	}
	if patch.Color != nil {
		color := strings.TrimSpace(*patch.Color)
		if color == "" {
			color = defaultSubjectColor
		}
		fields["color"] = color
	}
	if patch.ImageURL != nil {
		fields["image_url"] = strings.TrimSpace(*patch.ImageURL)
	}

	if _, err := s.repo.Subjects.FindInState(ctx, id.UserID, subjectID, false); err != nil {
		return nil, fromRepo(err, "subject", subjectID)
	}
	if len(fields) > 0 {
		if _, err := s.repo.Subjects.UpdateActive(ctx, id.UserID, subjectID, fields); err != nil {
			return nil, fmt.Errorf("update subject: %w", err)
		}
		s.cache.Invalidate(ctx, id.UserID)
	}
	subject, err = s.repo.Subjects.FindInState(ctx, id.UserID, subjectID, false)
	if err != nil {
		return nil, fromRepo(err, "subject", subjectID)
	}
	return subject, nil
}

// CreateFile stores the blob and then commits the record. When the commit
// fails the blob is left behind and handed to the worker for reclamation.
func (s *Service) CreateFile(ctx context.Context, id Identity, in FileInput) (file *model.File, err error) {
	defer func() { s.metrics.observe("create_file", err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("file name is required")
	}
	if in.Size < 0 {
		return nil, validationError("file size must not be negative")
	}
	if in.Body == nil {
		return nil, validationError("file content is required")
	}
	if _, err := s.repo.Subjects.FindInState(ctx, id.UserID, in.SubjectID, false); err != nil {
		return nil, fromRepo(err, "subject", in.SubjectID)
	}

	contentType := strings.TrimSpace(in.Type)
	if contentType == "" {
		contentType = storage.ContentType(name)
	}
	path, err := s.putBlob(ctx, id.UserID, name, in, contentType)
	if err != nil {
		return nil, err
	}
	s.metrics.uploaded(in.Size)

	file = &model.File{
		ID:          uuid.NewString(),
		OwnerID:     id.UserID,
		SubjectID:   in.SubjectID,
		Name:        name,
		Size:        in.Size,
		Type:        contentType,
		StoragePath: path,
	}
	if err := s.repo.Files.Create(ctx, file); err != nil {
		log.Error().Err(err).Str("path", path).Msg("file record commit failed, blob orphaned")
		s.publish(ctx, task.NewBlobReclaim(path))
		return nil, fmt.Errorf("create file: %w", err)
	}

	s.recount(ctx, id.UserID, in.SubjectID)
	s.cache.Invalidate(ctx, id.UserID)
	log.Info().Uint64("owner", id.UserID).Str("file", file.ID).Int64("size", file.Size).Msg("file created")
	return file, nil
}

// putBlob stores the body under a fresh path. A taken path moves the timestamp
// forward one millisecond; that needs a seekable body to resend.
func (s *Service) putBlob(ctx context.Context, ownerID uint64, name string, in FileInput, contentType string) (string, error) {
	at := s.now()
	for attempt := 0; attempt < maxPathAttempts; attempt++ {
		path := storage.ObjectPath(ownerID, at.Add(time.Duration(attempt)*time.Millisecond), name)
		err := s.store.Put(ctx, path, in.Body, in.Size, contentType)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, storage.ErrObjectExists) {
			return "", storageError("put", path, err)
		}
		seeker, ok := in.Body.(io.Seeker)
		if !ok {
			break
		}
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", storageError("rewind", path, err)
		}
		log.Debug().Str("path", path).Msg("object path taken, retrying")
	}
	return "", fmt.Errorf("%w: no free object path for %q", ErrConflict, name)
}

// TrashFile soft-deletes an active file.
func (s *Service) TrashFile(ctx context.Context, id Identity, fileID string) (err error) {
	defer func() { s.metrics.observe("trash_file", err) }()
	return s.setFileTrashed(ctx, id, fileID, true)
}

// RestoreFile brings a trashed file back, even when its subject is gone.
func (s *Service) RestoreFile(ctx context.Context, id Identity, fileID string) (err error) {
	defer func() { s.metrics.observe("restore_file", err) }()
	return s.setFileTrashed(ctx, id, fileID, false)
}

func (s *Service) setFileTrashed(ctx context.Context, id Identity, fileID string, trashed bool) error {
	file, err := s.repo.Files.FindInState(ctx, id.UserID, fileID, !trashed)
	if err != nil {
		return fromRepo(err, "file", fileID)
	}
	rows, err := s.repo.Files.SetTrashed(ctx, id.UserID, fileID, trashed, s.trashedAt(trashed))
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	if rows == 0 {
		return notFoundError("file", fileID)
	}
	s.recount(ctx, id.UserID, file.SubjectID)
	s.cache.Invalidate(ctx, id.UserID)
	return nil
}

// TrashSubject soft-deletes an active subject. Its files keep their own state.
func (s *Service) TrashSubject(ctx context.Context, id Identity, subjectID string) (err error) {
	defer func() { s.metrics.observe("trash_subject", err) }()
	if err := s.setSubjectTrashed(ctx, id, subjectID, true); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id.UserID)
	return nil
}

// RestoreSubject brings a trashed subject back.
func (s *Service) RestoreSubject(ctx context.Context, id Identity, subjectID string) (err error) {
	defer func() { s.metrics.observe("restore_subject", err) }()
	if err := s.setSubjectTrashed(ctx, id, subjectID, false); err != nil {
		return err
	}
	// Invalidate only after the recount lands, or a read in between caches
	// the stale count.
	s.recount(ctx, id.UserID, subjectID)
	s.cache.Invalidate(ctx, id.UserID)
	return nil
}

func (s *Service) setSubjectTrashed(ctx context.Context, id Identity, subjectID string, trashed bool) error {
	rows, err := s.repo.Subjects.SetTrashed(ctx, id.UserID, subjectID, trashed, s.trashedAt(trashed))
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if rows == 0 {
		return notFoundError("subject", subjectID)
	}
	return nil
}

// PurgeFile permanently removes a file in any state. The blob goes first; when
// that fails the record is kept. Purging a missing file succeeds.
func (s *Service) PurgeFile(ctx context.Context, id Identity, fileID string) (err error) {
	defer func() { s.metrics.observe("purge_file", err) }()

	file, err := s.repo.Files.FindOwned(ctx, id.UserID, fileID)
	if err != nil {
		if errors.Is(fromRepo(err, "file", fileID), ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.purgeFile(ctx, file); err != nil {
		return err
	}
	s.recount(ctx, id.UserID, file.SubjectID)
	s.cache.Invalidate(ctx, id.UserID)
	return nil
}

func (s *Service) purgeFile(ctx context.Context, file *model.File) error {
	if err := s.store.Delete(ctx, file.StoragePath); err != nil {
		return storageError("delete", file.StoragePath, err)
	}
	if _, err := s.repo.Files.Delete(ctx, file.OwnerID, file.ID); err != nil {
		return fmt.Errorf("delete file %s: %w", file.ID, err)
	}
	log.Info().Uint64("owner", file.OwnerID).Str("file", file.ID).Msg("file purged")
	return nil
}

// PurgeSubject purges every attached file and then the subject. When any file
// fails the subject is kept and a *PartialFailureError names the files left.
// Purging a missing subject succeeds.
func (s *Service) PurgeSubject(ctx context.Context, id Identity, subjectID string) (err error) {
	defer func() { s.metrics.observe("purge_subject", err) }()

	if _, err := s.repo.Subjects.FindOwned(ctx, id.UserID, subjectID); err != nil {
		if errors.Is(fromRepo(err, "subject", subjectID), ErrNotFound) {
			return nil
		}
		return err
	}
	files, err := s.repo.Files.ListInSubject(ctx, id.UserID, subjectID)
	if err != nil {
		return fmt.Errorf("list subject files: %w", err)
	}
	defer s.cache.Invalidate(ctx, id.UserID)

	var pending []string
	var causes *multierror.Error
	for i := range files {
		if err := s.purgeFile(ctx, &files[i]); err != nil {
			pending = append(pending, files[i].ID)
			causes = multierror.Append(causes, fmt.Errorf("file %s: %w", files[i].ID, err))
		}
	}
	if len(pending) > 0 {
		s.recount(ctx, id.UserID, subjectID)
		s.metrics.pending(len(pending))
		log.Warn().Uint64("owner", id.UserID).Str("subject", subjectID).Int("pending", len(pending)).Msg("subject purge incomplete")
		return &PartialFailureError{SubjectID: subjectID, Pending: pending, Err: causes.ErrorOrNil()}
	}

	if _, err := s.repo.Subjects.Delete(ctx, id.UserID, subjectID); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	log.Info().Uint64("owner", id.UserID).Str("subject", subjectID).Int("files", len(files)).Msg("subject purged")
	return nil
}

// ToggleFavorite flips the favorite flag of an active file. The owner may
// toggle it, and so may anyone holding a share grant, in which case the
// owner's record changes.
func (s *Service) ToggleFavorite(ctx context.Context, id Identity, fileID string) (favorite bool, err error) {
	defer func() { s.metrics.observe("toggle_favorite", err) }()

	file, err := s.repo.Files.FindInState(ctx, id.UserID, fileID, false)
	if err != nil {
		if !errors.Is(fromRepo(err, "file", fileID), ErrNotFound) {
			return false, err
		}
		file, err = s.sharedFile(ctx, id, fileID)
		if err != nil {
			return false, err
		}
	}
	if _, err := s.repo.Files.SetFavorite(ctx, file.OwnerID, file.ID, !file.IsFavorite); err != nil {
		return false, fmt.Errorf("update file: %w", err)
	}
	s.cache.Invalidate(ctx, file.OwnerID)
	return !file.IsFavorite, nil
}

// FileURL returns a time-limited download URL for a file the caller owns or
// has been granted.
func (s *Service) FileURL(ctx context.Context, id Identity, fileID string) (url string, err error) {
	defer func() { s.metrics.observe("file_url", err) }()

	file, err := s.repo.Files.FindInState(ctx, id.UserID, fileID, false)
	if err != nil {
		if !errors.Is(fromRepo(err, "file", fileID), ErrNotFound) {
			return "", err
		}
		file, err = s.sharedFile(ctx, id, fileID)
		if err != nil {
			return "", err
		}
	}
	url, err = s.store.SignedURL(ctx, file.StoragePath, s.urlTTL)
	if err != nil {
		return "", storageError("sign", file.StoragePath, err)
	}
	return url, nil
}

// StorageUsage reports how many files and bytes the caller stores.
func (s *Service) StorageUsage(ctx context.Context, id Identity) (Usage, error) {
	files, bytes, err := s.repo.Files.Usage(ctx, id.UserID)
	if err != nil {
		return Usage{}, fmt.Errorf("storage usage: %w", err)
	}
	return Usage{Files: files, Bytes: bytes}, nil
}

// RecountAll rewrites every subject's file count and returns how many were visited.
func (s *Service) RecountAll(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	visited := 0
	err := s.repo.Subjects.EachBatch(ctx, batchSize, func(batch []model.Subject) error {
		for _, subject := range batch {
			if err := s.recomputeFileCount(ctx, subject.OwnerID, subject.ID); err != nil {
				return err
			}
			s.cache.Invalidate(ctx, subject.OwnerID)
			visited++
		}
		return nil
	})
	return visited, err
}

func (s *Service) trashedAt(trashed bool) *time.Time {
	if !trashed {
		return nil
	}
	now := s.now()
	return &now
}

// recomputeFileCount counts the subject's active files and writes the result
// back unconditionally, both in one transaction.
func (s *Service) recomputeFileCount(ctx context.Context, ownerID uint64, subjectID string) error {
	return s.repo.Transaction(ctx, func(tx *repo.Repository) error {
		count, err := tx.Files.CountActiveInSubject(ctx, ownerID, subjectID)
		if err != nil {
			return fmt.Errorf("count files of %s: %w", subjectID, err)
		}
		if err := tx.Subjects.SetFileCount(ctx, ownerID, subjectID, count); err != nil {
			return fmt.Errorf("write file count of %s: %w", subjectID, err)
		}
		return nil
	})
}

// recount runs after a committed transition. A failure only leaves a stale
// count that the next transition or RecountAll rewrites.
func (s *Service) recount(ctx context.Context, ownerID uint64, subjectID string) {
	if err := s.recomputeFileCount(ctx, ownerID, subjectID); err != nil {
		log.Warn().Err(err).Uint64("owner", ownerID).Str("subject", subjectID).Msg("file count recompute failed")
	}
}
