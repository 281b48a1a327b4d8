package repo

import (
	"StudyVault/model"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *model.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// FindOwned returns the file regardless of its trash state.
func (r *FileRepository) FindOwned(ctx context.Context, ownerID uint64, id string) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&file).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}

// FindInState returns the file only when its trash flag equals trashed.
func (r *FileRepository) FindInState(ctx context.Context, ownerID uint64, id string, trashed bool) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND is_trashed = ?", id, ownerID, trashed).
		First(&file).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}

// FindActive looks up an active file by id alone. Only share resolution uses it.
func (r *FileRepository) FindActive(ctx context.Context, id string) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_trashed = ?", id, false).
		First(&file).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}

// SetTrashed flips the trash flag on a row currently in the opposite state.
func (r *FileRepository) SetTrashed(ctx context.Context, ownerID uint64, id string, trashed bool, at *time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.File{}).
		Where("id = ? AND owner_id = ? AND is_trashed = ?", id, ownerID, !trashed).
		Updates(map[string]interface{}{
			"is_trashed": trashed,
			"trashed_at": at,
		})
	return res.RowsAffected, res.Error
}

// SetFavorite writes the favorite flag on an active file of ownerID.
func (r *FileRepository) SetFavorite(ctx context.Context, ownerID uint64, id string, favorite bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.File{}).
		Where("id = ? AND owner_id = ? AND is_trashed = ?", id, ownerID, false).
		Update("is_favorite", favorite)
	return res.RowsAffected, res.Error
}

func (r *FileRepository) Delete(ctx context.Context, ownerID uint64, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.File{})
	return res.RowsAffected, res.Error
}

// CountActiveInSubject counts the files that make up a subject's file count.
func (r *FileRepository) CountActiveInSubject(ctx context.Context, ownerID uint64, subjectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.File{}).
		Where("subject_id = ? AND owner_id = ? AND is_trashed = ?", subjectID, ownerID, false).
		Count(&count).Error
	return count, err
}

// ExistsByStoragePath reports whether any record, in any state, points at path.
func (r *FileRepository) ExistsByStoragePath(ctx context.Context, path string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.File{}).
		Where("storage_path = ?", path).
		Count(&count).Error
	return count > 0, err
}

// ListInSubject lists every file attached to a subject, trashed ones included.
func (r *FileRepository) ListInSubject(ctx context.Context, ownerID uint64, subjectID string) ([]model.File, error) {
	files := make([]model.File, 0)
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND owner_id = ?", subjectID, ownerID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

// ListActiveInSubject lists non-trashed files of a subject, newest first.
func (r *FileRepository) ListActiveInSubject(ctx context.Context, ownerID uint64, subjectID string) ([]model.File, error) {
	files := make([]model.File, 0)
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND owner_id = ? AND is_trashed = ?", subjectID, ownerID, false).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

// visible restricts to active files whose subject is not trashed. Files whose
// subject no longer exists stay visible.
func (r *FileRepository) visible(ctx context.Context, ownerID uint64) *gorm.DB {
	trashedSubjects := r.db.Model(&model.Subject{}).
		Select("id").
		Where("owner_id = ? AND is_trashed = ?", ownerID, true)
	return r.db.WithContext(ctx).Model(&model.File{}).
		Where("owner_id = ? AND is_trashed = ?", ownerID, false).
		Where("subject_id NOT IN (?)", trashedSubjects)
}

// ListFavorites lists visible favorite files, newest first.
func (r *FileRepository) ListFavorites(ctx context.Context, ownerID uint64) ([]model.File, error) {
	files := make([]model.File, 0)
	err := r.visible(ctx, ownerID).
		Where("is_favorite = ?", true).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

// Search matches visible files whose name contains query, case-insensitively.
func (r *FileRepository) Search(ctx context.Context, ownerID uint64, query string) ([]model.File, error) {
	files := make([]model.File, 0)
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := r.visible(ctx, ownerID).
		Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

// ListTrashed lists trashed files, most recently trashed first.
func (r *FileRepository) ListTrashed(ctx context.Context, ownerID uint64) ([]model.File, error) {
	files := make([]model.File, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_trashed = ?", ownerID, true).
		Order("trashed_at DESC").
		Find(&files).Error
	return files, err
}

// ListActiveByIDs fetches the active files among ids, across owners.
func (r *FileRepository) ListActiveByIDs(ctx context.Context, ids []string) ([]model.File, error) {
	files := make([]model.File, 0)
	if len(ids) == 0 {
		return files, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_trashed = ?", ids, false).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

// Usage sums the size of every stored file of ownerID, trashed ones included.
func (r *FileRepository) Usage(ctx context.Context, ownerID uint64) (files int64, bytes int64, err error) {
	var row struct {
		Files int64
		Bytes int64
	}
	err = r.db.WithContext(ctx).Model(&model.File{}).
		Select("COUNT(*) AS files, COALESCE(SUM(size), 0) AS bytes").
		Where("owner_id = ?", ownerID).
		Scan(&row).Error
	return row.Files, row.Bytes, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
