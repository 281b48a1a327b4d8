package repo

import (
	"StudyVault/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	db *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) Create(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

// FindOwned returns the subject regardless of its trash state.
func (r *SubjectRepository) FindOwned(ctx context.Context, ownerID uint64, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&subject).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &subject, nil
}

// FindInState returns the subject only when its trash flag equals trashed.
func (r *SubjectRepository) FindInState(ctx context.Context, ownerID uint64, id string, trashed bool) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND is_trashed = ?", id, ownerID, trashed).
		First(&subject).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &subject, nil
}

// SetTrashed flips the trash flag on a row currently in the opposite state and
// returns the number of rows changed.
func (r *SubjectRepository) SetTrashed(ctx context.Context, ownerID uint64, id string, trashed bool, at *time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Subject{}).
		Where("id = ? AND owner_id = ? AND is_trashed = ?", id, ownerID, !trashed).
		Updates(map[string]interface{}{
			"is_trashed": trashed,
			"trashed_at": at,
		})
	return res.RowsAffected, res.Error
}

// UpdateActive applies fields to an active subject.
func (r *SubjectRepository) UpdateActive(ctx context.Context, ownerID uint64, id string, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Subject{}).
		Where("id = ? AND owner_id = ? AND is_trashed = ?", id, ownerID, false).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// SetFileCount writes the recomputed aggregate back unconditionally.
func (r *SubjectRepository) SetFileCount(ctx context.Context, ownerID uint64, id string, count int64) error {
	return r.db.WithContext(ctx).Model(&model.Subject{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		UpdateColumn("file_count", count).Error
}

func (r *SubjectRepository) Delete(ctx context.Context, ownerID uint64, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Subject{})
	return res.RowsAffected, res.Error
}

// ListActive lists non-trashed subjects, newest first.
func (r *SubjectRepository) ListActive(ctx context.Context, ownerID uint64) ([]model.Subject, error) {
	subjects := make([]model.Subject, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_trashed = ?", ownerID, false).
		Order("created_at DESC").
		Find(&subjects).Error
	return subjects, err
}

// ListTrashed lists trashed subjects, most recently trashed first.
func (r *SubjectRepository) ListTrashed(ctx context.Context, ownerID uint64) ([]model.Subject, error) {
	subjects := make([]model.Subject, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_trashed = ?", ownerID, true).
		Order("trashed_at DESC").
		Find(&subjects).Error
	return subjects, err
}

// EachBatch walks every subject of every owner in id order.
func (r *SubjectRepository) EachBatch(ctx context.Context, size int, fn func([]model.Subject) error) error {
	var batch []model.Subject
	res := r.db.WithContext(ctx).Order("id").FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	})
	return res.Error
}
