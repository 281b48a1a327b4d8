package repo

import (
	"StudyVault/model"
	"context"

	"gorm.io/gorm"
)

type ShareRepository struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

// Create inserts a grant. A second grant for the same (file, email) pair
// returns ErrDuplicate.
func (r *ShareRepository) Create(ctx context.Context, grant *model.ShareGrant) error {
	err := r.db.WithContext(ctx).Create(grant).Error
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *ShareRepository) Exists(ctx context.Context, fileID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ShareGrant{}).
		Where("file_id = ? AND shared_with_email = ?", fileID, email).
		Count(&count).Error
	return count > 0, err
}

// FileIDsForEmail returns the ids of every file granted to email.
func (r *ShareRepository) FileIDsForEmail(ctx context.Context, email string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&model.ShareGrant{}).
		Where("shared_with_email = ?", email).
		Distinct().
		Pluck("file_id", &ids).Error
	return ids, err
}
