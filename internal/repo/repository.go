package repo

import (
	"context"

	"gorm.io/gorm"
)

// Repository groups the table repositories that share one database handle.
type Repository struct {
	db       *gorm.DB
	Subjects *SubjectRepository
	Files    *FileRepository
	Shares   *ShareRepository
	Users    *UserRepository
}

// New builds repositories over an explicitly opened database handle.
func New(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		Subjects: NewSubjectRepository(db),
		Files:    NewFileRepository(db),
		Shares:   NewShareRepository(db),
		Users:    NewUserRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
