package model

import "time"

type File struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	OwnerID   uint64 `gorm:"column:owner_id;not null;index:idx_file_owner_trashed,priority:1" json:"owner_id"`
	SubjectID string `gorm:"column:subject_id;size:36;not null;index" json:"subject_id"`

	Name string `gorm:"column:name;size:255;not null" json:"name"`
	Size int64  `gorm:"column:size;not null;default:0" json:"size"`
	Type string `gorm:"column:type;size:128;not null;default:''" json:"type"`

	// StoragePath is written once at creation and never updated.
	StoragePath string `gorm:"column:storage_path;size:512;not null;<-:create" json:"storage_path"`

	IsFavorite bool       `gorm:"column:is_favorite;not null;default:false" json:"is_favorite"`
	IsTrashed  bool       `gorm:"column:is_trashed;not null;default:false;index:idx_file_owner_trashed,priority:2" json:"is_trashed"`
	TrashedAt  *time.Time `gorm:"column:trashed_at" json:"trashed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	IsShared bool `gorm:"-" json:"is_shared,omitempty"`
}

// TableName returns the database table name.
func (File) TableName() string {
	return "files"
}
