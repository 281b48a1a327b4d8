package model

import "time"

type Subject struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	OwnerID uint64 `gorm:"column:owner_id;not null;index:idx_subject_owner_trashed,priority:1" json:"owner_id"`

	Name     string `gorm:"column:name;size:255;not null" json:"name"`
	Color    string `gorm:"column:color;size:64;not null" json:"color"`
	ImageURL string `gorm:"column:image_url;size:1024;not null;default:''" json:"image_url,omitempty"`

	// FileCount is denormalized and always rewritten from a count of active files.
	FileCount int64 `gorm:"column:file_count;not null;default:0" json:"file_count"`

	IsTrashed bool       `gorm:"column:is_trashed;not null;default:false;index:idx_subject_owner_trashed,priority:2" json:"is_trashed"`
	TrashedAt *time.Time `gorm:"column:trashed_at" json:"trashed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Subject) TableName() string {
	return "subjects"
}
