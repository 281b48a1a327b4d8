package model

import "time"

// ShareGrant gives one email address read visibility of one file.
type ShareGrant struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	FileID string `gorm:"column:file_id;size:36;not null;uniqueIndex:uk_share_file_email,priority:1" json:"file_id"`

	SharedByUserID  uint64 `gorm:"column:shared_by_user_id;not null;index" json:"shared_by_user_id"`
	SharedWithEmail string `gorm:"column:shared_with_email;size:255;not null;uniqueIndex:uk_share_file_email,priority:2;index" json:"shared_with_email"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (ShareGrant) TableName() string {
	return "share_grants"
}
