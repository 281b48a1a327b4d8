package model

import "time"

type User struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Email string `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`

	Password string `gorm:"column:pass_word;type:varchar(255);not null" json:"-"`

	DisplayName string `gorm:"column:display_name;type:varchar(80);not null;default:''" json:"display_name"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}
