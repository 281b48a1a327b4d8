package dto

import "StudyVault/model"

// LoginResponse carries the bearer token for later requests.
type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type FavoriteResponse struct {
	FileID     string `json:"file_id"`
	IsFavorite bool   `json:"is_favorite"`
}

type FileURLResponse struct {
	FileID string `json:"file_id"`
	URL    string `json:"url"`
}

// PurgePendingResponse lists the files a partial subject purge left behind.
type PurgePendingResponse struct {
	SubjectID string   `json:"subject_id"`
	Pending   []string `json:"pending"`
}
