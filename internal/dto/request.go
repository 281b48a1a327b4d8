package dto

type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateSubjectRequest struct {
	Name     string `json:"name" binding:"required"`
	Color    string `json:"color"`
	ImageURL string `json:"image_url"`
}

// UpdateSubjectRequest leaves absent fields untouched.
type UpdateSubjectRequest struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	ImageURL *string `json:"image_url"`
}

type ShareFileRequest struct {
	Email string `json:"email" binding:"required"`
}
