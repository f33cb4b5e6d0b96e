package dto

type UpdateProfileInput struct {
	DisplayName string `json:"display_name"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	IPAddress       string `json:"-"`
	UserAgent       string `json:"-"`
}
