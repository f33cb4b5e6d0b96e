package dto

type LoginInput struct {
	Login     string `json:"login"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
