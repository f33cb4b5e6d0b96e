package dto

import "time"

// TokenPair is the issuance result shared by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// SessionResponse is the login payload: the token pair plus a public view of
// the authenticated user. Refresh returns a bare TokenPair.
type SessionResponse struct {
	TokenPair
	User UserOutput `json:"user"`
}

type SessionOutput struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsCurrent bool      `json:"is_current"`
}
