package models

import "strings"

const (
	TokenTypeBearer = "bearer"

	// Form fields expected by the token endpoint
	FormFieldUsername = "username"
	FormFieldPassword = "password"
)

// Token is returned by the token endpoint after a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (t *Token) IsBearer() bool {
	return len(t.TokenType) == 0 || strings.EqualFold(t.TokenType, TokenTypeBearer)
}

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) AsForm() map[string]string {
	return map[string]string{
		FormFieldUsername: c.Username,
		FormFieldPassword: c.Password,
	}
}

// VerifyResponse is returned by the token verification endpoint.
type VerifyResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username,omitempty"`
	UserID   int    `json:"user_id,omitempty"`
}
