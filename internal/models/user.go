package models

type User struct {
	ID              int       `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	DefaultCurrency string    `json:"default_currency,omitempty"`
	CreatedAt       Timestamp `json:"created_at"`
}

func (u *User) GetName() string {
	if len(u.Username) > 0 {
		return u.Username
	} else if len(u.Email) > 0 {
		return u.Email
	}
	return "Unknown"
}

// Registration is the payload sent to the register endpoint.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	DefaultCurrency string `json:"default_currency,omitempty"`
}
