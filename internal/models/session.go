package models

import "time"

// TokenRecord is the token as persisted on the users local system
type TokenRecord struct {
	Version   string    `json:"version" yaml:"version"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Token     string    `json:"token,omitempty" yaml:"token,omitempty"`
}

func NewTokenRecord(token string) TokenRecord {
	return TokenRecord{
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Token:     token,
	}
}

func (r *TokenRecord) IsEmpty() bool {
	return len(r.Token) == 0
}
