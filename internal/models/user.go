package models

import (
	"time"
)

// Principal is the identity attached to a request by the token verifiers.
// Name and Email are only known for federated ID tokens.
type Principal struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Profile is the public profile kept for every user seen by the service
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
