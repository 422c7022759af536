package dto

import "time"

// RequestCodeRequest payload.
type RequestCodeRequest struct {
	Phone string `json:"phone"`
}

// LoginRequest payload.
type LoginRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// AuthResponse carries the issued session token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
