package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is an account that owns notes and reminders.
type User struct {
	ID           bson.ObjectID `json:"id" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd0"`
	Email        string        `json:"email" example:"test@example.com"`
	PasswordHash string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at" example:"2025-06-01T23:00:26.005Z"`
	UpdatedAt    time.Time     `json:"updated_at" example:"2025-06-01T23:00:26.005Z"`
}

// SignUpRequest represents a user registration request
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email" example:"test@example.com"`
	Password string `json:"password" validate:"required,password" example:"Password123"`
}

// SignInRequest represents a user login request
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email" example:"test@example.com"`
	Password string `json:"password" validate:"required" example:"Password123"`
}

// ChangePasswordRequest replaces the password of the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required" example:"Password123"`
	NewPassword     string `json:"new_password" validate:"required,password" example:"Password456"`
}

// AuthResponse represents the response for successful authentication
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string `json:"token_type" example:"Bearer"`
	ExpiresIn   int    `json:"expires_in" example:"3600"`
}
