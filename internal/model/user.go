package model

import "time"

// User is a quiz taker. Industry and Skills steer question generation.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Industry     string    `json:"industry"`
	Skills       []string  `json:"skills"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateUserRequest is the input accepted by the create-user CLI.
type CreateUserRequest struct {
	Name     string   `json:"name" binding:"required,nonblank,max=255"`
	Email    string   `json:"email" binding:"required,email,max=255"`
	Password string   `json:"password" binding:"required,min=6,max=128"`
	Industry string   `json:"industry" binding:"required,nonblank,max=100"`
	Skills   []string `json:"skills" binding:"max=20,dive,max=50"`
}
