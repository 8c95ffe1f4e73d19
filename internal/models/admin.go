package models

import "time"

// AdminUser is the single administrator account.
type AdminUser struct {
	ID           int64     `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// RoleAdmin is the role claim carried by admin tokens.
const RoleAdmin = "admin"

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=100"`
	Password string `json:"password" form:"password" validate:"required,max=200"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=200"`
}
