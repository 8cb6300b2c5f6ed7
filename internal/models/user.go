package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultProfilePicture is used until the user uploads their own.
const DefaultProfilePicture = "https://via.placeholder.com/150"

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:30;uniqueIndex"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	Password       string    `json:"-"` // bcrypt hash, never serialized
	Bio            string    `json:"bio" gorm:"size:150"`
	ProfilePicture string    `json:"profilePicture"`
	FirebaseUID    *string   `json:"-" gorm:"uniqueIndex"` // set only for Firebase-linked accounts
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserCompact is the trimmed author payload embedded in enriched responses.
type UserCompact struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Username       string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Bio            string `json:"bio,omitempty" validate:"omitempty,max=150"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
