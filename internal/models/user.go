package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// Role decides what a user may do in the admin console
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	FullName          string         `json:"full_name"`
	Email             string         `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password          string         `json:"-"`                        // Store hashed password, ignore for JSON serialization
	Role              Role           `json:"role" gorm:"size:10;default:USER"`
	Bio               string         `json:"bio,omitempty"`
	Website           string         `json:"website,omitempty"`
	ProfileImageURL   string         `json:"profile_image_url,omitempty"`
	FirebaseUID       *string        `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID, nil for local accounts
	FollowersCount    int            `json:"followers_count" gorm:"default:0"`
	FollowingCount    int            `json:"following_count" gorm:"default:0"`
	LastProfileEditAt *time.Time     `json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"-"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserCompact is the public author shape attached to blogs, comments and notifications
type UserCompact struct {
	ID              uint   `json:"id"`
	FullName        string `json:"full_name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// ToCompact converts a user to its public representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, FullName: u.FullName, ProfileImageURL: u.ProfileImageURL}
}

type CreateLocalUserRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	FullName        string `json:"full_name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio             string `json:"bio,omitempty" validate:"omitempty,max=300"`
	Website         string `json:"website,omitempty" validate:"omitempty,url"`
	ProfileImageURL string `json:"profile_image_url,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
