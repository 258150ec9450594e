package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleIssuer   = "issuer"
	RoleVerifier = "verifier"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Role         string `gorm:"not null;default:'verifier'" json:"role"`
	// Issuer accounts must be approved by an admin before they can issue.
	IsApproved bool      `gorm:"default:false" json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
