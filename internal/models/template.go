package models

import "time"

// Template is an uploaded PPTX deck with {TOKEN} placeholders. The document
// payload is stored as-is; rendering never mutates it. At most one template
// is active at a time (enforced by the activation transaction, not here).
type Template struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Data         []byte    `gorm:"type:bytea;not null" json:"-"`
	Placeholders []string  `gorm:"serializer:json" json:"placeholders"`
	IsActive     bool      `gorm:"default:false;index" json:"is_active"`
	UploadedBy   uint      `gorm:"index" json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
