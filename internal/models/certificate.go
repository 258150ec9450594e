package models

import "time"

// Certificate is the canonical record of an issued certificate. Rows are
// written once at issuance and never updated; the fingerprint is computed
// over the fields below plus the issuer identity.
type Certificate struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CertificateID string    `gorm:"uniqueIndex;not null" json:"certificate_id"`
	StudentName   string    `gorm:"not null" json:"student_name"`
	DateOfBirth   time.Time `gorm:"not null" json:"date_of_birth"`
	CourseName    string    `gorm:"not null" json:"course_name"`
	IssueDate     time.Time `gorm:"not null" json:"issue_date"`
	Organization  string    `gorm:"not null" json:"organization"`
	IssuedBy      uint      `gorm:"index;not null" json:"issued_by"`
	Issuer        User      `gorm:"foreignKey:IssuedBy" json:"-"`
	Fingerprint   string    `gorm:"not null" json:"fingerprint"`
	// Extra placeholder values rendered into the document beyond the
	// standard fields, keyed by token name without braces.
	Metadata  map[string]string `gorm:"serializer:json" json:"metadata"`
	FileURL   string            `json:"file_url"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// AnchorTransaction records an optional on-chain anchoring of a fingerprint.
type AnchorTransaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CertificateID string    `gorm:"index;not null" json:"certificate_id"`
	Signature     string    `gorm:"not null" json:"signature"`
	SignerAddress string    `json:"signer_address"`
	TxHash        string    `json:"tx_hash"`
	CreatedAt     time.Time `json:"created_at"`
}
