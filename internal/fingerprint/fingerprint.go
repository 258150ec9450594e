package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrInvalidRecord is returned when a required field is empty. The caller is
// expected to supply complete data; this is never retried.
var ErrInvalidRecord = errors.New("fingerprint: record is missing required fields")

// Record holds the canonical fields a fingerprint is derived from.
type Record struct {
	CertificateID string
	StudentName   string
	DateOfBirth   time.Time
	CourseName    string
	IssueDate     time.Time
	Organization  string
}

// Field values are joined with the unit separator control byte, which cannot
// appear in any field, so distinct records can never concatenate to the same
// pre-image.
const sep = "\x1f"

const dateLayout = "2006-01-02"

// Compute derives the deterministic SHA-256 fingerprint of a record issued by
// the given identity. Same inputs always yield the same 64-char lowercase hex
// string; any single-field change yields a different one.
func Compute(rec Record, issuerIdentity string) (string, error) {
	if err := validate(rec, issuerIdentity); err != nil {
		return "", err
	}
	parts := []string{
		rec.CertificateID,
		rec.StudentName,
		rec.DateOfBirth.Format(dateLayout),
		rec.CourseName,
		rec.IssueDate.Format(dateLayout),
		rec.Organization,
		issuerIdentity,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, sep)))
	return hex.EncodeToString(sum[:]), nil
}

func validate(rec Record, issuerIdentity string) error {
	switch {
	case strings.TrimSpace(rec.CertificateID) == "",
		strings.TrimSpace(rec.StudentName) == "",
		rec.DateOfBirth.IsZero(),
		strings.TrimSpace(rec.CourseName) == "",
		rec.IssueDate.IsZero(),
		strings.TrimSpace(rec.Organization) == "",
		strings.TrimSpace(issuerIdentity) == "":
		return ErrInvalidRecord
	}
	return nil
}
