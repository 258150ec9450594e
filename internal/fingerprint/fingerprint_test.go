package fingerprint

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() Record {
	return Record{
		CertificateID: "CERT-2025-AB12CD34EF",
		StudentName:   "Ada Lovelace",
		DateOfBirth:   time.Date(1815, time.December, 10, 0, 0, 0, 0, time.UTC),
		CourseName:    "Analytical Engines",
		IssueDate:     time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Organization:  "Babbage Institute",
	}
}

func TestComputeDeterministic(t *testing.T) {
	first, err := Compute(validRecord(), "issuer@example.org")
	require.NoError(t, err)
	second, err := Compute(validRecord(), "issuer@example.org")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeEncoding(t *testing.T) {
	fp, err := Compute(validRecord(), "issuer@example.org")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), fp)
}

func TestComputeChangesWithAnyField(t *testing.T) {
	base, err := Compute(validRecord(), "issuer@example.org")
	require.NoError(t, err)

	mutations := map[string]func(*Record){
		"certificateId": func(r *Record) { r.CertificateID = "CERT-2025-XXXXXXXXXX" },
		"studentName":   func(r *Record) { r.StudentName = "Ada Lovelacf" },
		"dateOfBirth":   func(r *Record) { r.DateOfBirth = r.DateOfBirth.AddDate(0, 0, 1) },
		"courseName":    func(r *Record) { r.CourseName = "Difference Engines" },
		"issueDate":     func(r *Record) { r.IssueDate = r.IssueDate.AddDate(0, 0, 1) },
		"organization":  func(r *Record) { r.Organization = "Babbage Institute " },
	}
	for name, mutate := range mutations {
		rec := validRecord()
		mutate(&rec)
		fp, err := Compute(rec, "issuer@example.org")
		require.NoError(t, err, name)
		assert.NotEqual(t, base, fp, name)
	}

	fp, err := Compute(validRecord(), "other@example.org")
	require.NoError(t, err)
	assert.NotEqual(t, base, fp, "issuer identity")
}

func TestComputeIgnoresTimeOfDay(t *testing.T) {
	rec := validRecord()
	rec.IssueDate = time.Date(2025, time.June, 1, 23, 59, 0, 0, time.UTC)
	withTime, err := Compute(rec, "issuer@example.org")
	require.NoError(t, err)
	plain, err := Compute(validRecord(), "issuer@example.org")
	require.NoError(t, err)
	assert.Equal(t, plain, withTime)
}

func TestComputeRejectsIncompleteRecords(t *testing.T) {
	tests := map[string]func(*Record){
		"certificateId": func(r *Record) { r.CertificateID = "" },
		"studentName":   func(r *Record) { r.StudentName = "   " },
		"dateOfBirth":   func(r *Record) { r.DateOfBirth = time.Time{} },
		"courseName":    func(r *Record) { r.CourseName = "" },
		"issueDate":     func(r *Record) { r.IssueDate = time.Time{} },
		"organization":  func(r *Record) { r.Organization = "" },
	}
	for name, clear := range tests {
		rec := validRecord()
		clear(&rec)
		_, err := Compute(rec, "issuer@example.org")
		assert.ErrorIs(t, err, ErrInvalidRecord, name)
	}

	_, err := Compute(validRecord(), "")
	assert.ErrorIs(t, err, ErrInvalidRecord, "issuer identity")
}
