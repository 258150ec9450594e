package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"certforge/internal/models"
)

func strptr(s string) *string { return &s }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func canonical() models.Certificate {
	return models.Certificate{
		CertificateID: "CERT-1",
		StudentName:   "Ada Lovelace",
		DateOfBirth:   day(1815, time.December, 10),
		CourseName:    "Analytical Engines",
		IssueDate:     day(2025, time.June, 1),
		Organization:  "Babbage Institute",
	}
}

func TestMatchFullMatch(t *testing.T) {
	res := New().Match(Extracted{
		StudentName:   strptr("ada lovelace"),
		CourseName:    strptr("Analytical Engines"),
		CertificateID: strptr("CERT-1"),
	}, canonical())

	assert.Equal(t, 100, res.MatchPercentage)
	assert.True(t, res.Verified)
	assert.Equal(t, map[string]bool{
		"studentName":   true,
		"courseName":    true,
		"certificateId": true,
	}, res.MatchedFields)
}

func TestMatchPartialBelowThreshold(t *testing.T) {
	res := New().Match(Extracted{
		StudentName: strptr("Bob"),
		CourseName:  strptr("Unrelated Topic"),
	}, canonical())

	assert.Equal(t, 0, res.MatchPercentage)
	assert.False(t, res.Verified)
}

func TestMatchAbsenceIsNeutral(t *testing.T) {
	res := New().Match(Extracted{CertificateID: strptr("CERT-1")}, canonical())

	assert.Len(t, res.MatchedFields, 1)
	assert.Equal(t, 100, res.MatchPercentage)
	assert.True(t, res.Verified)
}

func TestMatchNothingExtracted(t *testing.T) {
	res := New().Match(Extracted{}, canonical())

	assert.Equal(t, 0, res.MatchPercentage)
	assert.False(t, res.Verified)
	assert.Empty(t, res.MatchedFields)
}

func TestMatchThresholdBoundary(t *testing.T) {
	cert := canonical()
	cert.Metadata = map[string]string{
		"GRADE":    "A",
		"DURATION": "12 weeks",
		"MENTOR":   "Charles Babbage",
		"TRACK":    "Mathematics",
	}

	// 10 considered fields, 7 matching: the 6 standard plus GRADE match,
	// the other three extras do not.
	ex := Extracted{
		CertificateID: strptr("CERT-1"),
		StudentName:   strptr("Ada Lovelace"),
		DateOfBirth:   strptr("1815-12-10"),
		CourseName:    strptr("Analytical Engines"),
		IssueDate:     strptr("2025-06-01"),
		Organization:  strptr("Babbage Institute"),
		Extra: map[string]string{
			"GRADE":    "A",
			"DURATION": "6 months",
			"MENTOR":   "Unknown",
			"TRACK":    "History",
		},
	}
	res := New().Match(ex, cert)
	assert.Equal(t, 70, res.MatchPercentage)
	assert.True(t, res.Verified)

	// Drop one matching field to 6/10 and verification fails.
	ex.Extra["GRADE"] = "F"
	res = New().Match(ex, cert)
	assert.Equal(t, 60, res.MatchPercentage)
	assert.False(t, res.Verified)
}

func TestMatchContainment(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		canonical string
		want      bool
	}{
		{"exact", "Ada Lovelace", "Ada Lovelace", true},
		{"case and spacing noise", "  ADA   LOVELACE ", "Ada Lovelace", true},
		{"extracted contains canonical", "Ms. Ada Lovelace, Esq.", "Ada Lovelace", true},
		{"canonical contains extracted", "Lovelace", "Ada Lovelace", true},
		{"unrelated", "Grace Hopper", "Ada Lovelace", false},
		{"empty extracted never matches", "", "Ada Lovelace", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, containsEither(tc.extracted, tc.canonical))
		})
	}
}

func TestMatchEmptyStringIsConsideredNotNeutral(t *testing.T) {
	res := New().Match(Extracted{
		CertificateID: strptr("CERT-1"),
		StudentName:   strptr(""),
	}, canonical())

	assert.Len(t, res.MatchedFields, 2)
	assert.False(t, res.MatchedFields["studentName"])
	assert.Equal(t, 50, res.MatchPercentage)
}

func TestMatchDates(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"iso", "2025-06-01", true},
		{"rfc3339 discards time", "2025-06-01T15:04:05Z", true},
		{"long form", "June 1, 2025", true},
		{"day first", "1 June 2025", true},
		{"slash day first", "01/06/2025", true},
		{"wrong day", "2025-06-02", false},
		{"unparseable", "sometime in June", false},
	}
	cert := canonical()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := New().Match(Extracted{IssueDate: strptr(tc.in)}, cert)
			assert.Equal(t, tc.want, res.MatchedFields["issueDate"])
		})
	}
}

func TestMatchExtraFieldUnknownKeyIgnored(t *testing.T) {
	res := New().Match(Extracted{
		CertificateID: strptr("CERT-1"),
		Extra:         map[string]string{"NOT_ON_CERT": "x"},
	}, canonical())

	assert.Len(t, res.MatchedFields, 1)
	assert.Equal(t, 100, res.MatchPercentage)
}

func TestMatchCustomThreshold(t *testing.T) {
	m := Matcher{Threshold: 50}
	res := m.Match(Extracted{
		CertificateID: strptr("CERT-1"),
		StudentName:   strptr("Grace Hopper"),
	}, canonical())

	assert.Equal(t, 50, res.MatchPercentage)
	assert.True(t, res.Verified)
}
