package match

import (
	"math"
	"strings"
	"time"

	"certforge/internal/models"
)

// DefaultThreshold is the match percentage at or above which a certificate is
// considered verified.
const DefaultThreshold = 70

// Extracted is the noisy, partial record produced by the extraction
// collaborator from a submitted image. Nil means the field was not extracted
// at all, which is distinct from an extracted empty string.
type Extracted struct {
	CertificateID *string `json:"certificate_id"`
	StudentName   *string `json:"student_name"`
	DateOfBirth   *string `json:"date_of_birth"`
	CourseName    *string `json:"course_name"`
	IssueDate     *string `json:"issue_date"`
	Organization  *string `json:"organization"`
	// Extra carries any additional labeled values the extractor surfaced,
	// compared against the certificate's metadata.
	Extra map[string]string `json:"extra,omitempty"`
}

// Result is the outcome of scoring an extracted record against a canonical
// one. Absent fields are neutral: they appear in neither the numerator nor
// the denominator.
type Result struct {
	MatchedFields   map[string]bool `json:"matchedFields"`
	MatchPercentage int             `json:"matchPercentage"`
	Verified        bool            `json:"verified"`
}

// Matcher scores extracted records. The zero value is not usable; call New.
type Matcher struct {
	// Threshold is the verification cutoff. Kept tunable, but 70 is the
	// policy default and everything in this service uses it.
	Threshold int
}

func New() Matcher {
	return Matcher{Threshold: DefaultThreshold}
}

// Match normalizes and compares every extracted field against the canonical
// record and renders the verified/not-verified decision. Pure computation;
// it never errors — missing or mismatched data degrades the score instead.
func (m Matcher) Match(ex Extracted, cert models.Certificate) Result {
	matched := map[string]bool{}

	if ex.CertificateID != nil {
		matched["certificateId"] = normalize(*ex.CertificateID) == normalize(cert.CertificateID)
	}
	if ex.StudentName != nil {
		matched["studentName"] = containsEither(*ex.StudentName, cert.StudentName)
	}
	if ex.DateOfBirth != nil {
		matched["dateOfBirth"] = sameDay(*ex.DateOfBirth, cert.DateOfBirth)
	}
	if ex.CourseName != nil {
		matched["courseName"] = containsEither(*ex.CourseName, cert.CourseName)
	}
	if ex.IssueDate != nil {
		matched["issueDate"] = sameDay(*ex.IssueDate, cert.IssueDate)
	}
	if ex.Organization != nil {
		matched["organization"] = containsEither(*ex.Organization, cert.Organization)
	}
	for key, val := range ex.Extra {
		canon, ok := cert.Metadata[key]
		if !ok {
			continue
		}
		matched[key] = containsEither(val, canon)
	}

	considered := len(matched)
	hits := 0
	for _, ok := range matched {
		if ok {
			hits++
		}
	}
	pct := 0
	if considered > 0 {
		pct = int(math.Round(100 * float64(hits) / float64(considered)))
	}
	return Result{
		MatchedFields:   matched,
		MatchPercentage: pct,
		Verified:        considered > 0 && pct >= m.Threshold,
	}
}

// normalize trims, case-folds and collapses inner whitespace runs, absorbing
// the casing/spacing noise OCR introduces.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// containsEither applies the free-text policy: after normalization one string
// must contain the other. Tolerates partial extraction and honorifics around
// the canonical value. An extracted empty string never matches, since the
// canonical side is non-empty by invariant.
func containsEither(extracted, canonical string) bool {
	e, c := normalize(extracted), normalize(canonical)
	if e == "" {
		return false
	}
	return strings.Contains(e, c) || strings.Contains(c, e)
}

// dateLayouts are tried in order when parsing extracted date text. Day-first
// is preferred for slash and dash forms, matching how the rendered
// certificates spell dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sameDay compares calendar dates only, discarding any time or zone the
// extracted text or stored value carries.
func sameDay(extracted string, canonical time.Time) bool {
	t, ok := parseDate(extracted)
	if !ok {
		return false
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := canonical.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
