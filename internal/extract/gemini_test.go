package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractionJSON(t *testing.T) {
	out, err := ParseExtractionJSON(`{
		"certificate_id": "CERT-1",
		"student_name": " Ada Lovelace ",
		"date_of_birth": null,
		"course_name": "Analytical Engines",
		"issue_date": "2025-06-01",
		"organization": null
	}`)
	require.NoError(t, err)

	require.NotNil(t, out.CertificateID)
	assert.Equal(t, "CERT-1", *out.CertificateID)
	require.NotNil(t, out.StudentName)
	assert.Equal(t, "Ada Lovelace", *out.StudentName)
	assert.Nil(t, out.DateOfBirth)
	assert.Nil(t, out.Organization)
	require.NotNil(t, out.IssueDate)
	assert.Equal(t, "2025-06-01", *out.IssueDate)
}

func TestParseExtractionJSONAbsentKeysStayNil(t *testing.T) {
	out, err := ParseExtractionJSON(`{"student_name": "Bob"}`)
	require.NoError(t, err)
	assert.Nil(t, out.CertificateID)
	assert.Nil(t, out.CourseName)
	require.NotNil(t, out.StudentName)
}

func TestParseExtractionJSONCodeFences(t *testing.T) {
	out, err := ParseExtractionJSON("```json\n{\"certificate_id\": \"CERT-9\"}\n```")
	require.NoError(t, err)
	require.NotNil(t, out.CertificateID)
	assert.Equal(t, "CERT-9", *out.CertificateID)
}

func TestParseExtractionJSONSurroundingProse(t *testing.T) {
	out, err := ParseExtractionJSON(`Here is the data you asked for: {"student_name": "Ada"} hope that helps`)
	require.NoError(t, err)
	require.NotNil(t, out.StudentName)
	assert.Equal(t, "Ada", *out.StudentName)
}

func TestParseExtractionJSONGarbage(t *testing.T) {
	_, err := ParseExtractionJSON("I could not find any fields, sorry")
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, stripCodeFences(tc.in))
	}
}
