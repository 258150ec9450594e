package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"certforge/internal/match"
)

// GeminiExtractor OCRs the image with Google Vision and asks Gemini to pull
// the certificate fields out of the raw text as JSON.
type GeminiExtractor struct {
	Model string
}

func NewGeminiExtractor() *GeminiExtractor {
	return &GeminiExtractor{Model: "gemini-2.0-flash-lite"}
}

const extractPrompt = `You are an expert data extraction assistant. Your job is to extract specific fields from the following raw text of a course certificate and return the data in a clean JSON format.

Here are the rules:
1. The required fields are: "certificate_id", "student_name", "date_of_birth", "course_name", "issue_date", and "organization".
2. If a field cannot be found in the text, its value in the JSON must be null.
3. Format any date you find as YYYY-MM-DD.
4. Your entire response must be ONLY the JSON object. Do not include any explanations, apologies, or any text before or after the JSON.
5. Clean the extracted data by removing any unnecessary newline characters or extra whitespace.

Here is the raw text:
"""
[INSERT RAW OCR TEXT HERE]
"""`

func (g *GeminiExtractor) Extract(ctx context.Context, image []byte) (match.Extracted, error) {
	var out match.Extracted

	raw, err := ocrImage(ctx, image)
	if err != nil {
		return out, err
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if strings.TrimSpace(apiKey) == "" {
		return out, errors.New("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return out, fmt.Errorf("failed to init Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	// Ask Gemini to return JSON only
	model.GenerationConfig = genai.GenerationConfig{ResponseMIMEType: "application/json"}

	prompt := strings.Replace(extractPrompt, "[INSERT RAW OCR TEXT HERE]", raw, 1)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return out, fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return out, errors.New("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		} else {
			sb.WriteString(fmt.Sprint(part))
		}
	}
	jsonStr := strings.TrimSpace(sb.String())
	if jsonStr == "" {
		return out, errors.New("no text in Gemini response")
	}
	return ParseExtractionJSON(jsonStr)
}

// ParseExtractionJSON decodes the model's response into an Extracted record,
// tolerating code fences, surrounding prose and null fields.
func ParseExtractionJSON(jsonStr string) (match.Extracted, error) {
	var out match.Extracted

	jsonStr = stripCodeFences(jsonStr)
	if candidate, ok := extractFirstJSON(jsonStr); ok {
		jsonStr = candidate
	}

	// Unmarshal into a map first so null and absent keys stay nil fields.
	var tmp map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &tmp); err != nil {
		return out, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}
	get := func(k string) *string {
		v, ok := tmp[k]
		if !ok || v == nil {
			return nil
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		default:
			b, _ := json.Marshal(t)
			s = strings.TrimSpace(string(b))
		}
		return &s
	}

	out.CertificateID = get("certificate_id")
	out.StudentName = get("student_name")
	out.DateOfBirth = get("date_of_birth")
	out.CourseName = get("course_name")
	out.IssueDate = get("issue_date")
	out.Organization = get("organization")
	return out, nil
}

// stripCodeFences removes surrounding Markdown code fences like ```json ... ```.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
		// remove a possible language tag at the start of the fence
		if i := strings.IndexByte(s, '\n'); i != -1 {
			first := strings.TrimSpace(s[:i])
			if len(first) > 0 && len(first) < 20 { // likely a language tag like json
				s = s[i+1:]
			}
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// extractFirstJSON attempts to extract the first balanced JSON object or array.
func extractFirstJSON(s string) (string, bool) {
	if obj, ok := extractBalanced(s, '{', '}'); ok {
		return obj, true
	}
	if arr, ok := extractBalanced(s, '[', ']'); ok {
		return arr, true
	}
	return "", false
}

func extractBalanced(s string, open, close rune) (string, bool) {
	start := -1
	depth := 0
	for i, r := range s {
		if r == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if r == close {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
