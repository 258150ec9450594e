package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"certforge/internal/db"
	"certforge/internal/match"
	"certforge/internal/middleware"
	"certforge/internal/models"
)

const verifyCacheTTL = time.Hour

// VerifyDocument scores an uploaded certificate image against the issuance
// record: OCR + LLM extraction, record lookup, then the field matcher.
// POST /api/verify, multipart/form-data with file field "certificate"
func VerifyDocument(w http.ResponseWriter, r *http.Request) {
	// Limit body to 10MB
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "failed to parse form or file too large"})
		return
	}
	file, _, err := formFileTolerant(r, "certificate", "file", "upload", "image", "document", "cert")
	if err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "missing file field 'certificate' (send multipart/form-data with field name 'certificate')"})
		return
	}
	defer file.Close()

	imgBytes, err := io.ReadAll(file)
	if err != nil || len(imgBytes) == 0 {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "failed to read uploaded file"})
		return
	}

	// OCR + extraction are the expensive part; identical uploads are served
	// from cache.
	sum := sha256.Sum256(imgBytes)
	cacheKey := "verify:" + hex.EncodeToString(sum[:])
	if cache != nil {
		if cached, err := cache.Get(r.Context(), cacheKey).Result(); err == nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(cached))
			return
		}
	}

	if extractor == nil {
		writeJSONResp(w, http.StatusServiceUnavailable, map[string]any{"status": "Server_Error", "message": "extraction service not configured"})
		return
	}
	extracted, err := extractor.Extract(r.Context(), imgBytes)
	if err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": err.Error()})
		return
	}

	cert, found, err := lookupCertificate(extracted)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "database error"})
		return
	}
	if !found {
		middleware.VerificationsTotal.WithLabelValues("not_found").Inc()
		// misses are not cached: a certificate issued after a failed scan
		// must verify on retry with the same upload
		respondVerify(r, w, "", map[string]any{
			"verified":      false,
			"message":       "Certificate not found in database",
			"extractedData": extracted,
		})
		return
	}

	result := match.New().Match(extracted, cert)
	outcome := "failed"
	message := "Certificate verification failed"
	if result.Verified {
		outcome = "verified"
		message = "Certificate verified successfully"
	}
	middleware.VerificationsTotal.WithLabelValues(outcome).Inc()

	resp := map[string]any{
		"verified":        result.Verified,
		"message":         message,
		"matchPercentage": result.MatchPercentage,
		"matchedFields":   result.MatchedFields,
		"extractedData":   extracted,
	}
	if result.Verified {
		resp["certificateData"] = map[string]any{
			"certificateId": cert.CertificateID,
			"studentName":   cert.StudentName,
			"dateOfBirth":   cert.DateOfBirth,
			"courseName":    cert.CourseName,
			"issueDate":     cert.IssueDate,
			"organization":  cert.Organization,
			"fingerprint":   cert.Fingerprint,
		}
	}
	respondVerify(r, w, cacheKey, resp)
}

// lookupCertificate selects the candidate record: exact certificateId when
// the extractor surfaced one, otherwise a case-insensitive fuzzy lookup on
// studentName AND courseName with Jaro-Winkler ranking across candidates.
func lookupCertificate(ex match.Extracted) (models.Certificate, bool, error) {
	var cert models.Certificate

	if ex.CertificateID != nil && strings.TrimSpace(*ex.CertificateID) != "" {
		err := db.DB.Where("certificate_id = ?", strings.TrimSpace(*ex.CertificateID)).First(&cert).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cert, false, nil
		}
		return cert, err == nil, err
	}

	if ex.StudentName == nil || ex.CourseName == nil ||
		strings.TrimSpace(*ex.StudentName) == "" || strings.TrimSpace(*ex.CourseName) == "" {
		return cert, false, nil
	}

	var candidates []models.Certificate
	name := "%" + strings.TrimSpace(*ex.StudentName) + "%"
	course := "%" + strings.TrimSpace(*ex.CourseName) + "%"
	if err := db.DB.
		Where("student_name ILIKE ? AND course_name ILIKE ?", name, course).
		Limit(10).Find(&candidates).Error; err != nil {
		return cert, false, err
	}
	if len(candidates) == 0 {
		return cert, false, nil
	}

	metric := metrics.NewJaroWinkler()
	best, bestScore := 0, -1.0
	for i, c := range candidates {
		score := strutil.Similarity(
			strings.ToLower(strings.TrimSpace(*ex.StudentName)),
			strings.ToLower(strings.TrimSpace(c.StudentName)),
			metric,
		)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return candidates[best], true, nil
}

func respondVerify(r *http.Request, w http.ResponseWriter, cacheKey string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to encode response"})
		return
	}
	if cache != nil && cacheKey != "" {
		if err := cache.Set(r.Context(), cacheKey, body, verifyCacheTTL).Err(); err != nil {
			logger.Warn("verify cache write failed", zap.Error(err))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
