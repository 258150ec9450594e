package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"certforge/internal/db"
	"certforge/internal/fingerprint"
	"certforge/internal/issue"
	"certforge/internal/middleware"
	"certforge/internal/models"
	"certforge/internal/pptx"
)

type issueCertificateReq struct {
	StudentName  string            `json:"studentName"`
	DateOfBirth  string            `json:"dateOfBirth"`
	CourseName   string            `json:"courseName"`
	IssueDate    string            `json:"issueDate"`
	Organization string            `json:"organization"`
	Metadata     map[string]string `json:"metadata"`
}

const reqDateLayout = "2006-01-02"

// IssueCertificate runs the issuance pipeline for an approved issuer.
// POST /api/issuer/certificates (issuer)
func IssueCertificate(w http.ResponseWriter, r *http.Request) {
	issuer, ok := approvedIssuer(w, r)
	if !ok {
		return
	}

	var req issueCertificateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "invalid JSON body"})
		return
	}
	dob, err1 := time.Parse(reqDateLayout, strings.TrimSpace(req.DateOfBirth))
	issued, err2 := time.Parse(reqDateLayout, strings.TrimSpace(req.IssueDate))
	if err1 != nil || err2 != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "dateOfBirth and issueDate must be YYYY-MM-DD"})
		return
	}

	cert, err := pipeline.Issue(r.Context(), issue.Request{
		StudentName:  strings.TrimSpace(req.StudentName),
		DateOfBirth:  dob,
		CourseName:   strings.TrimSpace(req.CourseName),
		IssueDate:    issued,
		Organization: strings.TrimSpace(req.Organization),
		Metadata:     req.Metadata,
	}, issuer)
	switch {
	case errors.Is(err, issue.ErrInvalidRequest), errors.Is(err, fingerprint.ErrInvalidRecord):
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "all fields are required"})
		return
	case errors.Is(err, pptx.ErrInvalidToken):
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "metadata keys must be UPPER_SNAKE placeholder names"})
		return
	case errors.Is(err, issue.ErrNoActiveTemplate):
		writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "no active template found"})
		return
	case errors.Is(err, pptx.ErrMalformedTemplate):
		writeJSONResp(w, http.StatusUnprocessableEntity, map[string]any{"status": "Malformed_Template", "message": "active template archive is not renderable"})
		return
	case errors.Is(err, pptx.ErrTooLarge):
		writeJSONResp(w, http.StatusRequestEntityTooLarge, map[string]any{"status": "Too_Large", "message": "active template exceeds size limit"})
		return
	case err != nil:
		logger.Error("issuance failed", zap.Error(err))
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to issue certificate"})
		return
	}
	middleware.CertificatesIssued.Inc()
	writeJSONResp(w, http.StatusCreated, map[string]any{"message": "Certificate generated successfully", "certificate": cert})
}

// ListCertificates returns the authenticated issuer's certificates.
// GET /api/issuer/certificates (issuer)
func ListCertificates(w http.ResponseWriter, r *http.Request) {
	issuer, ok := approvedIssuer(w, r)
	if !ok {
		return
	}
	var certs []models.Certificate
	if err := db.DB.Where("issued_by = ?", issuer.ID).Order("created_at desc").Find(&certs).Error; err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "database error"})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"certificates": certs})
}

// DownloadCertificate serves the rendered artifact for one of the issuer's
// certificates. Pinned artifacts redirect to the gateway.
// GET /api/issuer/certificates/{certificateId}/download (issuer)
func DownloadCertificate(w http.ResponseWriter, r *http.Request) {
	issuer, ok := approvedIssuer(w, r)
	if !ok {
		return
	}
	certID := chi.URLParam(r, "certificateId")
	var cert models.Certificate
	if err := db.DB.Where("certificate_id = ? AND issued_by = ?", certID, issuer.ID).First(&cert).Error; err != nil {
		writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "certificate not found"})
		return
	}
	if strings.HasPrefix(cert.FileURL, "http") {
		http.Redirect(w, r, cert.FileURL, http.StatusFound)
		return
	}
	dir := pipeline.UploadDir
	if dir == "" {
		dir = filepath.Join("uploads", "certificates")
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	http.ServeFile(w, r, filepath.Join(dir, filepath.Base(cert.FileURL)))
}

// approvedIssuer loads the authenticated user and rejects anyone who is not
// an approved issuer.
func approvedIssuer(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	var user models.User
	userID, ok := r.Context().Value(middleware.UserIDKey).(uint)
	if !ok || userID == 0 {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "not authenticated"})
		return user, false
	}
	if err := db.DB.First(&user, userID).Error; err != nil {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "account not found"})
		return user, false
	}
	if user.Role != models.RoleIssuer || !user.IsApproved {
		writeJSONResp(w, http.StatusForbidden, map[string]any{"status": "Forbidden", "message": "issuer account not approved"})
		return user, false
	}
	return user, true
}
