package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"certforge/internal/db"
	"certforge/internal/models"
)

type shareClaims struct {
	CertificateID string `json:"certificate_id"`
	jwt.RegisteredClaims
}

type generateShareLinkReq struct {
	CertificateID  string `json:"certificate_id"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

type generateShareLinkResp struct {
	ShareableURL string `json:"shareable_url"`
}

func getShareSecret() ([]byte, error) {
	if s := os.Getenv("SHARE_TOKEN_SECRET"); s != "" {
		return []byte(s), nil
	}
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s), nil
	}
	return nil, errors.New("missing SHARE_TOKEN_SECRET/JWT_SECRET")
}

// GenerateShareLink mints a short-lived public link to one of the issuer's
// certificates. POST /api/issuer/certificates/share (issuer)
func GenerateShareLink(w http.ResponseWriter, r *http.Request) {
	issuer, ok := approvedIssuer(w, r)
	if !ok {
		return
	}

	var req generateShareLinkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "invalid JSON body"})
		return
	}
	certID := strings.TrimSpace(req.CertificateID)
	if certID == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "certificate_id is required"})
		return
	}
	// Enforce 1..168 hours to avoid immediately-expired tokens
	if req.ExpiresInHours < 1 || req.ExpiresInHours > 168 {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "expires_in_hours must be between 1 and 168"})
		return
	}

	var cert models.Certificate
	if err := db.DB.Where("certificate_id = ?", certID).First(&cert).Error; err != nil {
		writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "certificate not found"})
		return
	}
	if cert.IssuedBy != issuer.ID {
		writeJSONResp(w, http.StatusForbidden, map[string]any{"status": "Forbidden", "message": "not the issuer of this certificate"})
		return
	}

	secret, err := getShareSecret()
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "server misconfigured"})
		return
	}

	exp := time.Now().Add(time.Duration(req.ExpiresInHours) * time.Hour)
	claims := shareClaims{
		CertificateID: certID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to sign share token"})
		return
	}

	base := os.Getenv("FRONTEND_BASE_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	url := fmt.Sprintf("%s/certificates/%s?token=%s", strings.TrimRight(base, "/"), certID, signed)
	writeJSONResp(w, http.StatusOK, generateShareLinkResp{ShareableURL: url})
}

// GetCertificateInfo returns the public view of a shared certificate.
// GET /api/certificates/{certificateId}?token=... (public)
func GetCertificateInfo(w http.ResponseWriter, r *http.Request) {
	certID := chi.URLParam(r, "certificateId")
	if certID == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "missing certificate id"})
		return
	}
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "This verification link is invalid or has expired."})
		return
	}

	secret, err := getShareSecret()
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "server misconfigured"})
		return
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &shareClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "This verification link is invalid or has expired."})
		return
	}
	claims, ok := parsed.Claims.(*shareClaims)
	if !ok || claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time) {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "This verification link is invalid or has expired."})
		return
	}
	if claims.CertificateID != certID {
		writeJSONResp(w, http.StatusForbidden, map[string]any{"status": "Forbidden", "message": "certificate id mismatch"})
		return
	}

	var cert models.Certificate
	if err := db.DB.Where("certificate_id = ?", certID).First(&cert).Error; err != nil {
		writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "certificate not found"})
		return
	}
	var anchors []models.AnchorTransaction
	_ = db.DB.Where("certificate_id = ?", certID).Find(&anchors).Error

	writeJSONResp(w, http.StatusOK, map[string]any{
		"certificate": cert,
		"anchors":     anchors,
		"valid_until": claims.ExpiresAt.Time,
	})
}
