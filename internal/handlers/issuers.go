package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"certforge/internal/db"
	"certforge/internal/models"
)

// ListIssuers returns every issuer account, pending ones first.
// GET /api/admin/issuers (admin)
func ListIssuers(w http.ResponseWriter, r *http.Request) {
	var issuers []models.User
	if err := db.DB.Where("role = ?", models.RoleIssuer).
		Order("is_approved asc, created_at desc").Find(&issuers).Error; err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "database error"})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"issuers": issuers})
}

// ApproveIssuer marks an issuer account as approved.
// PATCH /api/admin/issuers/{id}/approve (admin)
func ApproveIssuer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res := db.DB.Model(&models.User{}).
		Where("id = ? AND role = ?", id, models.RoleIssuer).
		Update("is_approved", true)
	if res.Error != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "database error"})
		return
	}
	if res.RowsAffected == 0 {
		writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "issuer not found"})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"message": "Issuer approved successfully"})
}
