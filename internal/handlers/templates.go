package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"certforge/internal/db"
	"certforge/internal/middleware"
	"certforge/internal/models"
	"certforge/internal/pptx"
)

// UploadTemplate stores a new PPTX template. The archive is validated and its
// placeholder tokens inventoried before anything is persisted.
// POST /api/admin/templates (admin), multipart with file field "template"
func UploadTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, pptx.MaxArchiveSize)
	if err := r.ParseMultipartForm(pptx.MaxArchiveSize); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "failed to parse form or file too large"})
		return
	}
	file, header, err := formFileTolerant(r, "template", "file", "upload", "pptx", "document")
	if err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "missing file field 'template'"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "failed to read uploaded file"})
		return
	}

	placeholders, err := pptx.ScanPlaceholders(data)
	if errors.Is(err, pptx.ErrTooLarge) {
		writeJSONResp(w, http.StatusRequestEntityTooLarge, map[string]any{"status": "Too_Large", "message": "template exceeds size limit"})
		return
	} else if err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "not a valid PPTX template archive"})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" && header != nil {
		name = header.Filename
	}
	userID, _ := r.Context().Value(middleware.UserIDKey).(uint)

	tpl := models.Template{
		Name:         name,
		Data:         data,
		Placeholders: placeholders,
		UploadedBy:   userID,
	}
	if err := db.DB.Create(&tpl).Error; err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to save template"})
		return
	}
	writeJSONResp(w, http.StatusCreated, map[string]any{"message": "Template uploaded successfully", "template": tpl})
}

// ListTemplates returns all templates without their payloads.
// GET /api/admin/templates (admin)
func ListTemplates(w http.ResponseWriter, r *http.Request) {
	var templates []models.Template
	if err := db.DB.Omit("data").Order("created_at desc").Find(&templates).Error; err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "database error"})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"templates": templates})
}

// ActivateTemplate makes one template active, deactivating every other in the
// same transaction so the single-active invariant holds under concurrency.
// POST /api/admin/templates/{id}/activate (admin)
func ActivateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Template{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Template{}).Where("id = ?", id).Update("is_active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "template not found"})
		return
	} else if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to activate template"})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"message": "Template activated successfully"})
}
