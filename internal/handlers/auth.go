package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"certforge/internal/db"
	"certforge/internal/middleware"
	"certforge/internal/models"
	"certforge/pkg"
)

type registerReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
}

// Register creates a verifier or issuer account. Issuer accounts stay
// unapproved until an admin approves them; admin accounts are seeded, never
// registered.
func Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "invalid JSON body"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "email and a password of at least 8 characters are required"})
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleVerifier
	}
	if role != models.RoleIssuer && role != models.RoleVerifier {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "role must be issuer or verifier"})
		return
	}

	var existing models.User
	err := db.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		writeJSONResp(w, http.StatusConflict, map[string]any{"status": "Conflict", "message": "email already registered"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "database error"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to hash password"})
		return
	}
	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Organization: req.Organization,
		Role:         role,
		IsApproved:   role == models.RoleVerifier,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to create user"})
		return
	}
	writeJSONResp(w, http.StatusCreated, map[string]any{"message": "Account created successfully", "user": user})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "invalid JSON body"})
		return
	}
	var user models.User
	err := db.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "invalid credentials"})
		return
	} else if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "database error"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "invalid credentials"})
		return
	}
	token, err := pkg.CreateToken(user.ID, user.Role)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to create token"})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// AuthMe returns the authenticated account. GET /api/auth/me (protected)
func AuthMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(uint)
	if !ok || userID == 0 {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "not authenticated"})
		return
	}
	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "user not found"})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"user": user})
}

// SeedAdmin creates the default admin account when none exists, from
// ADMIN_EMAIL / ADMIN_PASSWORD.
func SeedAdmin() error {
	var count int64
	if err := db.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return errors.New("no admin account exists and ADMIN_EMAIL/ADMIN_PASSWORD are not set")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.DB.Create(&models.User{
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		IsApproved:   true,
	}).Error
}
