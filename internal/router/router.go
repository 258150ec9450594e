package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"certforge/internal/handlers"
	"certforge/internal/middleware"
	"certforge/internal/models"
)

func RegisterRouter(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.MetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public
	r.Post("/api/auth/register", handlers.Register)
	r.Post("/api/auth/login", handlers.Login)
	r.Post("/api/verify", handlers.VerifyDocument)
	r.Get("/api/certificates/{certificateId}", handlers.GetCertificateInfo)
	r.Get("/api/certificates/{certificateId}/qrcode", handlers.GetCertificateQRCode)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Get("/api/auth/me", handlers.AuthMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/api/admin/issuers", handlers.ListIssuers)
			r.Patch("/api/admin/issuers/{id}/approve", handlers.ApproveIssuer)
			r.Post("/api/admin/templates", handlers.UploadTemplate)
			r.Get("/api/admin/templates", handlers.ListTemplates)
			r.Post("/api/admin/templates/{id}/activate", handlers.ActivateTemplate)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleIssuer))
			r.Post("/api/issuer/certificates", handlers.IssueCertificate)
			r.Get("/api/issuer/certificates", handlers.ListCertificates)
			r.Get("/api/issuer/certificates/{certificateId}/download", handlers.DownloadCertificate)
			r.Post("/api/issuer/certificates/share", handlers.GenerateShareLink)
		})
	})
	return r
}
