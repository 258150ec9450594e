package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

// GetCertificateQRCode renders a QR code pointing at the public verification
// page for a certificate. GET /api/certificates/{certificateId}/qrcode
func GetCertificateQRCode(w http.ResponseWriter, r *http.Request) {
	certID := chi.URLParam(r, "certificateId")
	if certID == "" {
		http.Error(w, "missing certificate id", http.StatusBadRequest)
		return
	}

	base := os.Getenv("FRONTEND_BASE_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	data := strings.TrimRight(base, "/") + "/verify?certificateId=" + certID

	png, err := qrcode.Encode(data, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
