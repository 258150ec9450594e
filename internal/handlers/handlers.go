package handlers

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"certforge/internal/extract"
	"certforge/internal/issue"
)

// verifyCache is the slice of the redis client the verify handler uses.
type verifyCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

var (
	logger    *zap.Logger
	pipeline  *issue.Pipeline
	extractor extract.Extractor
	cache     verifyCache
)

// Setup wires the handler package's collaborators. cache and extractor may be
// nil; the verify handler degrades accordingly.
func Setup(l *zap.Logger, p *issue.Pipeline, e extract.Extractor, c *redis.Client) {
	logger = l
	pipeline = p
	extractor = e
	cache = nil
	if c != nil {
		cache = c
	}
}

func writeJSONResp(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// formFileTolerant looks up a multipart file by its expected field name, then
// falls back to common alternatives and finally the first file present.
// Frontends are sloppy about field names; uploads should not fail over that.
func formFileTolerant(r *http.Request, preferred string, alts ...string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(preferred)
	if err == nil {
		return file, header, nil
	}
	available := []string{}
	if r.MultipartForm != nil && r.MultipartForm.File != nil {
		for k := range r.MultipartForm.File {
			available = append(available, k)
		}
	}
	for _, a := range alts {
		if f, h, e := r.FormFile(a); e == nil {
			return f, h, nil
		}
		for _, k := range available {
			if strings.EqualFold(k, a) {
				return r.FormFile(k)
			}
		}
	}
	if len(available) > 0 {
		return r.FormFile(available[0])
	}
	return nil, nil, err
}
