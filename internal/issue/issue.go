package issue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"certforge/internal/anchor"
	"certforge/internal/fingerprint"
	"certforge/internal/ipfs"
	"certforge/internal/models"
	"certforge/internal/pptx"
)

var (
	// ErrInvalidRequest means a required certificate field is missing.
	ErrInvalidRequest = errors.New("issue: missing required certificate fields")
	// ErrNoActiveTemplate means no template is currently activated.
	ErrNoActiveTemplate = errors.New("issue: no active template")
)

// Request carries the facts for one certificate. Metadata holds extra
// placeholder values keyed by token name without braces.
type Request struct {
	StudentName  string
	DateOfBirth  time.Time
	CourseName   string
	IssueDate    time.Time
	Organization string
	Metadata     map[string]string
}

// Pipeline orchestrates issuance: active template lookup, render,
// fingerprint, persist, artifact write, then optional IPFS pin and on-chain
// anchor. Pin and anchor failures are logged, never fatal.
type Pipeline struct {
	DB        *gorm.DB
	Logger    *zap.Logger
	Anchorer  *anchor.Anchorer
	Pinner    *ipfs.Pinner
	UploadDir string
}

const renderedDateLayout = "January 2, 2006"

func (p *Pipeline) Issue(ctx context.Context, req Request, issuer models.User) (models.Certificate, error) {
	var cert models.Certificate
	if err := validate(req); err != nil {
		return cert, err
	}

	var tpl models.Template
	err := p.DB.Where("is_active = ?", true).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cert, ErrNoActiveTemplate
	} else if err != nil {
		return cert, fmt.Errorf("issue: load active template: %w", err)
	}

	certificateID := newCertificateID()
	vals, err := buildValues(certificateID, req)
	if err != nil {
		return cert, err
	}
	rendered, err := pptx.Render(tpl.Data, vals)
	if err != nil {
		return cert, err
	}

	fp, err := fingerprint.Compute(fingerprint.Record{
		CertificateID: certificateID,
		StudentName:   req.StudentName,
		DateOfBirth:   req.DateOfBirth,
		CourseName:    req.CourseName,
		IssueDate:     req.IssueDate,
		Organization:  req.Organization,
	}, issuer.Email)
	if err != nil {
		return cert, err
	}

	fileURL, err := p.writeArtifact(certificateID, rendered)
	if err != nil {
		return cert, err
	}
	if p.Pinner != nil {
		if pinned, err := p.Pinner.PinFile(ctx, certificateID+".pptx", rendered); err != nil {
			p.Logger.Warn("ipfs pin failed", zap.String("certificate_id", certificateID), zap.Error(err))
		} else {
			fileURL = pinned
		}
	}

	cert = models.Certificate{
		CertificateID: certificateID,
		StudentName:   req.StudentName,
		DateOfBirth:   req.DateOfBirth,
		CourseName:    req.CourseName,
		IssueDate:     req.IssueDate,
		Organization:  req.Organization,
		IssuedBy:      issuer.ID,
		Fingerprint:   fp,
		Metadata:      req.Metadata,
		FileURL:       fileURL,
	}
	if err := p.DB.Create(&cert).Error; err != nil {
		return cert, fmt.Errorf("issue: persist certificate: %w", err)
	}

	if p.Anchorer != nil {
		if tx, err := p.Anchorer.Anchor(ctx, certificateID, fp); err != nil {
			p.Logger.Warn("anchor failed", zap.String("certificate_id", certificateID), zap.Error(err))
		} else if err := p.DB.Create(&tx).Error; err != nil {
			p.Logger.Warn("anchor record persist failed", zap.String("certificate_id", certificateID), zap.Error(err))
		}
	}

	p.Logger.Info("certificate issued",
		zap.String("certificate_id", certificateID),
		zap.Uint("issuer", issuer.ID),
		zap.String("template", tpl.Name),
	)
	return cert, nil
}

func validate(req Request) error {
	switch {
	case strings.TrimSpace(req.StudentName) == "",
		req.DateOfBirth.IsZero(),
		strings.TrimSpace(req.CourseName) == "",
		req.IssueDate.IsZero(),
		strings.TrimSpace(req.Organization) == "":
		return ErrInvalidRequest
	}
	return nil
}

// buildValues maps the standard tokens plus any metadata tokens. Metadata
// keys are validated here, so free-form request keys cannot reach the
// rendering engine.
func buildValues(certificateID string, req Request) (pptx.Values, error) {
	raw := map[string]string{
		"{NAME}":           req.StudentName,
		"{DATE_OF_BIRTH}":  req.DateOfBirth.Format(renderedDateLayout),
		"{COURSE_NAME}":    req.CourseName,
		"{ISSUE_DATE}":     req.IssueDate.Format(renderedDateLayout),
		"{CERTIFICATE_ID}": certificateID,
		"{ORGANIZATION}":   req.Organization,
	}
	for k, v := range req.Metadata {
		raw["{"+k+"}"] = v
	}
	return pptx.NewValues(raw)
}

func newCertificateID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("CERT-%d-%s", time.Now().Year(), id[:10])
}

func (p *Pipeline) writeArtifact(certificateID string, rendered []byte) (string, error) {
	dir := p.UploadDir
	if dir == "" {
		dir = filepath.Join("uploads", "certificates")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("issue: create upload dir: %w", err)
	}
	name := certificateID + ".pptx"
	if err := os.WriteFile(filepath.Join(dir, name), rendered, 0o644); err != nil {
		return "", fmt.Errorf("issue: write artifact: %w", err)
	}
	return "/uploads/certificates/" + name, nil
}
