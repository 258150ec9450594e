package extract

import (
	"context"

	"certforge/internal/match"
)

// Extractor turns a submitted certificate image into a candidate record.
// The verify handler depends on this interface so the matching flow can be
// exercised without Google credentials.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (match.Extracted, error)
}
