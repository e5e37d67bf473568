package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicgrid/planportal-crawler/internal/planning"
	"github.com/civicgrid/planportal-crawler/internal/portal"
	"github.com/civicgrid/planportal-crawler/internal/storage"
)

// The portal serves case documents as PDFs; assume as much when it does not
// say otherwise.
const defaultContentType = "application/pdf"

// Uploader moves one case document from the portal into blob storage,
// producing the DocumentRef appended to the case record. Downloads go
// through the crawl session so they share its cookie jar and pacing.
type Uploader struct {
	session *portal.Session
	blobs   storage.Provider
	bucket  string
	logger  *zap.Logger
}

// NewUploader wires the session and blob provider together.
func NewUploader(session *portal.Session, blobs storage.Provider, bucket string, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{session: session, blobs: blobs, bucket: bucket, logger: logger}
}

// Upload fetches the source document and stores it under a freshly
// generated key.
func (u *Uploader) Upload(ctx context.Context, kind planning.DocKind, sourceURL string) (planning.DocumentRef, error) {
	content, contentType, err := u.session.Download(ctx, sourceURL)
	if err != nil {
		return planning.DocumentRef{}, fmt.Errorf("fetch %s: %w", kind, err)
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	key := newStorageKey()
	location, err := u.blobs.PutObject(ctx, key, contentType, bytes.NewReader(content))
	if err != nil {
		return planning.DocumentRef{}, fmt.Errorf("store %s: %w", kind, err)
	}
	u.logger.Debug("document uploaded",
		zap.String("doc_type", string(kind)),
		zap.String("key", key),
		zap.Int("bytes", len(content)))

	return planning.DocumentRef{
		Type:        "pdf",
		Name:        key,
		Size:        int64(len(content)),
		DocType:     kind,
		ContentType: contentType,
		Blob: planning.BlobLocation{
			Bucket:   u.bucket,
			Key:      key,
			Location: location,
		},
	}, nil
}

// newStorageKey returns a globally-unique object key.
func newStorageKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
