package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"

	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/storage"
)

// ImagePrefix is the key prefix every uploaded deal image lives under.
const ImagePrefix = "images/"

const defaultMaxUploadBytes = 5 << 20

type objectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (storage.Object, error)
	PublicURL(key string) string
}

// Service stores deal images uploaded by authenticated users.
type Service interface {
	Upload(ctx context.Context, uploader uuid.UUID, body io.Reader) (*UploadResult, error)
	MaxBytes() int64
}

// UploadResult points at the stored image.
type UploadResult struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the upload service. maxBytes <= 0 falls back to 5 MiB.
func NewService(store objectStore, maxBytes int64, logg *logger.Logger, now func() time.Time) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	if now == nil {
		now = time.Now
	}
	return &service{store: store, maxBytes: maxBytes, logg: logg, now: now}, nil
}

func (s *service) MaxBytes() int64 {
	return s.maxBytes
}

func (s *service) Upload(ctx context.Context, uploader uuid.UUID, body io.Reader) (*UploadResult, error) {
	if body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Image is required")
	}
	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid image upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Image is required")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Image exceeds maximum size of %d bytes", s.maxBytes)
	}

	contentType, ext, err := sniffImageType(data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid image type").
			WithDetails(map[string]string{"allowed": allowedImageDescription})
	}

	key := fmt.Sprintf("%s%d-%s%s", ImagePrefix, s.now().UnixMilli(), ksuid.New().String(), ext)
	obj, err := s.store.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store image")
	}

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, uploader.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{"object_key": key, "size": len(data), "content_type": contentType})
		s.logg.Info(logCtx, "media.uploaded")
	}

	size := obj.Size
	if size <= 0 {
		size = int64(len(data))
	}
	return &UploadResult{
		URL:         s.store.PublicURL(key),
		Path:        key,
		ContentType: contentType,
		Size:        size,
	}, nil
}
