package controllers

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/validators"
	"github.com/dealboard/dealboard-backend/internal/media"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/types"
)

const (
	uploadFileField = "file"
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

type uploadImageRequest struct {
	Image    string `json:"image"`
	FileName string `json:"fileName"`
}

type uploadImageResponse struct {
	types.Envelope
	URL  string `json:"url"`
	Path string `json:"path"`
}

// UploadImage stores a deal image sent as multipart field "file" or as base64 JSON.
func UploadImage(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body io.Reader
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if strings.HasPrefix(mediaType, "multipart/") {
			r.Body = http.MaxBytesReader(w, r.Body, svc.MaxBytes()+multipartOverhead)
			body, err = multipartFile(r)
		} else {
			body, err = base64Image(r, svc.MaxBytes())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Upload(r.Context(), user.ID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, uploadImageResponse{
			Envelope: responses.OK(""),
			URL:      result.URL,
			Path:     result.Path,
		})
	}
}

// multipartFile streams the first part named "file" without buffering the form.
func multipartFile(r *http.Request) (io.Reader, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid multipart body")
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Image is required")
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Image exceeds maximum size of %d bytes", tooLarge.Limit-multipartOverhead)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid multipart body")
		}
		if part.FormName() == uploadFileField {
			return part, nil
		}
	}
}

func base64Image(r *http.Request, maxBytes int64) (io.Reader, error) {
	// base64 inflates by 4/3; allow room for a data URL prefix and the other fields.
	limit := maxBytes/3*4 + 8<<10
	var req uploadImageRequest
	if err := validators.DecodeJSONBodyLimit(r, &req, limit); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Image is required")
	}
	data, err := media.DecodeBase64Image(req.Image)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid image encoding")
	}
	return bytes.NewReader(data), nil
}
