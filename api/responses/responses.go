package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync/atomic"

	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/types"
)

var exposeInternalErrors atomic.Bool

// SetExposeInternalErrors toggles whether untyped error messages reach clients verbatim.
// It is set once at startup from the app environment.
func SetExposeInternalErrors(expose bool) {
	exposeInternalErrors.Store(expose)
}

// OK builds the success envelope embedded in response payloads.
func OK(message string) types.Envelope {
	return types.Envelope{Success: true, Message: message}
}

func WriteSuccess(w http.ResponseWriter, payload any) {
	WriteSuccessStatus(w, http.StatusOK, payload)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		payload = OK("")
	}
	writeJSON(w, status, payload)
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	var (
		status int
		code   pkgerrors.Code
		msg    string
		meta   pkgerrors.Metadata
	)
	if typed != nil {
		code = typed.Code()
		meta = pkgerrors.MetadataFor(code)
		status = meta.HTTPStatus
		msg = typed.Message()
		if code == pkgerrors.CodeInternal || msg == "" {
			msg = meta.PublicMessage
		}
	} else {
		code = pkgerrors.CodeInternal
		meta = pkgerrors.MetadataFor(code)
		status = meta.HTTPStatus
		msg = pkgerrors.Sanitize(err, exposeInternalErrors.Load())
	}

	payload := types.ErrorEnvelope{
		Success: false,
		Message: msg,
		Code:    string(code),
	}

	if typed != nil && meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Details = details
		}
	}

	if logg != nil {
		fields := pkgerrors.Dump(err).Fields()
		fields["error_code"] = code
		fields["http_status"] = status

		ctx = logg.WithFields(ctx, fields)
		if status >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
