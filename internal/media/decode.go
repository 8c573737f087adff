package media

import (
	"encoding/base64"
	"errors"
	"strings"
)

var errInvalidEncoding = errors.New("image must be base64 or a base64 data URL")

// DecodeBase64Image accepts either raw base64 or a data URL ("data:image/png;base64,...")
// and returns the decoded bytes.
func DecodeBase64Image(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, errInvalidEncoding
	}
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(strings.ToLower(payload[:comma]), ";base64") {
			return nil, errInvalidEncoding
		}
		payload = payload[comma+1:]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, errInvalidEncoding
}
