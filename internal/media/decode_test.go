package media

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64Image(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(pngHeader)

	cases := map[string]string{
		"raw":          raw,
		"data url":     "data:image/png;base64," + raw,
		"unpadded":     base64.RawStdEncoding.EncodeToString(pngHeader),
		"url alphabet": base64.URLEncoding.EncodeToString(pngHeader),
		"wrapped":      raw[:10] + "\n" + raw[10:],
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := DecodeBase64Image(payload)
			require.NoError(t, err)
			assert.Equal(t, pngHeader, data)
		})
	}
}

func TestDecodeBase64ImageRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"", "   ", "data:image/png,notbase64", "data:image/png;base64", "!!!"} {
		_, err := DecodeBase64Image(payload)
		assert.Error(t, err, payload)
	}
}
