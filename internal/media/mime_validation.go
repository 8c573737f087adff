package media

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// allowedImageTypes maps each accepted content type to the extension used in object keys.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var allowedImageDescription = describeAllowed()

func describeAllowed() string {
	names := make([]string, 0, len(allowedImageTypes))
	for mediaType := range allowedImageTypes {
		names = append(names, strings.TrimPrefix(mediaType, "image/"))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// sniffImageType detects the content type from the leading bytes, ignoring whatever
// the client declared.
func sniffImageType(data []byte) (string, string, error) {
	detected := mimetype.Detect(data)
	mediaType := strings.ToLower(detected.String())
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	ext, ok := allowedImageTypes[mediaType]
	if !ok {
		return "", "", fmt.Errorf("unsupported image type %q; allowed types are %s", mediaType, allowedImageDescription)
	}
	return mediaType, ext, nil
}
