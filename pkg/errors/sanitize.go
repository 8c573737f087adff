package errors

import "strings"

// GenericMessage is returned for unexpected errors whose text is not safe to expose.
const GenericMessage = "An error occurred"

// safeFragments lists substrings that mark an untyped error message as fit for clients.
var safeFragments = []string{
	"not found",
	"Missing",
	"Invalid",
	"required",
	"Unauthorized",
	"Forbidden",
	"permissions",
}

// Sanitize returns the client-facing message for an untyped error. With exposeRaw set
// (development) the raw text is returned as-is.
func Sanitize(err error, exposeRaw bool) string {
	if err == nil {
		return GenericMessage
	}
	msg := err.Error()
	if exposeRaw {
		return msg
	}
	for _, fragment := range safeFragments {
		if strings.Contains(msg, fragment) {
			return msg
		}
	}
	return GenericMessage
}
