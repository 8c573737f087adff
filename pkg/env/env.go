// Package env reads process settings that must be known before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces every setting the board reads.
const Prefix = "DEALBOARD_"

// Get looks up DEALBOARD_<name> first and then the bare name, so platform
// conventions like PORT or LOG_FORMAT keep working.
func Get(name, fallback string) string {
	for _, key := range []string{Prefix + name, name} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return fallback
}
