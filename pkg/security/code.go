package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// GenerateNumericCode draws a code of exactly digits digits from crypto/rand.
// Multi-digit codes never start with zero, so six digits spans 100000-999999.
func GenerateNumericCode(digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", fmt.Errorf("security: code length %d out of range 1-18", digits)
	}
	floor := int64(0)
	if digits > 1 {
		floor = 1
		for range digits - 1 {
			floor *= 10
		}
	}
	ceiling := int64(10)
	if digits > 1 {
		ceiling = floor * 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(ceiling-floor))
	if err != nil {
		return "", fmt.Errorf("security: draw code: %w", err)
	}
	return strconv.FormatInt(floor+n.Int64(), 10), nil
}
