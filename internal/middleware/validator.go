package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// maxImageBytes caps decoded attachment size (8 MiB)
const maxImageBytes = 8 << 20

// ValidateFarmerID validates the requester identifier format
func ValidateFarmerID(farmerID string) error {
	if farmerID == "" {
		return fmt.Errorf("farmer_id cannot be empty")
	}

	// Allow alphanumeric, dash, underscore (max 64 chars)
	pattern := `^[a-zA-Z0-9_-]{1,64}$`
	matched, _ := regexp.MatchString(pattern, farmerID)
	if !matched {
		return fmt.Errorf("invalid farmer_id format (alphanumeric, dash, underscore only, max 64 chars)")
	}

	return nil
}

// ValidateImageSize checks a decoded attachment against the size cap
func ValidateImageSize(data []byte) error {
	if len(data) > maxImageBytes {
		return fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
