package middleware

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFarmerID(t *testing.T) {
	valid := []string{"f1", "farmer_42", "abc-DEF-123", strings.Repeat("a", 64)}
	for _, id := range valid {
		assert.NoError(t, ValidateFarmerID(id), id)
	}

	invalid := []string{"", "has space", "semi;colon", "päron", strings.Repeat("a", 65), "a/b"}
	for _, id := range invalid {
		assert.Error(t, ValidateFarmerID(id), id)
	}
}

func TestValidateImageSize(t *testing.T) {
	assert.NoError(t, ValidateImageSize(nil))
	assert.NoError(t, ValidateImageSize(bytes.Repeat([]byte{0xff}, maxImageBytes)))
	assert.Error(t, ValidateImageSize(bytes.Repeat([]byte{0xff}, maxImageBytes+1)))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "tab\tkept", SanitizeString("tab\tkept"))
	assert.Equal(t, "bell", SanitizeString("be\x07ll"))
	assert.Equal(t, "നെല്ല്", SanitizeString("നെല്ല്")) // unicode passes through
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 20, ValidateLimit(-5))
	assert.Equal(t, 1, ValidateLimit(1))
	assert.Equal(t, 100, ValidateLimit(100))
	assert.Equal(t, 100, ValidateLimit(500))
}
