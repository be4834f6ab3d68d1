package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"lowercase uuid", "a1b2c3d4-e5f6-7890-abcd-ef1234567890", true},
		{"uppercase uuid", "A1B2C3D4-E5F6-7890-ABCD-EF1234567890", true},
		{"mixed case", "a1B2c3D4-e5F6-7890-AbCd-eF1234567890", true},
		{"missing group", "a1b2c3d4-e5f6-7890-abcd", false},
		{"no hyphens", "a1b2c3d4e5f678 90abcdef1234567890", false},
		{"non-hex chars", "g1b2c3d4-e5f6-7890-abcd-ef1234567890", false},
		{"empty", "", false},
		{"trailing junk", "a1b2c3d4-e5f6-7890-abcd-ef1234567890x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIdentifier(tt.in))
		})
	}
}

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("9876543210"))
	assert.False(t, IsPhone("987654321"))
	assert.False(t, IsPhone("98765432101"))
	assert.False(t, IsPhone("98765-4321"))
	assert.False(t, IsPhone("987654321a"))
	assert.False(t, IsPhone(""))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("a@b.com"))
	assert.True(t, IsEmail("weird but has at @"))
	assert.False(t, IsEmail("no-at-sign"))
	assert.False(t, IsEmail(strings.Repeat("a", 250)+"@x.co"))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"strips angle brackets", "<script>alert(1)</script>", "scriptalert(1)/script"},
		{"strips quotes and backticks", `a"b'c` + "`d", "abcd"},
		{"plain text untouched", "Rahul Kumar", "Rahul Kumar"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("x", 600)
	got := Sanitize(long)
	assert.Len(t, got, 500)
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"  hello  ",
		"<b>bold</b>",
		strings.Repeat("y z", 300),
		"plain",
		"  <mixed> 'case' ` input  ",
		strings.Repeat("日本語", 200),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		assert.Equal(t, once, twice, "sanitize must be idempotent for %q", in)
		assert.LessOrEqual(t, len(once), len(in), "sanitize must never grow %q", in)
	}
}

func TestStructValidation(t *testing.T) {
	type req struct {
		Phone   string `validate:"required,phone10"`
		Email   string `validate:"required,contact_email"`
		Payment string `validate:"required,payment"`
	}

	assert.NoError(t, Validate(t.Context(), req{Phone: "9876543210", Email: "a@b.com", Payment: "cash"}))
	assert.Error(t, Validate(t.Context(), req{Phone: "123", Email: "a@b.com", Payment: "cash"}))
	assert.Error(t, Validate(t.Context(), req{Phone: "9876543210", Email: "nope", Payment: "cash"}))
	assert.Error(t, Validate(t.Context(), req{Phone: "9876543210", Email: "a@b.com", Payment: "card"}))
}
