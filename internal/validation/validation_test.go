package validation

import (
	"strings"
	"testing"

	"aperture/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "password123", false},
		{"Exactly Min Length", "abcdef", false},
		{"Too Short", "abc12", true},
		{"Exactly Max Bytes", strings.Repeat("a", 72), false},
		{"Too Long", strings.Repeat("a", 73), true},
		{"Multibyte Over Max Bytes", strings.Repeat("Å", 37), true},
		{"Multibyte Counts Runes", "ÅÅÅÅÅÅ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.True(t, models.HasCode(err, models.CodeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "john_doe", false},
		{"Dots Allowed", "j.doe.42", false},
		{"Too Short", "jd", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Hyphen Rejected", "john-doe", true},
		{"Space Rejected", "john doe", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("john@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("user@"))
	assert.Error(t, ValidateEmail(""))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "john@example.com", NormalizeEmail("  John@Example.COM "))
}

func TestValidateStruct_Messages(t *testing.T) {
	t.Parallel()
	type payload struct {
		FullName string `json:"fullName" validate:"required,max=100"`
		Bio      string `json:"bio" validate:"max=150"`
	}

	err := ValidateStruct(payload{})
	assert.EqualError(t, err, "fullName is required")

	err = ValidateStruct(payload{FullName: "x", Bio: strings.Repeat("b", 151)})
	assert.EqualError(t, err, "bio cannot exceed 150 characters")

	assert.NoError(t, ValidateStruct(payload{FullName: "Jane"}))
}
