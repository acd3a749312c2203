package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "test@example.com", true},
		{"surrounding whitespace", "  test@example.com  ", true},
		{"plus tag and subdomain", "user+tag@mail.example.co.uk", true},
		{"percent and dash", "first.last%x-y@ex-ample.org", true},
		{"upper case script is not blacklisted", "SCRIPT@example.com", true},
		{"exactly max length", strings.Repeat("a", 248) + "@b.com", true},
		{"byte order mark trimmed", "\uFEFFtest@example.com\u00A0", true},
		{"max length after trimming", "   " + strings.Repeat("a", 248) + "@b.com   ", true},

		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"one over max length", strings.Repeat("a", 249) + "@b.com", false},
		{"long local part", strings.Repeat("a", 255) + "@b.com", false},
		{"consecutive dots", "test..user@example.com", false},
		{"consecutive dots in domain", "test@example..com", false},
		{"leading dot", ".test@example.com", false},
		{"trailing dot", "test@example.com.", false},
		{"angle brackets", "<test>@example.com", false},
		{"script", "script@example.com", false},
		{"javascript", "javascript@example.com", false},
		{"nul byte", "te\x00st@example.com", false},
		{"newline", "test\n@example.com", false},
		{"carriage return", "test\r@example.com", false},
		{"missing at", "test.example.com", false},
		{"missing tld", "test@example", false},
		{"one letter tld", "test@example.c", false},
		{"numeric tld", "test@example.12", false},
		{"inner space", "te st@example.com", false},
		{"non ascii", "tést@example.com", false},
		{"two at signs", "a@b@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.input))
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"letters and digits", "Password123", true},
		{"allowed symbols", "Pass@$!%*?&1", true},
		{"minimum length", "Abcdefg1", true},
		{"maximum length", strings.Repeat("a", 127) + "1", true},
		{"digit first", "1abcdefg", true},

		{"empty", "", false},
		{"no digit", "password", false},
		{"no letter", "12345678", false},
		{"too short", "Abcdef1", false},
		{"too long", strings.Repeat("a", 129), false},
		{"too long with digit", strings.Repeat("a", 128) + "1", false},
		{"space", "Pass 1234", false},
		{"disallowed symbol", "Pass#1234", false},
		{"non ascii letter", "Pässword1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.input))
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	t.Run("trims and lower-cases", func(t *testing.T) {
		got, err := SanitizeEmail("  Test@EXAMPLE.COM  ")
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", got)
	})

	t.Run("empty is required", func(t *testing.T) {
		_, err := SanitizeEmail("")
		require.ErrorIs(t, err, ErrEmailRequired)
		assert.Equal(t, "Email is required", err.Error())
	})

	t.Run("does not validate format", func(t *testing.T) {
		got, err := SanitizeEmail(" Not An Email ")
		require.NoError(t, err)
		assert.Equal(t, "not an email", got)
		assert.False(t, ValidateEmail(got))
	})

	t.Run("trims byte order mark", func(t *testing.T) {
		got, err := SanitizeEmail("\uFEFF Test@Example.com\uFEFF")
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", got)
	})

	t.Run("whitespace only sanitizes to empty", func(t *testing.T) {
		got, err := SanitizeEmail("   ")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestValidateInput(t *testing.T) {
	t.Run("empty is invalid for any maximum", func(t *testing.T) {
		for _, n := range []int{0, 1, 10, DefaultMaxInputLength} {
			assert.False(t, ValidateInputLength("", n), "max %d", n)
		}
		assert.False(t, ValidateInput(""))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		x := "hello world"
		assert.True(t, ValidateInputLength(x, len(x)))
		assert.False(t, ValidateInputLength(x, len(x)-1))
	})

	t.Run("default maximum", func(t *testing.T) {
		assert.True(t, ValidateInput(strings.Repeat("a", DefaultMaxInputLength)))
		assert.False(t, ValidateInput(strings.Repeat("a", DefaultMaxInputLength+1)))
	})

	t.Run("negative maximum", func(t *testing.T) {
		assert.False(t, ValidateInputLength("a", -1))
	})

	t.Run("astral characters count twice", func(t *testing.T) {
		assert.False(t, ValidateInputLength("😀", 1))
		assert.True(t, ValidateInputLength("😀", 2))
	})
}

func TestLength(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"abc", 3},
		{"é", 1},
		{"😀", 2},
		{"a😀b", 4},
		{"\xff", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Length(tt.input))
		})
	}
}
