package middleware

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestIssueAndParseAccessToken(t *testing.T) {
	token, issued, err := IssueAccessToken(testSecret, 42, "john_doe", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)

	claims, err := ParseAccessToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "john_doe", claims.Username)
	assert.Equal(t, issued.JTI, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestIssueAccessToken_RequiresSecret(t *testing.T) {
	_, _, err := IssueAccessToken("", 1, "x", time.Hour)
	assert.Error(t, err)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	sign := func(claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.Itoa(7),
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	expired := base()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongIssuer := base()
	wrongIssuer["iss"] = "someone-else"

	wrongAudience := base()
	wrongAudience["aud"] = "other-client"

	noSubject := base()
	delete(noSubject, "sub")

	badSubject := base()
	badSubject["sub"] = "abc"

	noExpiry := base()
	delete(noExpiry, "exp")

	tests := []struct {
		name  string
		token string
	}{
		{"Expired", sign(expired, jwt.SigningMethodHS256, []byte(testSecret))},
		{"Wrong Issuer", sign(wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret))},
		{"Wrong Audience", sign(wrongAudience, jwt.SigningMethodHS256, []byte(testSecret))},
		{"Missing Subject", sign(noSubject, jwt.SigningMethodHS256, []byte(testSecret))},
		{"Non-numeric Subject", sign(badSubject, jwt.SigningMethodHS256, []byte(testSecret))},
		{"Missing Expiry", sign(noExpiry, jwt.SigningMethodHS256, []byte(testSecret))},
		{"Wrong Secret", sign(base(), jwt.SigningMethodHS256, []byte("another-secret"))},
		{"Garbage", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(testSecret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/header", func(c *fiber.Ctx) error {
		tok, err := BearerToken(c, false)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.SendString(tok)
	})
	app.Get("/query", func(c *fiber.Ctx) error {
		tok, err := BearerToken(c, true)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.SendString(tok)
	})

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"Bearer Header", "/header", "Bearer abc", fiber.StatusOK},
		{"Lowercase Scheme", "/header", "bearer abc", fiber.StatusOK},
		{"Basic Scheme", "/header", "Basic dXNlcjpwYXNz", fiber.StatusUnauthorized},
		{"Missing", "/header", "", fiber.StatusUnauthorized},
		{"Query Not Allowed", "/header?token=abc", "", fiber.StatusUnauthorized},
		{"Query Allowed", "/query?token=abc", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
