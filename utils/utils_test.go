package utils

import (
	"intake/globals"
	"intake/middleware"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{".png", ".png"},
		{"photo-1.webp", "photo-1.webp"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{".png;rm -rf", ".png_rm_-rf"},
		{"", ""},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGenerateRandomDigitString(t *testing.T) {
	s := GenerateRandomDigitString(16)
	if len(s) != 16 {
		t.Fatalf("length = %d, want 16", len(s))
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit %q in %q", r, s)
		}
	}
}

func TestGetUsernameFromRequest(t *testing.T) {
	claims := &middleware.Claims{
		Username: "asha",
		UserID:   "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/appointments/a1/slip", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if got := GetUsernameFromRequest(req); got != "asha" {
		t.Errorf("username = %q, want asha", got)
	}

	if got := GetUsernameFromRequest(httptest.NewRequest("GET", "/", nil)); got != "" {
		t.Errorf("request without token yields %q, want empty", got)
	}
}

func TestGetUserIDFromRequestWithoutContext(t *testing.T) {
	if got := GetUserIDFromRequest(httptest.NewRequest("GET", "/", nil)); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
