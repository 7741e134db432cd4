package api

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://boards",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
		"iat": time.Now().Add(-time.Minute).Unix(),
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "ok", header: "Bearer header.payload.signature", want: "header.payload.signature"},
		{name: "padded", header: "  Bearer a.b.c ", want: "a.b.c"},
		{name: "empty", header: "", wantErr: errMissingAuthorization},
		{name: "spaces", header: "   ", wantErr: errMissingAuthorization},
		{name: "basic", header: "Basic dXNlcjpwYXNz", wantErr: errBadAuthorization},
		{name: "prefixOnly", header: "Bearer ", wantErr: errBadAuthorization},
		{name: "notJWT", header: "Bearer opaque", wantErr: errBadAuthorization},
		{name: "manyPeriods", header: "Bearer " + strings.Repeat(".", 1000), wantErr: errBadAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bearerToken(tt.header)
			if err != tt.wantErr {
				t.Fatalf("bearerToken(%q) error = %v, want %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestAuthHeaderFromQuery(t *testing.T) {
	if got := authHeaderFromQuery("", "a.b.c"); got != "Bearer a.b.c" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := authHeaderFromQuery("Bearer x.y.z", "a.b.c"); got != "Bearer x.y.z" {
		t.Fatalf("header must win over query, got %q", got)
	}
	if got := authHeaderFromQuery("", ""); got != "" {
		t.Fatalf("expected empty header, got %q", got)
	}
}

func TestUserIDFromAuthHeaderHS256(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewTestAuth(secret, "api://boards", "https://issuer/")

	userID, err := auth.UserIDFromAuthHeader("Bearer " + signHS256(t, secret, validClaims()))
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestUserIDFromTokenRejects(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewTestAuth(secret, "api://boards", "https://issuer/")

	tests := map[string]func(jwt.MapClaims){
		"expired":       func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() },
		"wrongAudience": func(c jwt.MapClaims) { c["aud"] = "api://other" },
		"wrongIssuer":   func(c jwt.MapClaims) { c["iss"] = "https://evil/" },
		"missingSub":    func(c jwt.MapClaims) { delete(c, "sub") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			claims := validClaims()
			mutate(claims)
			if _, err := auth.UserIDFromToken(signHS256(t, secret, claims)); err == nil {
				t.Fatalf("expected token to be rejected")
			}
		})
	}
}

func TestUserIDFromTokenWrongSecret(t *testing.T) {
	auth := NewTestAuth([]byte("right"), "", "")
	if _, err := auth.UserIDFromToken(signHS256(t, []byte("wrong"), validClaims())); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestRS256WithoutJWKS(t *testing.T) {
	auth := NewAuth(nil, "", "", DefaultJWKSCacheTTL)
	// HS256 tokens are refused outright by the RS256 parser.
	if _, err := auth.UserIDFromToken(signHS256(t, []byte("s"), validClaims())); err == nil {
		t.Fatalf("expected error")
	}
}
