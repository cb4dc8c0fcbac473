package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func signToken(t *testing.T, secret []byte, userID uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(15 * time.Minute).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestJWTAuth_RoundTrip(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()

	token := signToken(t, auth.Secret, userID, RoleOperator)

	var gotUser uuid.UUID
	var gotRole string
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotUser != userID {
		t.Errorf("expected user %s, got %s", userID, gotUser)
	}
	if gotRole != RoleOperator {
		t.Errorf("expected role %q, got %q", RoleOperator, gotRole)
	}
}

func TestJWTAuth_RejectsExpiredToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    RoleLearner,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.Secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestJWTAuth_RejectsBadHeaders(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	foreign := signToken(t, []byte("other-secret"), uuid.New(), RoleLearner)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"foreign signature", "Bearer " + foreign},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rr.Code)
			}
			if called {
				t.Errorf("next handler should not run")
			}
		})
	}
}

func TestRateLimiter_PerUserWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("user:a") || !rl.allow("user:a") {
		t.Fatalf("expected first two hits to pass")
	}
	if rl.allow("user:a") {
		t.Fatalf("expected third hit inside the window to be limited")
	}
	if !rl.allow("user:b") {
		t.Fatalf("expected a different key to be unaffected")
	}

	now = now.Add(2 * time.Minute)
	if !rl.allow("user:a") {
		t.Fatalf("expected a new window to reset the count")
	}
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatalf("expected a request id to be assigned")
	}
	if rr.Header().Get("X-Request-ID") != seen {
		t.Errorf("expected response header %q, got %q", seen, rr.Header().Get("X-Request-ID"))
	}
}
