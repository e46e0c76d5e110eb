package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestAuthValidToken(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", testSecret)

	tokenString := signToken(t, jwt.MapClaims{
		"user_id": "user-1",
		"email":   "driver@bustracker.com",
		"role":    "driver",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	var got UserClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUserFromContext(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/driver/bus", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rr := httptest.NewRecorder()
	Auth(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got.UserID != "user-1" || got.Role != "driver" {
		t.Fatalf("unexpected claims in context: %+v", got)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", testSecret)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "NotBearer token"},
		{"garbage token", "Bearer not-a-jwt"},
		{
			"wrong signature",
			"Bearer " + func() string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"user_id": "user-1",
					"role":    "driver",
				})
				signed, _ := token.SignedString([]byte("other-secret"))
				return signed
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler reached with invalid auth")
			})

			req := httptest.NewRequest(http.MethodGet, "/api/driver/bus", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			Auth(next).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", testSecret)

	tokenString := signToken(t, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "driver",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached with expired token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/driver/bus", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rr := httptest.NewRecorder()
	Auth(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireRole(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", testSecret)

	adminToken := signToken(t, jwt.MapClaims{
		"user_id": "admin-1",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	driverToken := signToken(t, jwt.MapClaims{
		"user_id": "driver-1",
		"role":    "driver",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	handler := Auth(RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/buses", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin should pass, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/buses", nil)
	req.Header.Set("Authorization", "Bearer "+driverToken)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("driver should be forbidden, got %d", rr.Code)
	}
}
