package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brems/internal/domain/auth"
)

const testSecret = "test-secret"

func issueToken(t *testing.T, secret string, user auth.UserContext) string {
	t.Helper()
	token, err := auth.GenerateToken(secret, auth.Claims{
		UserID:     user.UserID,
		EmployeeID: user.EmployeeID,
		Role:       user.Role,
	}, time.Minute)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	return token
}

func userEcho() (http.Handler, *auth.UserContext) {
	var captured auth.UserContext
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := GetUser(r.Context()); ok {
			captured = user
		}
		w.WriteHeader(http.StatusOK)
	})
	return handler, &captured
}

func TestAuthAttachesUserFromBearerToken(t *testing.T) {
	want := auth.UserContext{UserID: "user-1", EmployeeID: "emp-1", Role: auth.RoleVerified}
	handler, captured := userEcho()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer "+issueToken(t, testSecret, want))

	Auth(testSecret)(handler).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if *captured != want {
		t.Fatalf("got %+v, want %+v", *captured, want)
	}
}

func TestAuthPassesThroughAnonymously(t *testing.T) {
	cases := map[string]string{
		"no header":     "",
		"not bearer":    "Basic abc",
		"garbage token": "Bearer not-a-token",
		"wrong secret":  "Bearer " + issueToken(t, "other-secret", auth.UserContext{UserID: "user-1"}),
	}

	for name, header := range cases {
		handler, captured := userEcho()
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			request.Header.Set("Authorization", header)
		}

		Auth(testSecret)(handler).ServeHTTP(recorder, request)

		if recorder.Code != http.StatusOK {
			t.Fatalf("%s: anonymous requests must pass through, status = %d", name, recorder.Code)
		}
		if captured.UserID != "" {
			t.Fatalf("%s: no user must be attached, got %+v", name, captured)
		}
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := RequireRole(auth.RoleAdmin)(next)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(WithUser(request.Context(), auth.UserContext{UserID: "u", Role: auth.RoleVerified}))
	guarded.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("verified user: status = %d, want 403", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(WithUser(request.Context(), auth.UserContext{UserID: "u", Role: auth.RoleAdmin}))
	guarded.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("admin user: status = %d, want 200", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	guarded.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", recorder.Code)
	}
}
