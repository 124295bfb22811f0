package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"newvision-backend/internal/models"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseSession_ValidToken(t *testing.T) {
	auth := NewJWTAuth("secret")
	userID := uuid.New()
	tokenStr := signToken(t, "secret", jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	sess, err := auth.ParseSession(tokenStr)
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if sess.UserID != userID {
		t.Fatalf("user id = %s, want %s", sess.UserID, userID)
	}
	if sess.AccessToken != tokenStr {
		t.Fatalf("access token not carried through")
	}
}

func TestParseSession_WrongSecret(t *testing.T) {
	auth := NewJWTAuth("secret")
	tokenStr := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	if _, err := auth.ParseSession(tokenStr); err == nil {
		t.Fatal("expected an error for a token signed with a different secret")
	}
}

func TestParseSession_MissingUserIDClaim(t *testing.T) {
	auth := NewJWTAuth("secret")
	tokenStr := signToken(t, "secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := auth.ParseSession(tokenStr); err == nil {
		t.Fatal("expected an error for a token without a user_id claim")
	}
}

func TestMiddleware_AttachesSession(t *testing.T) {
	auth := NewJWTAuth("secret")
	userID := uuid.New()
	tokenStr := signToken(t, "secret", jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	var got *models.Session
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got == nil || got.UserID != userID {
		t.Fatalf("session not attached: %+v", got)
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	auth := NewJWTAuth("secret")
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("error code = %q", resp.Error.Code)
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	auth := NewJWTAuth("secret")
	tokenStr := signToken(t, "secret", jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error.Code != "TOKEN_EXPIRED" {
		t.Fatalf("error code = %q", resp.Error.Code)
	}
}
