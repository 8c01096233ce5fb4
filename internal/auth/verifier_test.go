package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPVerifierValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer good-token" {
			t.Errorf("unexpected Authorization header: %s", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("unexpected apikey header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "user-123", "email": "student@example.com"}`))
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, "anon-key")

	user, err := v.Verify(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if user.ID != "user-123" {
		t.Errorf("expected id user-123, got %s", user.ID)
	}
	if user.Email != "student@example.com" {
		t.Errorf("unexpected email: %s", user.Email)
	}
}

func TestHTTPVerifierRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "invalid JWT"}`))
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, "anon-key")

	if _, err := v.Verify(context.Background(), "bad-token"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestHTTPVerifierEmptyToken(t *testing.T) {
	v := NewHTTPVerifier("http://identity.invalid", "anon-key")

	if _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for empty token, got %v", err)
	}
}

func TestHTTPVerifierProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, "anon-key")

	_, err := v.Verify(context.Background(), "token")
	if err == nil {
		t.Fatal("expected error for provider 500")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("provider outage must not masquerade as a rejected credential")
	}
}

func TestHTTPVerifierMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email": "nobody@example.com"}`))
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, "anon-key")

	if _, err := v.Verify(context.Background(), "token"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for identity without id, got %v", err)
	}
}
