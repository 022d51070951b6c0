package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/platform/errs"
)

func TestMemoryStore_CreateLookup(t *testing.T) {
	store := NewMemoryStore()
	accountID := uuid.New()

	token, err := store.Create(context.Background(), accountID, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Lookup(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != accountID {
		t.Errorf("expected account %s, got %s", accountID, got)
	}
}

func TestMemoryStore_LookupUnknown(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Lookup(context.Background(), "no-such-token")
	if !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	token, _ := store.Create(context.Background(), uuid.New(), -time.Second)

	_, err := store.Lookup(context.Background(), token)
	if !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError for expired session, got %v", err)
	}
}

func TestMemoryStore_Revoke(t *testing.T) {
	store := NewMemoryStore()
	token, _ := store.Create(context.Background(), uuid.New(), time.Hour)

	if err := store.Revoke(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Lookup(context.Background(), token); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError after revoke, got %v", err)
	}
}

func TestCookieRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	signed, err := SignCookie(secret, "abc123", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := ParseCookie(secret, signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "abc123" {
		t.Errorf("expected token abc123, got %s", token)
	}
}

func TestParseCookie_WrongSecret(t *testing.T) {
	signed, _ := SignCookie([]byte("secret-a"), "abc123", time.Hour)
	if _, err := ParseCookie([]byte("secret-b"), signed); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError for bad signature, got %v", err)
	}
}

func TestParseCookie_Expired(t *testing.T) {
	secret := []byte("test-secret")
	signed, _ := SignCookie(secret, "abc123", -time.Minute)
	if _, err := ParseCookie(secret, signed); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError for expired cookie, got %v", err)
	}
}

func TestParseCookie_Garbage(t *testing.T) {
	if _, err := ParseCookie([]byte("secret"), "not-a-jwt"); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}
