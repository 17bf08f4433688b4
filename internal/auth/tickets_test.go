package auth

import (
	"testing"
	"time"
)

func TestTicketStore_SingleUse(t *testing.T) {
	store := NewTicketStore(time.Minute)
	claims := CustomClaims{Role: RoleViewer}
	claims.Subject = "viewer"

	ticket := store.Issue(claims)
	got, ok := store.Redeem(ticket)
	if !ok {
		t.Fatal("Redeem() of fresh ticket failed")
	}
	if got.Subject != "viewer" || got.Role != RoleViewer {
		t.Errorf("claims = %+v", got)
	}

	if _, ok := store.Redeem(ticket); ok {
		t.Error("ticket redeemed twice")
	}
	if _, ok := store.Redeem("never-issued"); ok {
		t.Error("unknown ticket redeemed")
	}
}

func TestTicketStore_Expiry(t *testing.T) {
	store := NewTicketStore(time.Second)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	stale := store.Issue(CustomClaims{Role: RoleAdmin})
	now = now.Add(2 * time.Second)

	if _, ok := store.Redeem(stale); ok {
		t.Error("expired ticket redeemed")
	}

	// Issuing sweeps expired entries.
	store.Issue(CustomClaims{Role: RoleAdmin})
	leftover := store.Issue(CustomClaims{Role: RoleAdmin})
	now = now.Add(2 * time.Second)
	store.Issue(CustomClaims{Role: RoleAdmin})
	if _, exists := store.tickets[leftover]; exists {
		t.Error("expired ticket not swept")
	}
}

func TestNewTicketStore_DefaultTTL(t *testing.T) {
	if ttl := NewTicketStore(0).TTL(); ttl != DefaultTicketTTL {
		t.Errorf("TTL() = %v, want %v", ttl, DefaultTicketTTL)
	}
}
