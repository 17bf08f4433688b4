package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTicketTTL is how long a WebSocket ticket stays valid.
const DefaultTicketTTL = 60 * time.Second

// TicketStore issues single-use tickets that let a browser open a WebSocket
// without putting the JWT in the URL.
type TicketStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	tickets map[string]ticketEntry
}

type ticketEntry struct {
	claims    CustomClaims
	expiresAt time.Time
}

// NewTicketStore returns a store whose tickets expire after ttl.
func NewTicketStore(ttl time.Duration) *TicketStore {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &TicketStore{
		ttl:     ttl,
		now:     time.Now,
		tickets: make(map[string]ticketEntry),
	}
}

// Issue returns a new ticket bound to claims. Expired tickets are swept on
// each call.
func (s *TicketStore) Issue(claims CustomClaims) string {
	ticket := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.tickets {
		if now.After(e.expiresAt) {
			delete(s.tickets, k)
		}
	}
	s.tickets[ticket] = ticketEntry{claims: claims, expiresAt: now.Add(s.ttl)}
	return ticket
}

// Redeem consumes ticket and returns the claims it was issued for.
func (s *TicketStore) Redeem(ticket string) (*CustomClaims, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tickets[ticket]
	if !ok {
		return nil, false
	}
	delete(s.tickets, ticket)
	if s.now().After(entry.expiresAt) {
		return nil, false
	}
	return &entry.claims, true
}

// TTL returns the ticket lifetime.
func (s *TicketStore) TTL() time.Duration {
	return s.ttl
}
