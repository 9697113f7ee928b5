package registration

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps registration data in process memory. Used by unit tests
// and local development without a database.
type InMemoryStore struct {
	mu            sync.RWMutex
	teams         []Team
	members       []Member
	paymentEvents []PaymentEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Seed replaces the store contents wholesale.
func (s *InMemoryStore) Seed(teams []Team, members []Member, events []PaymentEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = append([]Team{}, teams...)
	s.members = append([]Member{}, members...)
	s.paymentEvents = append([]PaymentEvent{}, events...)
}

func (s *InMemoryStore) ListTeams(_ context.Context) ([]Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Team{}, s.teams...), nil
}

func (s *InMemoryStore) ListMembers(_ context.Context) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Member{}, s.members...), nil
}

func (s *InMemoryStore) ListPaymentEvents(_ context.Context) ([]PaymentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PaymentEvent{}, s.paymentEvents...), nil
}

func (s *InMemoryStore) RegistrationMonths(_ context.Context) ([]MonthCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type bucket struct {
		year  int
		month int
	}
	counts := make(map[bucket]int)
	for _, m := range s.members {
		counts[bucket{m.CreatedAt.Year(), int(m.CreatedAt.Month())}]++
	}
	out := make([]MonthCount, 0, len(counts))
	for b, n := range counts {
		out = append(out, MonthCount{Year: b.year, Month: time.Month(b.month), Count: n})
	}
	return out, nil
}

func (s *InMemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Teams:         len(s.teams),
		Members:       len(s.members),
		PaymentEvents: len(s.paymentEvents),
	}, nil
}

func (s *InMemoryStore) DeleteAll(_ context.Context) (Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := Counts{
		Teams:         len(s.teams),
		Members:       len(s.members),
		PaymentEvents: len(s.paymentEvents),
	}
	s.paymentEvents = nil
	s.members = nil
	s.teams = nil
	return deleted, nil
}
