package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	"github.com/info-evry/astro-ndi-sub000/pkg/platform/sentinel"
)

// InMemoryStore keeps archives in process memory for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	archives map[int]*Archive
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{archives: make(map[int]*Archive)}
}

func (s *InMemoryStore) Create(_ context.Context, a *Archive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.archives[a.EventYear]; exists {
		return sentinel.ErrConflict
	}
	clone := *a
	s.archives[a.EventYear] = &clone
	return nil
}

func (s *InMemoryStore) GetByYear(_ context.Context, year int) (*Archive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.archives[year]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *InMemoryStore) ListSummaries(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]Summary, 0, len(s.archives))
	for _, a := range s.archives {
		summaries = append(summaries, a.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].EventYear > summaries[j].EventYear
	})
	return summaries, nil
}

func (s *InMemoryStore) ListNonExpiredYears(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var years []int
	for year, a := range s.archives {
		if !a.IsExpired {
			years = append(years, year)
		}
	}
	sort.Ints(years)
	return years, nil
}

func (s *InMemoryStore) ApplyExpiration(_ context.Context, year int, members []registration.Member, events []registration.PaymentEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.archives[year]
	if !ok {
		return false, nil
	}
	if a.IsExpired {
		return false, nil
	}
	a.Members = members
	a.PaymentEvents = events
	a.IsExpired = true
	return true, nil
}
