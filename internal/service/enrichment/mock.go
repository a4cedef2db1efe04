package enrichment

import (
	"context"
	"sync"
)

// Mock is an in-memory Service for tests.
type Mock struct {
	mu sync.Mutex

	Rate    float64
	RateErr error
	Fact    string
	FactErr error

	rateCalls int
	factCalls int
}

func (m *Mock) ExchangeRate(context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateCalls++
	if m.RateErr != nil {
		return 0, m.RateErr
	}
	return m.Rate, nil
}

func (m *Mock) FunFact(_ context.Context, maxChars int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factCalls++
	if m.FactErr != nil {
		return "", m.FactErr
	}
	return Truncate(m.Fact, maxChars), nil
}

// Calls returns how often each method ran.
func (m *Mock) Calls() (rate, fact int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rateCalls, m.factCalls
}

var _ Service = (*Mock)(nil)
