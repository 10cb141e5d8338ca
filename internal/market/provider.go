package market

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Provider supplies the scan universe. Implementations are external
// collaborators (DexScreener REST, stub) and must honour ctx deadlines.
type Provider interface {
	// Snapshots returns the current scan universe.
	Snapshots(ctx context.Context) ([]TokenSnapshot, error)
	// Lookup returns the snapshot for a single address, or nil if unknown.
	Lookup(ctx context.Context, address string) (*TokenSnapshot, error)
	// Name identifies the provider.
	Name() string
}

// StubProvider is a deterministic Provider for tests and demo mode.
// It returns pre-loaded snapshot batches in order, cycling back to the
// start when all batches have been consumed.
type StubProvider struct {
	mu      sync.Mutex
	batches [][]TokenSnapshot
	idx     int
	healthy bool
	calls   int
}

// NewStubProvider creates a StubProvider with the given snapshot batches.
func NewStubProvider(batches ...[]TokenSnapshot) *StubProvider {
	return &StubProvider{
		batches: batches,
		healthy: true,
	}
}

// Snapshots returns the next pre-loaded batch. If the provider is marked
// unhealthy it returns an error; callers fall back to the last-known batch.
func (s *StubProvider) Snapshots(_ context.Context) ([]TokenSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	if !s.healthy {
		return nil, fmt.Errorf("stub provider unhealthy")
	}
	if len(s.batches) == 0 {
		return nil, nil
	}

	batch := s.batches[s.idx]
	s.idx = (s.idx + 1) % len(s.batches)

	out := make([]TokenSnapshot, len(batch))
	copy(out, batch)
	return out, nil
}

// Lookup searches the current batch for an address.
func (s *StubProvider) Lookup(_ context.Context, address string) (*TokenSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.healthy {
		return nil, fmt.Errorf("stub provider unhealthy")
	}
	for _, batch := range s.batches {
		for _, snap := range batch {
			if snap.Address == address {
				cp := snap
				return &cp, nil
			}
		}
	}
	return nil, nil
}

// Name returns the provider's identifier.
func (s *StubProvider) Name() string { return "stub" }

// SetHealthy flips the provider between healthy and failing.
func (s *StubProvider) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// Calls returns the total number of Snapshots() invocations.
func (s *StubProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// DemoUniverse returns a small fixed scan universe covering the interesting
// classifier phases, used by demo mode and examples.
func DemoUniverse() []TokenSnapshot {
	return []TokenSnapshot{
		{
			Address:        "So1MOONxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx1",
			Symbol:         "MOON",
			Name:           "Moonshot AI Agent",
			PriceUSD:       decimal.NewFromFloat(0.000156),
			PriceChange24h: 62.0,
			Volume24h:      480_000,
			Liquidity:      85_000,
			MarketCap:      620_000,
		},
		{
			Address:        "So1ROCKETxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx2",
			Symbol:         "ROCKET",
			Name:           "Rocket Dog",
			PriceUSD:       decimal.NewFromFloat(0.00234),
			PriceChange24h: 8.5,
			Volume24h:      210_000,
			Liquidity:      140_000,
			MarketCap:      1_900_000,
		},
		{
			Address:        "So1WAGMIxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx3",
			Symbol:         "WAGMI",
			Name:           "WAGMI Pepe",
			PriceUSD:       decimal.NewFromFloat(0.000891),
			PriceChange24h: -41.0,
			Volume24h:      1_450_000,
			Liquidity:      60_000,
			MarketCap:      520_000,
		},
	}
}
