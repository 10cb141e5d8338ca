package advisory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vortex-trading/vortex/internal/market"
)

// Provider produces verdicts for tokens. Implementations wrap external
// AI advisory services and must honour ctx deadlines.
type Provider interface {
	Analyze(ctx context.Context, snap market.TokenSnapshot) (*Verdict, error)
	Name() string
}

// Client wraps a Provider with a timeout and the conservative fallback.
// It never returns an error: unavailability degrades to a fixed verdict
// instead of propagating to the engine.
type Client struct {
	provider Provider
	timeout  time.Duration
}

// NewClient creates a Client. A zero timeout defaults to 5s.
func NewClient(provider Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{provider: provider, timeout: timeout}
}

// Consult queries the provider. Failures, timeouts, and malformed
// responses all degrade to the conservative verdict. The second return
// value reports whether the verdict is genuine; degraded verdicts must
// not drive auto-exits.
func (c *Client) Consult(ctx context.Context, snap market.TokenSnapshot) (Verdict, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.provider.Analyze(ctx, snap)
	if err != nil {
		log.Warn().Err(err).
			Str("provider", c.provider.Name()).
			Str("symbol", snap.Symbol).
			Msg("advisory unavailable, using conservative verdict")
		return Conservative(snap.Address), false
	}
	if v == nil {
		return Conservative(snap.Address), false
	}
	if err := v.Validate(); err != nil {
		log.Warn().Err(err).
			Str("provider", c.provider.Name()).
			Str("symbol", snap.Symbol).
			Msg("malformed advisory verdict, treating as absent")
		return Conservative(snap.Address), false
	}

	out := *v
	if out.Address == "" {
		out.Address = snap.Address
	}
	if out.ReceivedAt.IsZero() {
		out.ReceivedAt = time.Now()
	}
	return out, true
}

// StubProvider is a deterministic Provider for tests. It returns
// pre-loaded verdicts in order, cycling when exhausted.
type StubProvider struct {
	mu       sync.Mutex
	verdicts []Verdict
	idx      int
	healthy  bool
	calls    int
}

// NewStubProvider creates a StubProvider with the given verdicts.
func NewStubProvider(verdicts ...Verdict) *StubProvider {
	return &StubProvider{verdicts: verdicts, healthy: true}
}

// Analyze returns the next pre-loaded verdict, stamped with the
// snapshot's address.
func (s *StubProvider) Analyze(_ context.Context, snap market.TokenSnapshot) (*Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	if !s.healthy {
		return nil, fmt.Errorf("stub advisory unhealthy")
	}
	if len(s.verdicts) == 0 {
		return nil, fmt.Errorf("stub advisory has no verdicts configured")
	}

	v := s.verdicts[s.idx]
	s.idx = (s.idx + 1) % len(s.verdicts)
	if v.Address == "" {
		v.Address = snap.Address
	}
	v.ReceivedAt = time.Now()
	return &v, nil
}

// Name returns the provider's identifier.
func (s *StubProvider) Name() string { return "stub-advisory" }

// SetHealthy flips the provider between healthy and failing.
func (s *StubProvider) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// Calls returns the total number of Analyze() invocations.
func (s *StubProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
