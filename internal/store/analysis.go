package store

import (
	"sync"

	"github.com/vortex-trading/vortex/internal/advisory"
	"github.com/vortex-trading/vortex/internal/market"
	"github.com/vortex-trading/vortex/internal/narrative"
	"github.com/vortex-trading/vortex/internal/pump"
)

// AnalysisStore holds the per-address analysis caches behind one mutex.
// It is injected into components rather than accessed as ambient state;
// the engine's scan loop is the only writer, the tick and research loops
// read. Snapshots are replaced wholesale each scan and their arrival
// order is preserved for deterministic selection.
type AnalysisStore struct {
	mu         sync.RWMutex
	order      []string
	snapshots  map[string]market.TokenSnapshot
	pumps      map[string]pump.Analysis
	narratives map[string]narrative.Score
	advisories map[string]advisory.Verdict
}

// NewAnalysisStore creates an empty store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		snapshots:  make(map[string]market.TokenSnapshot),
		pumps:      make(map[string]pump.Analysis),
		narratives: make(map[string]narrative.Score),
		advisories: make(map[string]advisory.Verdict),
	}
}

// ReplaceSnapshots swaps in a fresh scan universe, keeping arrival order.
// Analyses for addresses that left the universe are dropped.
func (s *AnalysisStore) ReplaceSnapshots(batch []market.TokenSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.snapshots = make(map[string]market.TokenSnapshot, len(batch))
	for _, snap := range batch {
		if _, dup := s.snapshots[snap.Address]; dup {
			continue
		}
		s.order = append(s.order, snap.Address)
		s.snapshots[snap.Address] = snap
	}

	for addr := range s.pumps {
		if _, ok := s.snapshots[addr]; !ok {
			delete(s.pumps, addr)
		}
	}
	for addr := range s.narratives {
		if _, ok := s.snapshots[addr]; !ok {
			delete(s.narratives, addr)
		}
	}
	for addr := range s.advisories {
		if _, ok := s.snapshots[addr]; !ok {
			delete(s.advisories, addr)
		}
	}
}

// Snapshots returns the current universe in arrival order.
func (s *AnalysisStore) Snapshots() []market.TokenSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]market.TokenSnapshot, 0, len(s.order))
	for _, addr := range s.order {
		out = append(out, s.snapshots[addr])
	}
	return out
}

// Snapshot returns one snapshot by address.
func (s *AnalysisStore) Snapshot(address string) (market.TokenSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[address]
	return snap, ok
}

// SetPump stores a pump analysis.
func (s *AnalysisStore) SetPump(a pump.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pumps[a.Address] = a
}

// Pump returns the latest pump analysis for an address.
func (s *AnalysisStore) Pump(address string) (pump.Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.pumps[address]
	return a, ok
}

// Pumps returns all current pump analyses keyed by address.
func (s *AnalysisStore) Pumps() map[string]pump.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]pump.Analysis, len(s.pumps))
	for k, v := range s.pumps {
		out[k] = v
	}
	return out
}

// SetNarrative stores a narrative score.
func (s *AnalysisStore) SetNarrative(n narrative.Score) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.narratives[n.Address] = n
}

// Narrative returns the latest narrative score for an address.
func (s *AnalysisStore) Narrative(address string) (narrative.Score, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.narratives[address]
	return n, ok
}

// Narratives returns all current narrative scores keyed by address.
func (s *AnalysisStore) Narratives() map[string]narrative.Score {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]narrative.Score, len(s.narratives))
	for k, v := range s.narratives {
		out[k] = v
	}
	return out
}

// SetAdvisory stores a verdict.
func (s *AnalysisStore) SetAdvisory(v advisory.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advisories[v.Address] = v
}

// Advisory returns the latest verdict for an address.
func (s *AnalysisStore) Advisory(address string) (advisory.Verdict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.advisories[address]
	return v, ok
}
