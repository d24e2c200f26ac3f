package strategy

import (
	"fmt"
	"sync"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// Registry holds the evaluators the engine runs, in registration order.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	order  []domain.Strategy
	byName map[domain.Strategy]Strategy
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[domain.Strategy]Strategy)}
}

// NewDefaultRegistry registers the built-in evaluators in domain.AllStrategies
// order. When enabled is non-empty only the listed strategies are registered.
func NewDefaultRegistry(th Thresholds, enabled []domain.Strategy) (*Registry, error) {
	want := make(map[domain.Strategy]bool, len(enabled))
	for _, name := range enabled {
		if !name.Valid() {
			return nil, fmt.Errorf("strategy %q: unknown", name)
		}
		want[name] = true
	}

	builtins := map[domain.Strategy]Strategy{
		domain.StrategySpreadTrading:       NewSpreadTrading(th),
		domain.StrategyYesNoArbitrage:      NewYesNoArbitrage(th),
		domain.StrategyMarketMaking:        NewMarketMaking(th),
		domain.StrategyVolatilityBreakout:  NewVolatilityBreakout(th),
		domain.StrategyVolumeMomentum:      NewVolumeMomentum(th),
		domain.StrategyMeanReversion:       NewMeanReversion(th),
		domain.StrategyVolatilityExpansion: NewVolatilityExpansion(th),
		domain.StrategyVolumeSpike:         NewVolumeSpike(th),
	}

	r := NewRegistry()
	for _, name := range domain.AllStrategies() {
		if len(want) > 0 && !want[name] {
			continue
		}
		r.Register(builtins[name])
	}
	return r, nil
}

// Register adds s. A strategy registered twice under the same name replaces
// the earlier one but keeps its position.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[s.Name()]; !ok {
		r.order = append(r.order, s.Name())
	}
	r.byName[s.Name()] = s
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name domain.Strategy) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("strategy %q: not registered", name)
	}
	return s, nil
}

// List returns the registered names in registration order.
func (r *Registry) List() []domain.Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Strategy, len(r.order))
	copy(out, r.order)
	return out
}

// Strategies returns the registered evaluators in registration order.
func (r *Registry) Strategies() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Strategy, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
