package routing

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// Sequencer orders a roster of stops by shortest distance from the driver.
type Sequencer struct {
	eta *Estimator
}

// NewSequencer returns a Sequencer. With a nil estimator the plan carries
// distances only and PlanEntry.ETAMinutes stays nil.
func NewSequencer(eta *Estimator) *Sequencer {
	return &Sequencer{eta: eta}
}

// Sequence computes the dispatch plan for driver against stops.
//
// Stops are sorted ascending by resolved distance; equal distances keep
// their roster order. Unreachable stops (+Inf) sort last. An empty roster
// yields an empty plan. The returned plan has no EventID or GeneratedAt;
// callers stamp those.
func (s *Sequencer) Sequence(driver domain.Coordinate, stops []domain.Stop) (*domain.DispatchPlan, error) {
	if err := driver.Validate(); err != nil {
		return nil, fmt.Errorf("sequence: driver: %w", err)
	}
	for i, st := range stops {
		if err := st.Location.Validate(); err != nil {
			return nil, fmt.Errorf("sequence: roster[%d]: %w", i, err)
		}
	}

	g, err := BuildRouteGraph(driver, stops)
	if err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}

	entries := make([]domain.PlanEntry, 0, len(stops))
	for _, st := range stops {
		node, _ := g.Node(st.SubscriberID)
		d := g.ShortestDistance(DriverNode, node)
		entry := domain.PlanEntry{SubscriberID: st.SubscriberID, DistanceKm: d}
		if s.eta != nil {
			minutes := s.eta.Minutes(d)
			entry.ETAMinutes = &minutes
		}
		entries = append(entries, entry)
	}

	slices.SortStableFunc(entries, func(a, b domain.PlanEntry) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})
	for i := range entries {
		entries[i].Sequence = i
	}

	return &domain.DispatchPlan{Driver: driver, Entries: entries}, nil
}
