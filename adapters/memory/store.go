// Package memory provides in-process store adapters backed by maps. Used for
// tests and for deployments without a database; per-key write serialization is
// still enforced by the engine's key locks, the store only guards its maps.
package memory

import (
	"context"
	"sync"

	"croplearn/domain/core"
	"croplearn/domain/learning"
	"croplearn/internal/errors"
)

// Store implements ports.StatsStore, ports.AlertStore and ports.DashboardStore.
type Store struct {
	mu        sync.RWMutex
	pairs     map[string]*learning.CustomerCropStats
	yields    map[learning.CropKey]*learning.YieldProfile
	alerts    []*learning.Alert
	alertIdx  map[core.AlertID]*learning.Alert
	dashboard *learning.DashboardSummary
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		pairs:    make(map[string]*learning.CustomerCropStats),
		yields:   make(map[learning.CropKey]*learning.YieldProfile),
		alertIdx: make(map[core.AlertID]*learning.Alert),
	}
}

// Reset drops all state. Used by replay/determinism tests.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = make(map[string]*learning.CustomerCropStats)
	s.yields = make(map[learning.CropKey]*learning.YieldProfile)
	s.alerts = nil
	s.alertIdx = make(map[core.AlertID]*learning.Alert)
	s.dashboard = nil
}

// --- StatsStore ---

func (s *Store) GetPair(_ context.Context, pair learning.PairKey) (*learning.CustomerCropStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.pairs[pair.String()]
	if !ok {
		return nil, nil
	}
	return stats.Clone(), nil
}

func (s *Store) PutPair(_ context.Context, stats *learning.CustomerCropStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[stats.Pair().String()] = stats.Clone()
	return nil
}

func (s *Store) ListPairs(_ context.Context) ([]*learning.CustomerCropStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*learning.CustomerCropStats, 0, len(s.pairs))
	for _, stats := range s.pairs {
		out = append(out, stats.Clone())
	}
	return out, nil
}

func (s *Store) GetYieldProfile(_ context.Context, crop learning.CropKey) (*learning.YieldProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.yields[crop]
	if !ok {
		return nil, nil
	}
	return profile.Clone(), nil
}

func (s *Store) PutYieldProfile(_ context.Context, profile *learning.YieldProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.yields[profile.CropKey] = profile.Clone()
	return nil
}

func (s *Store) ListYieldProfiles(_ context.Context) ([]*learning.YieldProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*learning.YieldProfile, 0, len(s.yields))
	for _, profile := range s.yields {
		out = append(out, profile.Clone())
	}
	return out, nil
}

// --- AlertStore ---

func (s *Store) Append(_ context.Context, alert *learning.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *alert
	s.alerts = append(s.alerts, &copied)
	s.alertIdx[copied.ID] = &copied
	return nil
}

func (s *Store) Dismiss(_ context.Context, id core.AlertID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert, ok := s.alertIdx[id]
	if !ok {
		return errors.NotFound("alert " + id.String())
	}
	alert.Status = learning.AlertDismissed
	return nil
}

func (s *Store) DismissAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dismissed := 0
	for _, alert := range s.alerts {
		if alert.Status == learning.AlertPending {
			alert.Status = learning.AlertDismissed
			dismissed++
		}
	}
	return dismissed, nil
}

func (s *Store) ListPending(_ context.Context) ([]*learning.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*learning.Alert
	for _, alert := range s.alerts {
		if alert.Status == learning.AlertPending {
			copied := *alert
			out = append(out, &copied)
		}
	}
	return out, nil
}

// --- DashboardStore ---

func (s *Store) Publish(_ context.Context, summary *learning.DashboardSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard = cloneSummary(summary)
	return nil
}

func (s *Store) Latest(_ context.Context) (*learning.DashboardSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dashboard == nil {
		return nil, nil
	}
	return cloneSummary(s.dashboard), nil
}

// cloneSummary deep-copies the count maps so neither side can mutate the
// other's view, matching the Clone isolation of the stats records.
func cloneSummary(summary *learning.DashboardSummary) *learning.DashboardSummary {
	copied := *summary
	if summary.ConfidenceCounts != nil {
		copied.ConfidenceCounts = make(map[learning.ConfidenceLevel]int, len(summary.ConfidenceCounts))
		for k, v := range summary.ConfidenceCounts {
			copied.ConfidenceCounts[k] = v
		}
	}
	if summary.TrendCounts != nil {
		copied.TrendCounts = make(map[learning.TrendDirection]int, len(summary.TrendCounts))
		for k, v := range summary.TrendCounts {
			copied.TrendCounts[k] = v
		}
	}
	return &copied
}
