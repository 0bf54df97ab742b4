// Package engine orchestrates the learning core: the event-triggered fast path
// and the nightly batch reconciliation over the statistics stores.
package engine

import (
	"context"
	"time"

	"croplearn/domain/core"
	"croplearn/domain/learning"
	"croplearn/internal"
	"croplearn/internal/errors"
	"croplearn/internal/inference"
	"croplearn/ports"
)

// Options configures an Orchestrator.
type Options struct {
	Params           learning.Params
	LockTimeout      time.Duration
	BatchParallelism int
	Logger           *internal.Logger
}

// Orchestrator applies incoming order/harvest events to the statistics stores
// (fast path) and rebuilds the dashboard aggregate (batch path).
type Orchestrator struct {
	stats     ports.StatsStore
	alerts    ports.AlertStore
	dashboard ports.DashboardStore

	locks   *keyLock
	params  learning.Params
	log     *internal.Logger
	metrics Metrics

	batchParallelism int
}

// New creates an orchestrator over the given stores.
func New(stats ports.StatsStore, alerts ports.AlertStore, dashboard ports.DashboardStore, opts Options) *Orchestrator {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if opts.BatchParallelism < 1 {
		opts.BatchParallelism = 8
	}
	logger := opts.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Orchestrator{
		stats:            stats,
		alerts:           alerts,
		dashboard:        dashboard,
		locks:            newKeyLock(opts.LockTimeout),
		params:           opts.Params,
		log:              logger.Named("Engine"),
		batchParallelism: opts.BatchParallelism,
	}
}

// Metrics exposes the engine counters.
func (o *Orchestrator) Metrics() MetricsSnapshot {
	return o.metrics.Snapshot()
}

// Params returns the active parameter set.
func (o *Orchestrator) Params() learning.Params {
	return o.params
}

// IngestOrder runs the fast path for one order event: per line item, resolve
// the stats key, detect against the pre-update distribution, fold the
// observation in, persist, and emit an alert when flagged. Each line is
// serialized under its own key lock; failures affect only the failing line.
// The caller does not re-deliver events, so a failed line is logged and
// counted, never retried here.
func (o *Orchestrator) IngestOrder(ctx context.Context, event learning.OrderEvent) ([]learning.AnomalyResult, error) {
	if err := event.Validate(); err != nil {
		o.metrics.EventsSkipped.Add(1)
		o.log.Warn("skipping malformed order event %s: %v", event.EventID, err)
		return nil, errors.EventInvalid("order event rejected", err)
	}

	customerKey := learning.DeriveCustomerKey(event.Customer)
	results := make([]learning.AnomalyResult, 0, len(event.Lines))
	var firstErr error

	for _, line := range event.Lines {
		pair := learning.PairKey{
			Customer: customerKey,
			Crop:     learning.DeriveCropKey(line.Crop),
		}

		result, err := o.applyOrderLine(ctx, pair, event, line)
		if err != nil {
			o.metrics.EventsDropped.Add(1)
			o.log.Error("dropped order line for %s: %v", pair.String(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, result)
		o.metrics.OrdersProcessed.Add(1)
	}

	return results, firstErr
}

func (o *Orchestrator) applyOrderLine(ctx context.Context, pair learning.PairKey, event learning.OrderEvent, line learning.OrderLine) (learning.AnomalyResult, error) {
	lockKey := pair.String()
	if err := o.locks.Acquire(ctx, lockKey); err != nil {
		return learning.AnomalyResult{}, err
	}
	defer o.locks.Release(lockKey)

	stats, err := o.stats.GetPair(ctx, pair)
	if err != nil {
		return learning.AnomalyResult{}, errors.StoreError("load pair stats", err)
	}
	if stats == nil {
		stats = learning.NewCustomerCropStats(pair, event.CustomerName, line.CropName)
	}

	// Detection runs before the observation is folded in, so the first
	// anomalous order is judged against the distribution it deviates from.
	detection := inference.CheckOrderAnomaly(stats, line.Quantity, o.params)

	inference.ApplyOrder(stats, line.Quantity, event.OrderDate, o.params)

	if err := o.stats.PutPair(ctx, stats); err != nil {
		return learning.AnomalyResult{}, errors.StoreError("persist pair stats", err)
	}

	if detection.IsAnomaly {
		alert := learning.NewAlert(learning.AlertOrderAnomaly, pair.Customer, pair.Crop, detection)
		if err := o.alerts.Append(ctx, alert); err != nil {
			// The stats update already landed; losing the alert is a
			// reporting gap, not a corruption. Log and count it.
			o.log.Error("failed to append order anomaly alert for %s: %v", pair.String(), err)
		} else {
			o.metrics.AlertsEmitted.Add(1)
			o.log.Info("order anomaly for %s: observed %.2f outside [%.2f, %.2f] (%s)",
				pair.String(), detection.Observed, detection.ExpectedLow, detection.ExpectedHigh, detection.Method)
		}
	}

	return detection, nil
}

// IngestHarvest runs the fast path for one harvest event against the crop's
// yield profile.
func (o *Orchestrator) IngestHarvest(ctx context.Context, event learning.HarvestEvent) (learning.AnomalyResult, error) {
	if err := event.Validate(); err != nil {
		o.metrics.EventsSkipped.Add(1)
		o.log.Warn("skipping malformed harvest event %s: %v", event.EventID, err)
		return learning.AnomalyResult{}, errors.EventInvalid("harvest event rejected", err)
	}

	yield, _ := event.Yield()
	crop := learning.DeriveCropKey(event.Crop)
	lockKey := "yield|" + crop.String()

	if err := o.locks.Acquire(ctx, lockKey); err != nil {
		o.metrics.EventsDropped.Add(1)
		return learning.AnomalyResult{}, err
	}
	defer o.locks.Release(lockKey)

	profile, err := o.stats.GetYieldProfile(ctx, crop)
	if err != nil {
		o.metrics.EventsDropped.Add(1)
		return learning.AnomalyResult{}, errors.StoreError("load yield profile", err)
	}
	if profile == nil {
		profile = learning.NewYieldProfile(crop, event.CropName, yield, o.params.DefaultBufferPct)
	}

	detection := inference.CheckYieldOutlier(profile, yield, o.params)

	inference.ApplyHarvest(profile, yield, event.HarvestDate, o.params)

	if err := o.stats.PutYieldProfile(ctx, profile); err != nil {
		o.metrics.EventsDropped.Add(1)
		return learning.AnomalyResult{}, errors.StoreError("persist yield profile", err)
	}

	if detection.IsAnomaly {
		alert := learning.NewAlert(learning.AlertYieldOutlier, "", crop, detection)
		if err := o.alerts.Append(ctx, alert); err != nil {
			o.log.Error("failed to append yield outlier alert for %s: %v", crop, err)
		} else {
			o.metrics.AlertsEmitted.Add(1)
		}
	}

	o.metrics.HarvestsProcessed.Add(1)
	return detection, nil
}

// Predict returns the forecast for a pair, or NOT_FOUND when no order has
// ever been observed for it.
func (o *Orchestrator) Predict(ctx context.Context, pair learning.PairKey) (learning.Prediction, error) {
	stats, err := o.stats.GetPair(ctx, pair)
	if err != nil {
		return learning.Prediction{}, errors.StoreError("load pair stats", err)
	}
	if stats == nil {
		return learning.Prediction{}, errors.NotFound("stats for pair " + pair.String())
	}
	return inference.Predict(stats, core.Now(), o.params), nil
}

// PreviewOrderAnomaly evaluates a hypothetical quantity against a pair's
// current distribution without mutating any state.
func (o *Orchestrator) PreviewOrderAnomaly(ctx context.Context, pair learning.PairKey, quantity float64) (learning.AnomalyResult, error) {
	stats, err := o.stats.GetPair(ctx, pair)
	if err != nil {
		return learning.AnomalyResult{}, errors.StoreError("load pair stats", err)
	}
	if stats == nil {
		stats = learning.NewCustomerCropStats(pair, "", "")
	}
	return inference.CheckOrderAnomaly(stats, quantity, o.params), nil
}

// BufferRecommendation returns the production buffer percent for a crop. A
// crop with no harvest history gets the configured default.
func (o *Orchestrator) BufferRecommendation(ctx context.Context, crop learning.CropKey) (int, error) {
	profile, err := o.stats.GetYieldProfile(ctx, crop)
	if err != nil {
		return 0, errors.StoreError("load yield profile", err)
	}
	if profile == nil {
		return o.params.DefaultBufferPct, nil
	}
	return inference.BufferPercent(profile, o.params), nil
}

// DismissAlert transitions one alert to dismissed.
func (o *Orchestrator) DismissAlert(ctx context.Context, id core.AlertID) error {
	return o.alerts.Dismiss(ctx, id)
}

// DismissAllAlerts transitions every pending alert to dismissed.
func (o *Orchestrator) DismissAllAlerts(ctx context.Context) (int, error) {
	return o.alerts.DismissAll(ctx)
}

// PendingAlerts lists alerts awaiting operator action.
func (o *Orchestrator) PendingAlerts(ctx context.Context) ([]*learning.Alert, error) {
	return o.alerts.ListPending(ctx)
}

// LatestDashboard returns the most recently published aggregate, or nil when
// the nightly pass has never run.
func (o *Orchestrator) LatestDashboard(ctx context.Context) (*learning.DashboardSummary, error) {
	return o.dashboard.Latest(ctx)
}
