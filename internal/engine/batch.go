package engine

import (
	"context"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"croplearn/domain/core"
	"croplearn/domain/learning"
	"croplearn/internal/errors"
	"croplearn/internal/inference"
)

// RunNightly rebuilds the dashboard aggregate from a point-in-time snapshot of
// every stats record. The pass only reads per-key records and republishes a
// derived view, so it runs concurrently with fast-path writes without any
// lock; the dashboard simply lags to the start of the run. A single key's
// recomputation error is skipped and counted, never aborts the pass.
func (o *Orchestrator) RunNightly(ctx context.Context) (*learning.DashboardSummary, error) {
	o.metrics.BatchRuns.Add(1)
	startedAt := core.Now()

	pairs, err := o.stats.ListPairs(ctx)
	if err != nil {
		return nil, errors.BatchFailed("list pair stats", err)
	}
	profiles, err := o.stats.ListYieldProfiles(ctx)
	if err != nil {
		return nil, errors.BatchFailed("list yield profiles", err)
	}

	summaries := make([]keySummary, len(pairs))
	skipped := 0

	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(o.batchParallelism))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, record := range pairs {
		i, record := i, record
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			summary, err := o.summarizeKey(record, startedAt)
			if err != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				o.metrics.BatchKeyErrors.Add(1)
				o.log.Error("nightly recompute skipped %s: %v", record.Pair().String(), err)
				return nil
			}
			summaries[i] = summary
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, errors.BatchFailed("nightly pass aborted", err)
	}

	dashboard := o.rollup(summaries, len(profiles), skipped, startedAt)
	if err := o.dashboard.Publish(ctx, dashboard); err != nil {
		return nil, errors.BatchFailed("publish dashboard summary", err)
	}

	o.log.Info("nightly pass complete: %d pairs, %d crops, %d skipped", dashboard.PairCount, dashboard.CropCount, skipped)
	return dashboard, nil
}

// keySummary is the per-record slice of the nightly rollup.
type keySummary struct {
	confidence float64
	level      learning.ConfidenceLevel
	trend      learning.TrendDirection
	mape       float64
	scored     bool
	predicted  bool
}

func (o *Orchestrator) summarizeKey(record *learning.CustomerCropStats, now core.Timestamp) (keySummary, error) {
	if record.Quantity.Count < 0 || record.Quantity.M2 < 0 {
		return keySummary{}, errors.InternalError("corrupt accumulator state for " + record.Pair().String())
	}

	score, _ := inference.Confidence(record, now, o.params)
	trend := inference.TrendOf(record, o.params)

	return keySummary{
		confidence: score,
		level:      inference.Level(score),
		trend:      trend.Direction,
		mape:       record.MAPE(),
		scored:     record.TotalPredictions > 0,
		predicted:  record.EWMA != nil,
	}, nil
}

func (o *Orchestrator) rollup(summaries []keySummary, cropCount, skipped int, generatedAt core.Timestamp) *learning.DashboardSummary {
	dashboard := &learning.DashboardSummary{
		GeneratedAt:      generatedAt,
		CropCount:        cropCount,
		SkippedKeys:      skipped,
		ConfidenceCounts: make(map[learning.ConfidenceLevel]int),
		TrendCounts:      make(map[learning.TrendDirection]int),
	}

	var confidences []float64
	var mapeSum float64
	var mapeCount int

	for _, s := range summaries {
		if s.level == "" {
			continue // skipped key
		}
		dashboard.PairCount++
		if s.predicted {
			dashboard.PredictedKeys++
		}
		dashboard.ConfidenceCounts[s.level]++
		dashboard.TrendCounts[s.trend]++
		confidences = append(confidences, s.confidence)
		if s.scored {
			mapeSum += s.mape
			mapeCount++
		}
	}

	if len(confidences) > 0 {
		dashboard.AvgConfidence, _ = stats.Mean(confidences)
		dashboard.MedianConfidence, _ = stats.Median(confidences)
		dashboard.P90Confidence, _ = stats.Percentile(confidences, 90)
	}
	if mapeCount > 0 {
		dashboard.MeanAbsPercentError = mapeSum / float64(mapeCount)
	}

	return dashboard
}
