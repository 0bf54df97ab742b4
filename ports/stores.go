// Package ports defines the boundaries between the learning engine and its
// collaborators. The engine is specified over an abstract keyed statistics
// store; persistence technology is an adapter concern.
package ports

import (
	"context"

	"croplearn/domain/core"
	"croplearn/domain/learning"
)

// StatsStore persists per-key accumulator records. Get returns (nil, nil) for
// a key with no record yet: lazy creation is the orchestrator's job. List
// returns a point-in-time snapshot of copies; mutating a listed record never
// affects the stored state.
type StatsStore interface {
	GetPair(ctx context.Context, pair learning.PairKey) (*learning.CustomerCropStats, error)
	PutPair(ctx context.Context, stats *learning.CustomerCropStats) error
	ListPairs(ctx context.Context) ([]*learning.CustomerCropStats, error)

	GetYieldProfile(ctx context.Context, crop learning.CropKey) (*learning.YieldProfile, error)
	PutYieldProfile(ctx context.Context, profile *learning.YieldProfile) error
	ListYieldProfiles(ctx context.Context) ([]*learning.YieldProfile, error)
}

// AlertStore is an append-only alert log. The only mutation is the
// pending -> dismissed status transition.
type AlertStore interface {
	Append(ctx context.Context, alert *learning.Alert) error
	Dismiss(ctx context.Context, id core.AlertID) error
	DismissAll(ctx context.Context) (int, error)
	ListPending(ctx context.Context) ([]*learning.Alert, error)
}

// DashboardStore holds the singleton nightly aggregate. Publish replaces the
// summary wholesale; it is never patched incrementally.
type DashboardStore interface {
	Publish(ctx context.Context, summary *learning.DashboardSummary) error
	Latest(ctx context.Context) (*learning.DashboardSummary, error)
}
