// Package testkit generates deterministic order and harvest streams for
// engine tests and local seeding.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"croplearn/domain/core"
	"croplearn/domain/learning"
)

// StreamConfig configures the event stream generator.
type StreamConfig struct {
	CustomerCount     int       `json:"customer_count"`
	CropCount         int       `json:"crop_count"`
	OrdersPerPair     int       `json:"orders_per_pair"`
	HarvestsPerCrop   int       `json:"harvests_per_crop"`
	BaseQuantity      float64   `json:"base_quantity"`
	QuantityJitterPct float64   `json:"quantity_jitter_pct"`
	CadenceDays       float64   `json:"cadence_days"`
	AnomalyRate       float64   `json:"anomaly_rate"`
	StartDate         time.Time `json:"start_date"`
	Seed              int64     `json:"seed"`
}

// DefaultStreamConfig returns defaults that produce settled, predictable
// distributions with an occasional deliberate spike.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		CustomerCount:     8,
		CropCount:         5,
		OrdersPerPair:     12,
		HarvestsPerCrop:   6,
		BaseQuantity:      10,
		QuantityJitterPct: 0.10,
		CadenceDays:       7,
		AnomalyRate:       0.02,
		StartDate:         time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		Seed:              42,
	}
}

// StreamGenerator produces order and harvest event streams.
type StreamGenerator struct {
	config StreamConfig
	rng    *rand.Rand
}

// NewStreamGenerator creates a generator over a seeded source, so the same
// config always yields the same stream.
func NewStreamGenerator(config StreamConfig) *StreamGenerator {
	return &StreamGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Orders generates the full order stream, sorted by order date.
func (g *StreamGenerator) Orders() []learning.OrderEvent {
	var events []learning.OrderEvent
	for c := 0; c < g.config.CustomerCount; c++ {
		customer := learning.CustomerIdentity{
			Email:       fmt.Sprintf("customer%02d@example.com", c+1),
			DisplayName: fmt.Sprintf("Customer %02d", c+1),
		}
		for p := 0; p < g.config.CropCount; p++ {
			crop := g.cropIdentity(p)
			events = append(events, g.pairHistory(customer, crop)...)
		}
	}
	sortByDate(events)
	return events
}

// Harvests generates the harvest stream for every crop.
func (g *StreamGenerator) Harvests() []learning.HarvestEvent {
	var events []learning.HarvestEvent
	for p := 0; p < g.config.CropCount; p++ {
		crop := g.cropIdentity(p)
		baseYield := 6.0 + float64(p)
		when := g.config.StartDate
		for h := 0; h < g.config.HarvestsPerCrop; h++ {
			yield := baseYield * g.jitter()
			events = append(events, learning.HarvestEvent{
				EventID:      core.NewEventID(),
				Crop:         crop,
				CropName:     crop.Title,
				YieldPerTray: &yield,
				HarvestDate:  core.NewTimestamp(when),
			})
			when = when.AddDate(0, 0, int(g.config.CadenceDays))
		}
	}
	return events
}

func (g *StreamGenerator) pairHistory(customer learning.CustomerIdentity, crop learning.CropIdentity) []learning.OrderEvent {
	events := make([]learning.OrderEvent, 0, g.config.OrdersPerPair)
	when := g.config.StartDate.Add(time.Duration(g.rng.Intn(48)) * time.Hour)

	for i := 0; i < g.config.OrdersPerPair; i++ {
		quantity := g.config.BaseQuantity * g.jitter()
		if g.rng.Float64() < g.config.AnomalyRate {
			quantity = g.config.BaseQuantity * 6 // deliberate spike
		}
		events = append(events, learning.OrderEvent{
			EventID:      core.NewEventID(),
			Customer:     customer,
			CustomerName: customer.DisplayName,
			Lines: []learning.OrderLine{{
				Crop:     crop,
				CropName: crop.Title,
				Quantity: math.Round(quantity*100) / 100,
			}},
			OrderDate: core.NewTimestamp(when),
		})

		// Cadence wobbles around the configured interval by up to a day.
		wobble := time.Duration((g.rng.Float64()*2 - 1) * 24 * float64(time.Hour))
		when = when.AddDate(0, 0, int(g.config.CadenceDays)).Add(wobble)
	}
	return events
}

func (g *StreamGenerator) cropIdentity(index int) learning.CropIdentity {
	names := []string{"Sunflower Shoots", "Pea Shoots", "Radish Mix", "Arugula", "Basil", "Wheatgrass", "Broccoli", "Cilantro"}
	return learning.CropIdentity{Title: names[index%len(names)]}
}

func (g *StreamGenerator) jitter() float64 {
	spread := g.config.QuantityJitterPct
	return 1 + (g.rng.Float64()*2-1)*spread
}

func sortByDate(events []learning.OrderEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].OrderDate.Before(events[j].OrderDate)
	})
}
