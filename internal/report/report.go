// Package report composes the operator-facing learning report. The report is
// authored as markdown from the latest dashboard aggregate and pending alerts,
// then rendered to HTML for the web surface.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"croplearn/domain/learning"
)

// Builder renders learning reports.
type Builder struct{}

// NewBuilder creates a report builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Markdown composes the report body. A nil summary yields a placeholder page
// telling the operator the nightly pass has not run yet.
func (b *Builder) Markdown(summary *learning.DashboardSummary, alerts []*learning.Alert) string {
	var sb strings.Builder
	sb.WriteString("# Learning Report\n\n")

	if summary == nil {
		sb.WriteString("No dashboard summary has been published yet. ")
		sb.WriteString("The nightly reconciliation pass builds the first one.\n")
		b.writeAlerts(&sb, alerts)
		return sb.String()
	}

	fmt.Fprintf(&sb, "Generated at %s.\n\n", summary.GeneratedAt.String())

	sb.WriteString("## Coverage\n\n")
	fmt.Fprintf(&sb, "- Customer/crop pairs tracked: **%d**\n", summary.PairCount)
	fmt.Fprintf(&sb, "- Pairs with an active forecast: **%d**\n", summary.PredictedKeys)
	fmt.Fprintf(&sb, "- Crops with yield history: **%d**\n", summary.CropCount)
	if summary.SkippedKeys > 0 {
		fmt.Fprintf(&sb, "- Pairs skipped during the last rebuild: **%d**\n", summary.SkippedKeys)
	}
	sb.WriteString("\n")

	sb.WriteString("## Forecast Quality\n\n")
	fmt.Fprintf(&sb, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Average confidence | %.1f |\n", summary.AvgConfidence)
	fmt.Fprintf(&sb, "| Median confidence | %.1f |\n", summary.MedianConfidence)
	fmt.Fprintf(&sb, "| P90 confidence | %.1f |\n", summary.P90Confidence)
	fmt.Fprintf(&sb, "| Mean absolute percent error | %.1f%% |\n", summary.MeanAbsPercentError)
	sb.WriteString("\n")

	b.writeDistribution(&sb, "Confidence Bands", confidenceRows(summary.ConfidenceCounts))
	b.writeDistribution(&sb, "Trend Directions", trendRows(summary.TrendCounts))
	b.writeAlerts(&sb, alerts)

	return sb.String()
}

// HTML renders the report body to an HTML document fragment.
func (b *Builder) HTML(summary *learning.DashboardSummary, alerts []*learning.Alert) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(b.Markdown(summary, alerts)), p, renderer)
}

type distributionRow struct {
	label string
	count int
}

func (b *Builder) writeDistribution(sb *strings.Builder, heading string, rows []distributionRow) {
	fmt.Fprintf(sb, "## %s\n\n", heading)
	if len(rows) == 0 {
		sb.WriteString("No data yet.\n\n")
		return
	}
	sb.WriteString("| Band | Pairs |\n|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(sb, "| %s | %d |\n", row.label, row.count)
	}
	sb.WriteString("\n")
}

func (b *Builder) writeAlerts(sb *strings.Builder, alerts []*learning.Alert) {
	sb.WriteString("## Pending Alerts\n\n")
	if len(alerts) == 0 {
		sb.WriteString("None.\n")
		return
	}
	for _, alert := range alerts {
		subject := string(alert.CropKey)
		if alert.CustomerKey != "" {
			subject = string(alert.CustomerKey) + " / " + subject
		}
		fmt.Fprintf(sb, "- **%s** %s: observed %.2f, expected %.2f to %.2f (%s)\n",
			alert.Type, subject,
			alert.Detection.Observed, alert.Detection.ExpectedLow,
			alert.Detection.ExpectedHigh, alert.Detection.Method)
	}
}

func confidenceRows(counts map[learning.ConfidenceLevel]int) []distributionRow {
	order := []learning.ConfidenceLevel{
		learning.ConfidenceHigh,
		learning.ConfidenceMedium,
		learning.ConfidenceLow,
	}
	return orderedRows(counts, order)
}

func trendRows(counts map[learning.TrendDirection]int) []distributionRow {
	order := []learning.TrendDirection{
		learning.TrendIncreasing,
		learning.TrendStable,
		learning.TrendDecreasing,
		learning.TrendInsufficientData,
	}
	return orderedRows(counts, order)
}

func orderedRows[K ~string](counts map[K]int, order []K) []distributionRow {
	rows := make([]distributionRow, 0, len(counts))
	seen := make(map[K]bool, len(order))
	for _, key := range order {
		seen[key] = true
		if n, ok := counts[key]; ok {
			rows = append(rows, distributionRow{label: string(key), count: n})
		}
	}
	extras := make([]string, 0)
	for key := range counts {
		if !seen[key] {
			extras = append(extras, string(key))
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		rows = append(rows, distributionRow{label: key, count: counts[K(key)]})
	}
	return rows
}
