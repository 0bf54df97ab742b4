// Package excel reads historical order and harvest workbooks for backfill
// replay. One row becomes one canonical event; rows that fail to parse are
// reported, not silently coerced.
package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"croplearn/domain/core"
	"croplearn/domain/learning"
)

// Sheet names expected in a history workbook. The harvest sheet is optional.
const (
	OrdersSheet   = "Orders"
	HarvestsSheet = "Harvests"
)

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// History is the parsed content of a workbook, in row order.
type History struct {
	Orders   []learning.OrderEvent
	Harvests []learning.HarvestEvent
	Skipped  []string // per-row parse failures, for the caller to log
}

// Reader loads history workbooks.
type Reader struct {
	filePath string
}

// NewReader creates a reader for the given workbook path.
func NewReader(filePath string) *Reader {
	return &Reader{filePath: filePath}
}

// Read parses the workbook into canonical events.
func (r *Reader) Read() (*History, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", r.filePath, err)
	}
	defer f.Close()

	history := &History{}

	if err := r.readOrders(f, history); err != nil {
		return nil, err
	}
	if err := r.readHarvests(f, history); err != nil {
		return nil, err
	}

	return history, nil
}

func (r *Reader) readOrders(f *excelize.File, history *History) error {
	rows, err := f.GetRows(OrdersSheet)
	if err != nil {
		return fmt.Errorf("failed to read %s sheet: %w", OrdersSheet, err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("%s sheet has no data rows", OrdersSheet)
	}

	columns := indexColumns(rows[0])
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header

		quantity, err := strconv.ParseFloat(cell(row, columns, "quantity"), 64)
		if err != nil {
			history.Skipped = append(history.Skipped, fmt.Sprintf("%s row %d: bad quantity: %v", OrdersSheet, rowNum, err))
			continue
		}
		orderDate, err := parseDate(cell(row, columns, "ordered_at"))
		if err != nil {
			history.Skipped = append(history.Skipped, fmt.Sprintf("%s row %d: bad date: %v", OrdersSheet, rowNum, err))
			continue
		}

		history.Orders = append(history.Orders, learning.OrderEvent{
			EventID: core.NewEventID(),
			Customer: learning.CustomerIdentity{
				Email:       cell(row, columns, "customer_email"),
				CustomerID:  cell(row, columns, "customer_id"),
				DisplayName: cell(row, columns, "customer_name"),
			},
			CustomerName: cell(row, columns, "customer_name"),
			Lines: []learning.OrderLine{{
				Crop: learning.CropIdentity{
					Title:     cell(row, columns, "product"),
					ProductID: cell(row, columns, "product_id"),
				},
				CropName: cell(row, columns, "product"),
				Quantity: quantity,
			}},
			OrderDate: core.NewTimestamp(orderDate),
		})
	}
	return nil
}

func (r *Reader) readHarvests(f *excelize.File, history *History) error {
	rows, err := f.GetRows(HarvestsSheet)
	if err != nil {
		// The harvest sheet is optional; a workbook with only orders is fine.
		return nil
	}
	if len(rows) < 2 {
		return nil
	}

	columns := indexColumns(rows[0])
	for i, row := range rows[1:] {
		rowNum := i + 2

		harvestDate, err := parseDate(cell(row, columns, "harvested_at"))
		if err != nil {
			history.Skipped = append(history.Skipped, fmt.Sprintf("%s row %d: bad date: %v", HarvestsSheet, rowNum, err))
			continue
		}

		event := learning.HarvestEvent{
			EventID: core.NewEventID(),
			Crop: learning.CropIdentity{
				Title:     cell(row, columns, "crop"),
				ProductID: cell(row, columns, "crop_id"),
			},
			CropName:    cell(row, columns, "crop"),
			HarvestDate: core.NewTimestamp(harvestDate),
		}

		if raw := cell(row, columns, "yield_per_tray"); raw != "" {
			yield, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				history.Skipped = append(history.Skipped, fmt.Sprintf("%s row %d: bad yield: %v", HarvestsSheet, rowNum, err))
				continue
			}
			event.YieldPerTray = &yield
		} else if raw := cell(row, columns, "total_yield"); raw != "" {
			total, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				history.Skipped = append(history.Skipped, fmt.Sprintf("%s row %d: bad total yield: %v", HarvestsSheet, rowNum, err))
				continue
			}
			trays, err := strconv.ParseFloat(cell(row, columns, "trays"), 64)
			if err != nil {
				history.Skipped = append(history.Skipped, fmt.Sprintf("%s row %d: bad tray count: %v", HarvestsSheet, rowNum, err))
				continue
			}
			event.TotalYield = &total
			event.Trays = trays
		} else {
			history.Skipped = append(history.Skipped, fmt.Sprintf("%s row %d: no yield column", HarvestsSheet, rowNum))
			continue
		}

		history.Harvests = append(history.Harvests, event)
	}
	return nil
}

// indexColumns maps normalized header names to column positions.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date cell")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	// Excel serial date numbers show up when the cell is date-formatted.
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
