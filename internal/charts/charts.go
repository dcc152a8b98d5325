// Package charts renders dashboard data as PNG images.
package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"moneymind/internal/core"
	"moneymind/internal/finance"
)

var (
	incomeColor  = drawing.ColorFromHex("16a34a")
	expenseColor = drawing.ColorFromHex("dc2626")
)

// MonthlyBars renders one bar per month for the given transaction type.
// Months with no activity still get a slot so the x axis is always
// Jan through Dec.
func MonthlyBars(title string, buckets []finance.MonthBucket, typ core.TransactionType) ([]byte, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("no monthly buckets to render")
	}

	color := expenseColor
	if typ == core.Income {
		color = incomeColor
	}

	bars := make([]chart.Value, len(buckets))
	top := 0.0
	for i, b := range buckets {
		amount := b.Expense
		if typ == core.Income {
			amount = b.Income
		}
		v := amount.Float()
		top = max(top, v)
		bars[i] = chart.Value{
			Label: b.Month,
			Value: v,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    1024,
		Height:   480,
		BarWidth: 48,
		Background: chart.Style{
			Padding:   chart.Box{Top: 48, Left: 24, Right: 24, Bottom: 24},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			// An explicit range keeps an all-zero year renderable.
			Range: &chart.ContinuousRange{Min: 0, Max: max(top*1.1, 1)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render monthly chart: %w", err)
	}
	return buf.Bytes(), nil
}
