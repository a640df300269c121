package scheduler

import (
	"fmt"
	"strings"

	"OptionsIntraday/internal/model"
)

// FormatSummary renders a render model as one log line.
func FormatSummary(m model.RenderModel) string {
	var b strings.Builder
	title := m.Title
	if title == "" {
		title = "-"
	}
	b.WriteString(fmt.Sprintf("watch %s state=%s", title, m.State))

	switch {
	case m.Ready() && len(m.Bars) > 0:
		first, last := m.Bars[0], m.Bars[len(m.Bars)-1]
		var vol int64
		for _, bar := range m.Bars {
			vol += bar.Volume
		}
		change := 0.0
		if first.Open != 0 {
			change = (last.Close - first.Open) / first.Open * 100
		}
		b.WriteString(fmt.Sprintf(" bars=%d %s..%s open=%.2f close=%.2f (%+.1f%%) range=%.2f-%.2f volume=%d",
			len(m.Bars),
			first.Time.Format("15:04"), last.Time.Format("15:04"),
			first.Open, last.Close, change,
			m.PriceLow, m.PriceHigh, vol))
	case m.Message != "":
		b.WriteString(fmt.Sprintf(" message=%q", m.Message))
	}
	return b.String()
}
