package dashboard

import (
	"strconv"
	"time"

	"OptionsIntraday/internal/model"
)

// LastFriday returns the most recent Friday strictly before now's date.
// On a Friday it returns the Friday one week earlier.
func LastFriday(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(day.Weekday()) - int(time.Friday) + 7) % 7
	if back == 0 {
		back = 7
	}
	return day.AddDate(0, 0, -back)
}

// NextFriday returns the first Friday on or after now's date.
func NextFriday(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ahead := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, ahead)
}

// DefaultRequest is the initial widget state: an NVDA 850 call expiring last
// Friday, charted in one-minute bars over that Friday's session.
func DefaultRequest(now time.Time) Request {
	friday := LastFriday(now)
	return Request{
		Ticker:     "NVDA",
		Expiry:     friday,
		OptionType: string(model.Call),
		Strike:     850,
		Interval:   1,
		Unit:       model.Minute,
		Start:      friday,
		End:        friday,
	}
}

// Choices lists the options offered by each dashboard widget.
type Choices struct {
	Tickers     []string         `json:"tickers"`
	OptionTypes []string         `json:"option_types"`
	Intervals   []int            `json:"intervals"`
	Units       []model.Timespan `json:"units"`
	StrikeMin   float64          `json:"strike_min"`
	StrikeMax   float64          `json:"strike_max"`
	StrikeStep  float64          `json:"strike_step"`
	Defaults    RawRequest       `json:"defaults"`
}

// WidgetChoices returns the widget options with defaults resolved for now.
func WidgetChoices(now time.Time) Choices {
	def := DefaultRequest(now)
	return Choices{
		Tickers:     []string{"NVDA", "TSLA", "AMZN", "MSFT", "AAPL", "GOOG", "AMD"},
		OptionTypes: []string{string(model.Call), string(model.Put)},
		Intervals:   []int{1, 5, 10},
		Units:       model.Timespans,
		StrikeMin:   0,
		StrikeMax:   1000,
		StrikeStep:  10,
		Defaults:    def.Raw(),
	}
}

// Raw renders r back into its string form.
func (r Request) Raw() RawRequest {
	return RawRequest{
		Ticker:     r.Ticker,
		Expiry:     r.Expiry.Format(dateLayout),
		OptionType: r.OptionType,
		Strike:     strconv.FormatFloat(r.Strike, 'f', -1, 64),
		Interval:   strconv.Itoa(r.Interval),
		Unit:       string(r.Unit),
		Start:      r.Start.Format(dateLayout),
		End:        r.End.Format(dateLayout),
	}
}
