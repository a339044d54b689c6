package watchlist

import (
	"fmt"
	"strconv"

	"github.com/dgnsrekt/zanger_agent/internal/backend"
)

const (
	// NotAvailable marks a detail field absent from the payload.
	NotAvailable = "N/A"
	// LoadingSentinel is shown in every detail field while a refresh
	// is in flight.
	LoadingSentinel = "Loading..."
	// ErrorSentinel replaces every detail field when a refresh fails.
	ErrorSentinel = "Error"
)

// FormatFields renders the five card fields from a stock-data payload.
// Each field formats independently; a missing value becomes "N/A"
// without affecting the others.
func FormatFields(d *backend.StockData) Fields {
	return Fields{
		Price:        formatPrice(d.CurrentPrice),
		PERatio:      formatPERatio(d.PERatio),
		MarketCap:    FormatMarketCap(d.MarketCap),
		Week52Range:  formatWeek52Range(d.Week52Low, d.Week52High),
		QuarterlyEPS: formatQuarterlyEPS(d.QuarterlyEPS),
	}
}

// LoadingFields returns the in-flight placeholder values.
func LoadingFields() Fields {
	return Fields{
		Price:        LoadingSentinel,
		PERatio:      LoadingSentinel,
		MarketCap:    LoadingSentinel,
		Week52Range:  LoadingSentinel,
		QuarterlyEPS: LoadingSentinel,
	}
}

// ErrorFields returns the all-or-nothing failure values. Only the
// symbol header survives a failed refresh.
func ErrorFields() Fields {
	return Fields{
		Price:        ErrorSentinel,
		PERatio:      ErrorSentinel,
		MarketCap:    ErrorSentinel,
		Week52Range:  ErrorSentinel,
		QuarterlyEPS: ErrorSentinel,
	}
}

// FormatMarketCap scales a market cap to a T/B/M/K suffix with two
// decimals. Sub-million caps from 1e5 up still read in millions; only
// values under 1e3 fall through to the raw dollar string.
func FormatMarketCap(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	c := *v
	switch {
	case c >= 1e12:
		return fmt.Sprintf("$%.2fT", c/1e12)
	case c >= 1e9:
		return fmt.Sprintf("$%.2fB", c/1e9)
	case c >= 1e5:
		return fmt.Sprintf("$%.2fM", c/1e6)
	case c >= 1e3:
		return fmt.Sprintf("$%.2fK", c/1e3)
	default:
		return "$" + trimFloat(c)
	}
}

func formatPrice(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return "$" + trimFloat(*v)
}

func formatPERatio(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatWeek52Range(low, high *float64) string {
	if low == nil || high == nil {
		return NotAvailable
	}
	return fmt.Sprintf("$%s - $%s", trimFloat(*low), trimFloat(*high))
}

func formatQuarterlyEPS(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return "$" + trimFloat(*v)
}

// trimFloat renders a value verbatim, without forced precision or
// trailing zeros.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
