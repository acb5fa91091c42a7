package metric

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type suffix struct {
	threshold float64
	exp       int32
	label     string
}

// largest first
var suffixes = []suffix{
	{threshold: 1e9, exp: 9, label: "B"},
	{threshold: 1e6, exp: 6, label: "M"},
	{threshold: 1e3, exp: 3, label: "K"},
}

// FormatForDisplay renders a value for table cells and chart labels. Missing renders as "--".
// Values of at least one thousand are scaled to the largest K/M/B suffix with two decimals,
// rounded half away from zero; smaller values print in their shortest plain form.
func FormatForDisplay(v Value) string {
	n, ok := v.Get()
	if !ok {
		return MissingMarker
	}
	for _, s := range suffixes {
		if n >= s.threshold {
			scaled := decimal.NewFromFloat(n).Shift(-s.exp)
			return scaled.StringFixed(2) + s.label
		}
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// FormatNumber is FormatForDisplay for a raw float.
func FormatNumber(n float64) string {
	return FormatForDisplay(Of(n))
}
