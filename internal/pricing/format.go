package pricing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatTSH renders an amount rounded to whole shillings with grouping,
// e.g. "TSH 1,125,000".
func FormatTSH(amount float64) string {
	return printer.Sprintf("TSH %d", int64(math.Round(amount)))
}
