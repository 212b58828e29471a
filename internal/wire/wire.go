// Package wire implements the venue's wire-level string encodings:
// significant-figure price/size formatting and BASE-QUOTE[-PERP] symbol
// normalization at the boundary with the venue's own coin codes.
package wire

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultSignificantDigits is the venue's default cap on significant digits
// for a price string (N = 5 for perpetuals).
const DefaultSignificantDigits = 5

// FormatDecimal renders value fixed to precision decimal places, trimming
// trailing zeros after the decimal point, without scientific notation.
func FormatDecimal(value float64, precision int32) string {
	d := decimal.NewFromFloat(value).Truncate(precision)
	return TrimTrailingZeros(d.StringFixed(precision))
}

// TrimTrailingZeros strips trailing zeros (and a dangling decimal point)
// from a fixed-point decimal string. "2500.1300" -> "2500.13"; "3.000" ->
// "3"; a string with no '.' passes through unchanged.
func TrimTrailingZeros(value string) string {
	dot := strings.IndexByte(value, '.')
	if dot < 0 {
		return value
	}
	trimmed := strings.TrimRight(value, "0")
	trimmed = strings.TrimRight(trimmed, ".")
	if trimmed == "" || trimmed == "-" {
		return "0"
	}
	return trimmed
}

// FormatSignificant renders price with at most sigDigits significant digits
// and at most maxDecimals digits after the decimal point — the venue's
// price-string contract — trimming trailing zeros and never using
// scientific notation.
func FormatSignificant(price float64, sigDigits, maxDecimals int32) string {
	if price == 0 {
		return "0"
	}
	d := decimal.NewFromFloat(price)
	rounded := d.Round(sigDigits - 1 - magnitude(d))
	if rounded.Exponent() < -maxDecimals {
		rounded = rounded.Round(maxDecimals)
	}
	return TrimTrailingZeros(rounded.StringFixed(maxDecimals))
}

// magnitude returns floor(log10(|d|)) for a non-zero decimal, used to find
// how many significant digits precede the decimal point.
func magnitude(d decimal.Decimal) int32 {
	abs := d.Abs()
	var mag int32
	ten := decimal.NewFromInt(10)
	one := decimal.NewFromInt(1)
	if abs.GreaterThanOrEqual(one) {
		for abs.GreaterThanOrEqual(ten) {
			abs = abs.Div(ten)
			mag++
		}
		return mag
	}
	for abs.LessThan(one) && !abs.IsZero() {
		abs = abs.Mul(ten)
		mag--
	}
	return mag
}

// ToHyphenSymbol normalizes a slash-delimited (optionally ":SETTLE"-suffixed),
// hyphenated, or compact quote-suffixed symbol (e.g. "BNBUSDT") into the
// external "BASE-QUOTE[-PERP]" form. A symbol it cannot split, such as a
// bare venue coin code like "BTC", is returned unchanged.
func ToHyphenSymbol(symbol string, isPerp bool) string {
	if symbol == "" {
		return symbol
	}
	if colon := strings.IndexByte(symbol, ':'); colon >= 0 {
		symbol = symbol[:colon]
	}
	if slash := strings.IndexByte(symbol, '/'); slash >= 0 {
		base, quote := symbol[:slash], symbol[slash+1:]
		return appendPerp(base+"-"+quote, isPerp)
	}
	if strings.Contains(symbol, "-") {
		return appendPerp(symbol, isPerp)
	}
	if base, quote, ok := splitCompactSymbol(symbol); ok {
		return appendPerp(base+"-"+quote, isPerp)
	}
	return symbol
}

func appendPerp(symbol string, isPerp bool) string {
	if !isPerp {
		return symbol
	}
	if strings.HasSuffix(symbol, "-PERP") {
		return symbol
	}
	return symbol + "-PERP"
}

var compactQuotes = []string{"USDT", "USDC", "BTC", "ETH", "USD", "EUR", "DAI", "FDUSD"}

func splitCompactSymbol(symbol string) (base, quote string, ok bool) {
	for _, q := range compactQuotes {
		if len(symbol) > len(q) && strings.HasSuffix(symbol, q) {
			return symbol[:len(symbol)-len(q)], q, true
		}
	}
	return "", "", false
}

// ToVenueCoin extracts the base-asset coin code this venue expects from an
// external "BASE-QUOTE[-PERP]" trading pair.
func ToVenueCoin(pair string) string {
	pair = strings.TrimSuffix(pair, "-PERP")
	if dash := strings.IndexByte(pair, '-'); dash >= 0 {
		return pair[:dash]
	}
	return pair
}
