package wire

import "testing"

func TestTrimTrailingZeros(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2500.1300", "2500.13"},
		{"3.000", "3"},
		{"0.0000", "0"},
		{"100", "100"},
		{"0.123", "0.123"},
	}
	for _, tc := range cases {
		if got := TrimTrailingZeros(tc.in); got != tc.want {
			t.Errorf("TrimTrailingZeros(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	cases := []struct {
		value     float64
		precision int32
		want      string
	}{
		{0.123, 3, "0.123"},
		{0.1, 3, "0.1"},
		{2500.0, 2, "2500"},
	}
	for _, tc := range cases {
		if got := FormatDecimal(tc.value, tc.precision); got != tc.want {
			t.Errorf("FormatDecimal(%v, %d) = %q, want %q", tc.value, tc.precision, got, tc.want)
		}
	}
}

func TestToHyphenSymbol(t *testing.T) {
	cases := []struct {
		in     string
		isPerp bool
		want   string
	}{
		{"BTC/USDT:USDT", true, "BTC-USDT-PERP"},
		{"ETH/USD", false, "ETH-USD"},
		{"BNBUSDT", false, "BNB-USDT"},
		{"BTC-USD", true, "BTC-USD-PERP"},
		{"BTC-USD-PERP", true, "BTC-USD-PERP"},
	}
	for _, tc := range cases {
		if got := ToHyphenSymbol(tc.in, tc.isPerp); got != tc.want {
			t.Errorf("ToHyphenSymbol(%q, %v) = %q, want %q", tc.in, tc.isPerp, got, tc.want)
		}
	}
}

func TestToVenueCoin(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC-USD-PERP", "BTC"},
		{"ETH-USD", "ETH"},
	}
	for _, tc := range cases {
		if got := ToVenueCoin(tc.in); got != tc.want {
			t.Errorf("ToVenueCoin(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
