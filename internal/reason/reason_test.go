package reason

import "testing"

func TestMapKnownTags(t *testing.T) {
	cases := []struct {
		raw  string
		want Code
	}{
		{"TickRejected", PriceOutOfBounds},
		{"BadAloPxRejected", PostOnlyViolation},
		{"PerpMaxPositionRejected", RiskBlocked},
		{"MinTradeNtlRejected", MinSize},
		{"InsufficientSpotBalanceRejected", InsufficientBalance},
		{"PerpMarginRejected", InsufficientBalance},
		{"ReduceOnlyRejected", InvalidParams},
		{"IocCancelRejected", VenueReject},
	}
	for _, tc := range cases {
		got := Map(tc.raw)
		if got.Code != tc.want {
			t.Errorf("Map(%q).Code = %q, want %q", tc.raw, got.Code, tc.want)
		}
	}
}

func TestMapEmptyIsOK(t *testing.T) {
	if got := Map(""); got.Code != OK {
		t.Errorf("Map(\"\").Code = %q, want ok", got.Code)
	}
}

func TestMapUnknownFallsBackToVenueReject(t *testing.T) {
	got := Map("SomeNewRejectionTag")
	if got.Code != VenueReject {
		t.Errorf("Map(unknown).Code = %q, want venue_reject", got.Code)
	}
}

func TestMapBalanceSubstring(t *testing.T) {
	got := Map("insufficient account balance for margin")
	if got.Code != InsufficientBalance {
		t.Errorf("Map(balance substring).Code = %q, want insufficient_balance", got.Code)
	}
}
