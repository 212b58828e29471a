package venue

// OrderTIF is the time-in-force tag the venue expects inside an order
// action's "t" field.
type OrderTIF string

const (
	TIFGtc OrderTIF = "Gtc"
	TIFIoc OrderTIF = "Ioc"
	TIFAlo OrderTIF = "Alo" // add-liquidity-only, i.e. post-only
)

// orderTypeWire is the "t" field of an order action: exactly one of its
// members is populated, matching the venue's tagged-union wire shape.
type orderTypeWire struct {
	Limit *limitOrderWire `json:"limit"`
}

type limitOrderWire struct {
	TIF OrderTIF `json:"tif"`
}

// orderActionItem is one element of the "orders" array in an /exchange
// order action.
type orderActionItem struct {
	Asset      int           `json:"a"`
	IsBuy      bool          `json:"b"`
	Price      string        `json:"p"`
	Size       string        `json:"s"`
	ReduceOnly bool          `json:"r"`
	Type       orderTypeWire `json:"t"`
	Cloid      string        `json:"c"`
}

// orderAction is the top-level /exchange action for order placement.
type orderAction struct {
	Type     string             `json:"type"`
	Grouping string             `json:"grouping"`
	Orders   []orderActionItem  `json:"orders"`
}

// cancelActionItem identifies one order to cancel by (asset index, exchange
// order id).
type cancelActionItem struct {
	Asset           int   `json:"a"`
	ExchangeOrderID int64 `json:"o"`
}

// cancelAction is the top-level /exchange action for cancellation.
type cancelAction struct {
	Type    string             `json:"type"`
	Cancels []cancelActionItem `json:"cancels"`
}

// orderStatus is one element of response.data.statuses[i]: exactly one
// field is populated depending on outcome.
type orderStatus struct {
	Resting *struct {
		OID int64 `json:"oid"`
	} `json:"resting"`
	Filled *struct {
		OID int64 `json:"oid"`
	} `json:"filled"`
	Error string `json:"error"`
}

// exchangeResponse is the full /exchange response envelope.
type exchangeResponse struct {
	Status   string `json:"status"`
	Response struct {
		Data struct {
			Statuses []orderStatus `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
}

// assetMeta is one entry of /info {type:"meta"}'s "universe" array.
type assetMeta struct {
	Name       string `json:"name"`
	SzDecimals int    `json:"szDecimals"`
}

// metaResponse is the /info {type:"meta"} response.
type metaResponse struct {
	Universe []assetMeta `json:"universe"`
}

// l2Level is one {px, sz} row of an /info {type:"l2Book"} response.
type l2Level struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
}

// l2BookResponse is the /info {type:"l2Book"} response: a two-element
// Levels array, [0] bids and [1] asks.
type l2BookResponse struct {
	Coin   string      `json:"coin"`
	Levels [][]l2Level `json:"levels"`
	Time   int64       `json:"time"`
}
