package stream

// subscribeMsg is sent to establish or tear down a channel subscription.
type subscribeMsg struct {
	Method       string          `json:"method"` // "subscribe" | "unsubscribe"
	Subscription subscriptionTag `json:"subscription"`
}

type subscriptionTag struct {
	Type string `json:"type"` // "l2Book" | "userEvents" | "userFills" | "webData2"
	Coin string `json:"coin,omitempty"`
	User string `json:"user,omitempty"`
}

type wireLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
}

// l2BookFrame is the inbound frame for an l2Book subscription.
type l2BookFrame struct {
	Channel string `json:"channel"`
	Data    struct {
		Coin   string        `json:"coin"`
		Levels [2][]wireLevel `json:"levels"`
		Time   int64         `json:"time"`
	} `json:"data"`
}

// orderUpdateFrame is the inbound frame for a userEvents order update.
type orderUpdateFrame struct {
	Channel string `json:"channel"`
	Data    struct {
		Orders []wireOrderUpdate `json:"orders"`
	} `json:"data"`
}

type wireOrderUpdate struct {
	Cloid    string `json:"cloid"`
	OID      int64  `json:"oid"`
	Status   string `json:"status"` // "open" | "filled" | "canceled" | "rejected" | "triggered"
	StatusTS int64  `json:"statusTimestamp"`
}

// fillFrame is the inbound frame for a userFills subscription.
type fillFrame struct {
	Channel string `json:"channel"`
	Data    struct {
		Fills []wireFill `json:"fills"`
	} `json:"data"`
}

type wireFill struct {
	Cloid string `json:"cloid"`
	OID   int64  `json:"oid"`
	TID   int64  `json:"tid"`
	Coin  string `json:"coin"`
	Px    string `json:"px"`
	Sz    string `json:"sz"`
	Side  string `json:"side"` // "B" | "A"
	Fee   string `json:"fee"`
	FeeTok string `json:"feeToken"`
	Time  int64  `json:"time"`
}

// webData2Frame carries balances and positions in a single snapshot push.
type webData2Frame struct {
	Channel string `json:"channel"`
	Data    struct {
		Balances []wireBalance  `json:"balances"`
		Positions []wirePosition `json:"assetPositions"`
	} `json:"data"`
}

type wireBalance struct {
	Coin      string `json:"coin"`
	Available string `json:"available"`
	Total     string `json:"total"`
}

type wirePosition struct {
	Coin          string `json:"coin"`
	Szi           string `json:"szi"`
	EntryPx       string `json:"entryPx"`
	UnrealizedPnl string `json:"unrealizedPnl"`
}

// channelEnvelope reads just the "channel" discriminator from a raw frame.
type channelEnvelope struct {
	Channel string `json:"channel"`
}
