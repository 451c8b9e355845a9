package smartapi

import "encoding/json"

// envelope is the standard SmartAPI response wrapper.
type envelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

// Session holds the tokens returned by a successful login.
type Session struct {
	JwtToken     string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
	FeedToken    string `json:"feedToken"`
}

// QuoteRecord is one raw quote as returned by the market quote endpoint.
type QuoteRecord struct {
	Exchange      string  `json:"exchange"`
	TradingSymbol string  `json:"tradingSymbol"`
	SymbolToken   string  `json:"symbolToken"`
	Ltp           float64 `json:"ltp"`
	NetChange     float64 `json:"netChange"`
	PercentChange float64 `json:"percentChange"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	TradeVolume   int64   `json:"tradeVolume"`
	AvgPrice      float64 `json:"avgPrice"`
	UpperCircuit  float64 `json:"upperCircuit"`
	LowerCircuit  float64 `json:"lowerCircuit"`
	WeekHigh52    float64 `json:"52WeekHigh"`
	WeekLow52     float64 `json:"52WeekLow"`
}

// UnfetchedRecord describes a requested token the upstream could not quote.
type UnfetchedRecord struct {
	Exchange    string `json:"exchange"`
	SymbolToken string `json:"symbolToken"`
	Message     string `json:"message"`
	ErrorCode   string `json:"errorCode"`
}

// QuoteResult is the parsed body of a quote call. Fetched and Unfetched
// are disjoint: every requested token appears in exactly one of them.
type QuoteResult struct {
	Fetched   []QuoteRecord     `json:"fetched"`
	Unfetched []UnfetchedRecord `json:"unfetched"`
}

type quoteRequest struct {
	Mode           string              `json:"mode"`
	ExchangeTokens map[string][]string `json:"exchangeTokens"`
}

type loginRequest struct {
	ClientCode string `json:"clientcode"`
	Password   string `json:"password"`
	Totp       string `json:"totp"`
}
