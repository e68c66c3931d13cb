package finapi

// Stock is one entry of the stock list.
type Stock struct {
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

type ListStocksResponse struct {
	Data []Stock `json:"data"`
}

// HistoryType is the granularity of a trading history request.
type HistoryType int32

const (
	HistoryDaily HistoryType = iota
	HistoryWeekly
	HistoryMonthly
)

type TradingHistoryRequest struct {
	Symbol string      `json:"symbol"`
	Type   HistoryType `json:"typ"`
}

// TradingHistoryItem is one bar; numbers are decimal strings.
type TradingHistoryItem struct {
	Date   string `json:"date"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Volume string `json:"volume"`
}

type TradingHistoryResponse struct {
	Data []TradingHistoryItem `json:"data"`
}

type StockIssueRequest struct {
	Symbol string `json:"symbol"`
}

type StockIssueResponse struct {
	Market              string `json:"market"`
	Consignee           string `json:"consignee"`
	Underwriting        string `json:"underwriting"`
	Sponsor             string `json:"sponsor"`
	IssuePrice          string `json:"issue_price"`
	IssueMode           string `json:"issue_mode"`
	IssuePE             string `json:"issue_pe"`
	PreCapital          string `json:"pre_capital"`
	Capital             string `json:"capital"`
	IssueVolume         string `json:"issue_volume"`
	ExpectedFundraising string `json:"expected_fundraising"`
	Fundraising         string `json:"fundraising"`
	IssueCost           string `json:"issue_cost"`
	NetAmountRaised     string `json:"net_amount_raised"`
	UnderwritingFee     string `json:"underwriting_fee"`
	AnnouncementDate    string `json:"announcement_date"`
	LaunchDate          string `json:"launch_date"`
}

// PredictRequest asks for Length values continuing the Data channel.
type PredictRequest struct {
	Data   []float64 `json:"data"`
	Length uint32    `json:"length"`
}

type PredictResponse struct {
	Data []float64 `json:"data"`
}

type LoginRegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}
