package mockserver

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chiro2001/financial-frontend/pkg/finapi"
)

// DefaultStocks is the listing served when no other is configured.
var DefaultStocks = []finapi.Stock{
	{Symbol: "SH600000", Code: "600000", Name: "浦发银行"},
	{Symbol: "SH600036", Code: "600036", Name: "招商银行"},
	{Symbol: "SH600519", Code: "600519", Name: "贵州茅台"},
	{Symbol: "SH601318", Code: "601318", Name: "中国平安"},
	{Symbol: "SH688981", Code: "688981", Name: "中芯国际"},
	{Symbol: "SZ000001", Code: "000001", Name: "平安银行"},
	{Symbol: "SZ000858", Code: "000858", Name: "五粮液"},
	{Symbol: "SZ300750", Code: "300750", Name: "宁德时代"},
}

var seriesStart = time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)

func seriesLength(typ finapi.HistoryType, daily int) int {
	switch typ {
	case finapi.HistoryWeekly:
		return max(daily/5, 1)
	case finapi.HistoryMonthly:
		return max(daily/21, 1)
	default:
		return daily
	}
}

func step(t time.Time, typ finapi.HistoryType) time.Time {
	switch typ {
	case finapi.HistoryWeekly:
		return t.AddDate(0, 0, 7)
	case finapi.HistoryMonthly:
		return t.AddDate(0, 1, 0)
	}
	t = t.AddDate(0, 0, 1)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func rng(seed int64, symbol string, salt int64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64()) ^ salt))
}

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// history generates a deterministic random walk for symbol.
func history(seed int64, symbol string, typ finapi.HistoryType, n int) []finapi.TradingHistoryItem {
	r := rng(seed, symbol, int64(typ)+1)
	last := 5 + r.Float64()*45
	date := seriesStart
	items := make([]finapi.TradingHistoryItem, n)
	for i := range items {
		open := last
		closing := math.Max(0.01, open*(1+(r.Float64()-0.5)*0.06))
		high := math.Max(open, closing) * (1 + r.Float64()*0.02)
		low := math.Min(open, closing) * (1 - r.Float64()*0.02)
		items[i] = finapi.TradingHistoryItem{
			Date:   date.Format(time.DateOnly),
			Open:   price(open),
			Close:  price(closing),
			High:   price(high),
			Low:    price(low),
			Volume: decimal.NewFromInt(1000 + r.Int63n(99000)).String(),
		}
		last = closing
		date = step(date, typ)
	}
	return items
}

// extrapolate continues data along its recent mean drift.
func extrapolate(data []float64, length int) []float64 {
	window := data[max(0, len(data)-20):]
	var drift float64
	if len(window) > 1 {
		drift = (window[len(window)-1] - window[0]) / float64(len(window)-1)
	}
	last := data[len(data)-1]
	out := make([]float64, length)
	for i := range out {
		out[i] = last + drift*float64(i+1)
	}
	return out
}

func issue(seed int64, s finapi.Stock) *finapi.StockIssueResponse {
	r := rng(seed, s.Symbol, 97)
	market := "Shanghai Stock Exchange"
	if len(s.Symbol) > 1 && s.Symbol[:2] == "SZ" {
		market = "Shenzhen Stock Exchange"
	}
	issuePrice := 2 + r.Float64()*30
	volume := 10000 + r.Int63n(500000)
	raised := decimal.NewFromFloat(issuePrice).Mul(decimal.NewFromInt(volume))
	cost := raised.Mul(decimal.NewFromFloat(0.03))
	launch := seriesStart.AddDate(-10-r.Intn(15), r.Intn(12), r.Intn(28))
	return &finapi.StockIssueResponse{
		Market:              market,
		Consignee:           "Mock Securities Co., Ltd.",
		Underwriting:        "Standby underwriting",
		Sponsor:             "Mock Securities Co., Ltd.",
		IssuePrice:          price(issuePrice),
		IssueMode:           "Online pricing",
		IssuePE:             price(10 + r.Float64()*40),
		PreCapital:          decimal.NewFromInt(volume * 3).String(),
		Capital:             decimal.NewFromInt(volume * 4).String(),
		IssueVolume:         decimal.NewFromInt(volume).String(),
		ExpectedFundraising: raised.StringFixed(2),
		Fundraising:         raised.StringFixed(2),
		IssueCost:           cost.StringFixed(2),
		NetAmountRaised:     raised.Sub(cost).StringFixed(2),
		UnderwritingFee:     cost.Mul(decimal.NewFromFloat(0.8)).StringFixed(2),
		AnnouncementDate:    launch.AddDate(0, 0, -14).Format(time.DateOnly),
		LaunchDate:          launch.Format(time.DateOnly),
	}
}
