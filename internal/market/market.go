// Package market holds the domain types shared across the client: listed
// entities, OHLCV bars, series granularity and stock issue metadata.
package market

import (
	"fmt"
	"strings"
)

// Entity is a listed company as returned by the stock list.
type Entity struct {
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

// Title renders the entity the way views label it.
func (e Entity) Title() string {
	return fmt.Sprintf("[%s]%s", e.Code, e.Name)
}

// Granularity is the bar period of a series.
type Granularity int

const (
	Daily Granularity = iota
	Weekly
	Monthly
)

// Granularities lists every granularity in display order.
var Granularities = []Granularity{Daily, Weekly, Monthly}

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity accepts the long names and their usual short forms.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return Daily, nil
	case "weekly", "week", "w":
		return Weekly, nil
	case "monthly", "month", "m":
		return Monthly, nil
	}
	return Weekly, fmt.Errorf("unknown granularity %q (want daily, weekly or monthly)", s)
}

// Metadata is the issue information of a listed company. All values are
// kept as the service formats them.
type Metadata struct {
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

// Fields returns label/value pairs in display order.
func (m Metadata) Fields() [][2]string {
	return [][2]string{
		{"Listing market", m.Market},
		{"Lead underwriter", m.Consignee},
		{"Underwriting method", m.Underwriting},
		{"Listing sponsor", m.Sponsor},
		{"Issue price", m.IssuePrice},
		{"Issue method", m.IssueMode},
		{"Issue P/E", m.IssuePE},
		{"Shares before IPO (10k)", m.PreCapital},
		{"Shares after IPO (10k)", m.Capital},
		{"Shares issued (10k)", m.IssueVolume},
		{"Expected raise (10k)", m.ExpectedFundraising},
		{"Actual raise (10k)", m.Fundraising},
		{"Issue cost (10k)", m.IssueCost},
		{"Net raise (10k)", m.NetAmountRaised},
		{"Underwriting fee (10k)", m.UnderwritingFee},
		{"Prospectus date", m.AnnouncementDate},
		{"Listing date", m.LaunchDate},
	}
}
