package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/pkg/finapi"
)

// RequestIDKey is the metadata key carrying a per-call request id.
const RequestIDKey = "x-request-id"

// GRPCClient talks to the service over gRPC with the JSON codec.
type GRPCClient struct {
	conn     *grpc.ClientConn
	endpoint string
	token    string
}

var _ Client = (*GRPCClient)(nil)

// WithTLS replaces the default plaintext transport.
func WithTLS() grpc.DialOption {
	return grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}))
}

// Dial creates a client for endpoint (host:port). The connection is lazy;
// the first RPC connects. opts are applied after the defaults, so they can
// override the transport.
func Dial(endpoint string, opts ...grpc.DialOption) (*GRPCClient, error) {
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(finapi.CodecName)),
	}
	conn, err := grpc.NewClient(endpoint, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}
	return &GRPCClient{conn: conn, endpoint: endpoint}, nil
}

// bearer attaches a session token to every call it is given to.
type bearer string

func (b bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool {
	return false
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDKey, uuid.NewString())
	var opts []grpc.CallOption
	if c.token != "" {
		opts = append(opts, grpc.PerRPCCredentials(bearer(c.token)))
	}
	return finapi.FromError(c.conn.Invoke(ctx, finapi.FullMethod(method), req, resp, opts...))
}

func (c *GRPCClient) ListEntities(ctx context.Context) ([]market.Entity, error) {
	var resp finapi.ListStocksResponse
	if err := c.invoke(ctx, finapi.MethodListStocks, &emptypb.Empty{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	entities := make([]market.Entity, len(resp.Data))
	for i, s := range resp.Data {
		entities[i] = market.Entity{Symbol: s.Symbol, Code: s.Code, Name: s.Name}
	}
	return entities, nil
}

func (c *GRPCClient) FetchSeries(ctx context.Context, id string, g market.Granularity) ([]market.Bar, error) {
	req := &finapi.TradingHistoryRequest{Symbol: id, Type: finapi.HistoryType(g)}
	var resp finapi.TradingHistoryResponse
	if err := c.invoke(ctx, finapi.MethodTradingHistory, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch %s history for %s: %w", g, id, err)
	}
	bars := make([]market.Bar, len(resp.Data))
	for i, it := range resp.Data {
		bars[i] = market.ParseBar(it.Date, it.Open, it.High, it.Low, it.Close, it.Volume)
	}
	return bars, nil
}

func (c *GRPCClient) FetchPrediction(ctx context.Context, channel []float64, length int) ([]float64, error) {
	if length < 0 || int64(length) > math.MaxUint32 {
		return nil, fmt.Errorf("invalid prediction length %d", length)
	}
	req := &finapi.PredictRequest{Data: channel, Length: uint32(length)}
	var resp finapi.PredictResponse
	if err := c.invoke(ctx, finapi.MethodPredict, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	if len(resp.Data) > length {
		resp.Data = resp.Data[:length]
	}
	return resp.Data, nil
}

func (c *GRPCClient) FetchMetadata(ctx context.Context, id string) (*market.Metadata, error) {
	var resp finapi.StockIssueResponse
	if err := c.invoke(ctx, finapi.MethodStockIssue, &finapi.StockIssueRequest{Symbol: id}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch issue information for %s: %w", id, err)
	}
	return &market.Metadata{
		Market:              resp.Market,
		Consignee:           resp.Consignee,
		Underwriting:        resp.Underwriting,
		Sponsor:             resp.Sponsor,
		IssuePrice:          resp.IssuePrice,
		IssueMode:           resp.IssueMode,
		IssuePE:             resp.IssuePE,
		PreCapital:          resp.PreCapital,
		Capital:             resp.Capital,
		IssueVolume:         resp.IssueVolume,
		ExpectedFundraising: resp.ExpectedFundraising,
		Fundraising:         resp.Fundraising,
		IssueCost:           resp.IssueCost,
		NetAmountRaised:     resp.NetAmountRaised,
		UnderwritingFee:     resp.UnderwritingFee,
		AnnouncementDate:    resp.AnnouncementDate,
		LaunchDate:          resp.LaunchDate,
	}, nil
}

func (c *GRPCClient) Login(ctx context.Context, username, password string) (*auth.Token, error) {
	var resp finapi.LoginResponse
	req := &finapi.LoginRegisterRequest{Username: username, Password: password}
	if err := c.invoke(ctx, finapi.MethodLogin, req, &resp); err != nil {
		return nil, err
	}
	return &auth.Token{
		AccessToken: resp.Token,
		ExpiresAt:   auth.ExpiryFrom(time.Now(), resp.ExpiresIn),
		Endpoint:    c.endpoint,
		Username:    username,
	}, nil
}

func (c *GRPCClient) Register(ctx context.Context, username, password string) error {
	req := &finapi.LoginRegisterRequest{Username: username, Password: password}
	return c.invoke(ctx, finapi.MethodRegister, req, &emptypb.Empty{})
}

func (c *GRPCClient) WithToken(token string) Client {
	return &GRPCClient{conn: c.conn, endpoint: c.endpoint, token: token}
}

func (c *GRPCClient) Endpoint() string {
	return c.endpoint
}

// Token returns the session token the handle authenticates with.
func (c *GRPCClient) Token() string {
	return c.token
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
