// Package mockserver implements the market data service with generated data
// so the client can be developed and tested without the real backend.
package mockserver

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/chiro2001/financial-frontend/pkg/finapi"
)

// MaxPredictLength bounds a single prediction request.
const MaxPredictLength = 1024

// Options configure a Server.
type Options struct {
	Seed int64
	// Stocks defaults to DefaultStocks.
	Stocks []finapi.Stock
	// DailyBars is the length of a daily series; weekly and monthly series
	// are derived from it.
	DailyBars int
	// Users are accounts that exist from the start.
	Users    map[string]string
	TokenTTL time.Duration
	Logger   log.Logger
}

// Server serves finapi.MarketDataServer from generated data.
type Server struct {
	finapi.UnimplementedMarketDataServer

	seed      int64
	stocks    map[string]finapi.Stock
	order     []finapi.Stock
	dailyBars int
	ttl       time.Duration
	logger    log.Logger

	mu       sync.Mutex
	users    map[string]string
	sessions map[string]time.Time
}

var _ finapi.MarketDataServer = (*Server)(nil)

// New creates a server.
func New(opts Options) *Server {
	if opts.Stocks == nil {
		opts.Stocks = DefaultStocks
	}
	if opts.DailyBars <= 0 {
		opts.DailyBars = 240
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 12 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}

	s := &Server{
		seed:      opts.Seed,
		stocks:    make(map[string]finapi.Stock, len(opts.Stocks)),
		order:     append([]finapi.Stock(nil), opts.Stocks...),
		dailyBars: opts.DailyBars,
		ttl:       opts.TokenTTL,
		logger:    opts.Logger,
		users:     make(map[string]string),
		sessions:  make(map[string]time.Time),
	}
	for _, st := range opts.Stocks {
		s.stocks[st.Symbol] = st
	}
	for u, p := range opts.Users {
		s.users[u] = p
	}
	return s
}

// NewGRPCServer returns a grpc.Server with s registered and request logging
// installed.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(append([]grpc.ServerOption{grpc.UnaryInterceptor(s.logRequests)}, opts...)...)
	finapi.RegisterMarketDataServer(gs, s)
	return gs
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	gs := s.NewGRPCServer()
	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()
	_ = level.Info(s.logger).Log("msg", "mock server listening", "addr", lis.Addr().String())
	return gs.Serve(lis)
}

func (s *Server) logRequests(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	begin := time.Now()
	resp, err := handler(ctx, req)
	var requestID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-request-id"); len(v) > 0 {
			requestID = v[0]
		}
	}
	_ = level.Debug(s.logger).Log("method", info.FullMethod, "request_id", requestID, "code", status.Code(err), "took", time.Since(begin))
	return resp, err
}

func (s *Server) authorize(ctx context.Context) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing credentials")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return status.Error(codes.Unauthenticated, "missing credentials")
	}
	token, ok := strings.CutPrefix(values[0], "Bearer ")
	if !ok {
		return status.Error(codes.Unauthenticated, "malformed authorization header")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[token]
	if !ok || time.Now().After(expiry) {
		return status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return nil
}

func (s *Server) ListStocks(ctx context.Context, _ *emptypb.Empty) (*finapi.ListStocksResponse, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	return &finapi.ListStocksResponse{Data: append([]finapi.Stock(nil), s.order...)}, nil
}

func (s *Server) TradingHistory(ctx context.Context, req *finapi.TradingHistoryRequest) (*finapi.TradingHistoryResponse, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if _, ok := s.stocks[req.Symbol]; !ok {
		return nil, status.Errorf(codes.NotFound, "unknown symbol %q", req.Symbol)
	}
	if req.Type < finapi.HistoryDaily || req.Type > finapi.HistoryMonthly {
		return nil, status.Errorf(codes.InvalidArgument, "unknown history type %d", req.Type)
	}
	n := seriesLength(req.Type, s.dailyBars)
	return &finapi.TradingHistoryResponse{Data: history(s.seed, req.Symbol, req.Type, n)}, nil
}

func (s *Server) StockIssue(ctx context.Context, req *finapi.StockIssueRequest) (*finapi.StockIssueResponse, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	st, ok := s.stocks[req.Symbol]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown symbol %q", req.Symbol)
	}
	return issue(s.seed, st), nil
}

func (s *Server) Predict(ctx context.Context, req *finapi.PredictRequest) (*finapi.PredictResponse, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if len(req.Data) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty input series")
	}
	if req.Length > MaxPredictLength {
		return nil, status.Errorf(codes.InvalidArgument, "length %d exceeds %d", req.Length, MaxPredictLength)
	}
	return &finapi.PredictResponse{Data: extrapolate(req.Data, int(req.Length))}, nil
}

func (s *Server) Login(_ context.Context, req *finapi.LoginRegisterRequest) (*finapi.LoginResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.users[req.Username]; !ok || p != req.Password {
		return nil, status.Error(codes.Unauthenticated, "wrong username or password")
	}
	token := uuid.NewString()
	s.sessions[token] = time.Now().Add(s.ttl)
	return &finapi.LoginResponse{Token: token, ExpiresIn: int64(s.ttl / time.Second)}, nil
}

func (s *Server) Register(_ context.Context, req *finapi.LoginRegisterRequest) (*emptypb.Empty, error) {
	if req.Username == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "username and password are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[req.Username]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "user %q already exists", req.Username)
	}
	s.users[req.Username] = req.Password
	return &emptypb.Empty{}, nil
}

// IssueToken creates a session directly, for tests and demos.
func (s *Server) IssueToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[token] = time.Now().Add(s.ttl)
	return token
}
