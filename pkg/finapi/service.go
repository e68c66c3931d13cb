package finapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "stockview.v1.MarketData"

const (
	MethodListStocks     = "ListStocks"
	MethodTradingHistory = "TradingHistory"
	MethodStockIssue     = "StockIssue"
	MethodPredict        = "Predict"
	MethodLogin          = "Login"
	MethodRegister       = "Register"
)

// FullMethod returns the RPC path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// MarketDataServer is the server side of the service.
type MarketDataServer interface {
	ListStocks(context.Context, *emptypb.Empty) (*ListStocksResponse, error)
	TradingHistory(context.Context, *TradingHistoryRequest) (*TradingHistoryResponse, error)
	StockIssue(context.Context, *StockIssueRequest) (*StockIssueResponse, error)
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	Login(context.Context, *LoginRegisterRequest) (*LoginResponse, error)
	Register(context.Context, *LoginRegisterRequest) (*emptypb.Empty, error)
}

// UnimplementedMarketDataServer answers every RPC with codes.Unimplemented.
// Embed it to stay source compatible when methods are added.
type UnimplementedMarketDataServer struct{}

func (UnimplementedMarketDataServer) ListStocks(context.Context, *emptypb.Empty) (*ListStocksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListStocks not implemented")
}

func (UnimplementedMarketDataServer) TradingHistory(context.Context, *TradingHistoryRequest) (*TradingHistoryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method TradingHistory not implemented")
}

func (UnimplementedMarketDataServer) StockIssue(context.Context, *StockIssueRequest) (*StockIssueResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StockIssue not implemented")
}

func (UnimplementedMarketDataServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Predict not implemented")
}

func (UnimplementedMarketDataServer) Login(context.Context, *LoginRegisterRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}

func (UnimplementedMarketDataServer) Register(context.Context, *LoginRegisterRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}

// RegisterMarketDataServer attaches srv to s.
func RegisterMarketDataServer(s grpc.ServiceRegistrar, srv MarketDataServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketDataServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodListStocks, Handler: unary(MethodListStocks, MarketDataServer.ListStocks)},
		{MethodName: MethodTradingHistory, Handler: unary(MethodTradingHistory, MarketDataServer.TradingHistory)},
		{MethodName: MethodStockIssue, Handler: unary(MethodStockIssue, MarketDataServer.StockIssue)},
		{MethodName: MethodPredict, Handler: unary(MethodPredict, MarketDataServer.Predict)},
		{MethodName: MethodLogin, Handler: unary(MethodLogin, MarketDataServer.Login)},
		{MethodName: MethodRegister, Handler: unary(MethodRegister, MarketDataServer.Register)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stockview/v1/market_data.proto",
}

func unary[Req, Resp any](method string, call func(MarketDataServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MarketDataServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MarketDataServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
