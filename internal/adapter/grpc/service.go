package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "stocksim.v1.StockSimService"

// Full method names, as seen by interceptors
const (
	MethodGetQuote          = "/" + ServiceName + "/GetQuote"
	MethodSearchSymbols     = "/" + ServiceName + "/SearchSymbols"
	MethodInitializeAccount = "/" + ServiceName + "/InitializeAccount"
	MethodGetAccount        = "/" + ServiceName + "/GetAccount"
	MethodValuatePortfolio  = "/" + ServiceName + "/ValuatePortfolio"
	MethodCompleteGame      = "/" + ServiceName + "/CompleteGame"
	MethodGetLeaderboard    = "/" + ServiceName + "/GetLeaderboard"
	MethodGetTimeRemaining  = "/" + ServiceName + "/GetTimeRemaining"
)

// PublicMethods need no identity
var PublicMethods = []string{MethodGetQuote, MethodSearchSymbols, MethodGetLeaderboard}

// StockSimServer is the server API for the StockSim service
// Requests and responses are google.protobuf.Struct documents
type StockSimServer interface {
	GetQuote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchSymbols(context.Context, *structpb.Struct) (*structpb.Struct, error)
	InitializeAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValuatePortfolio(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLeaderboard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTimeRemaining(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterStockSimServer registers srv on s
func RegisterStockSimServer(s grpc.ServiceRegistrar, srv StockSimServer) {
	s.RegisterService(&StockSimServiceDesc, srv)
}

type unaryMethod func(StockSimServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StockSimServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(StockSimServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// StockSimServiceDesc is the grpc.ServiceDesc for the StockSim service
var StockSimServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StockSimServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetQuote", Handler: unaryHandler(MethodGetQuote, StockSimServer.GetQuote)},
		{MethodName: "SearchSymbols", Handler: unaryHandler(MethodSearchSymbols, StockSimServer.SearchSymbols)},
		{MethodName: "InitializeAccount", Handler: unaryHandler(MethodInitializeAccount, StockSimServer.InitializeAccount)},
		{MethodName: "GetAccount", Handler: unaryHandler(MethodGetAccount, StockSimServer.GetAccount)},
		{MethodName: "ValuatePortfolio", Handler: unaryHandler(MethodValuatePortfolio, StockSimServer.ValuatePortfolio)},
		{MethodName: "CompleteGame", Handler: unaryHandler(MethodCompleteGame, StockSimServer.CompleteGame)},
		{MethodName: "GetLeaderboard", Handler: unaryHandler(MethodGetLeaderboard, StockSimServer.GetLeaderboard)},
		{MethodName: "GetTimeRemaining", Handler: unaryHandler(MethodGetTimeRemaining, StockSimServer.GetTimeRemaining)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stocksim/v1/stocksim.proto",
}

// Client calls the StockSim service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a new StockSim client
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes fullMethod with a request built from fields
func (c *Client) Call(ctx context.Context, fullMethod string, fields map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
