package grpc

// proto.go defines the gRPC server interface derived from fanora/payment/v1/payment.proto.
// This file serves as a stand-in for buf-generated code. Once `buf generate` is run,
// replace this file with the import from github.com/fanora/api/gen/go/fanora/payment/v1.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PaymentServiceServer is the server API for PaymentService.
// It mirrors the proto-generated interface from fanora.payment.v1.PaymentService.
type PaymentServiceServer interface {
	ProcessPayment(context.Context, *ProcessPaymentRequest) (*ProcessPaymentResponse, error)
	GetTransaction(context.Context, *GetTransactionRequest) (*GetTransactionResponse, error)
	ListFanTransactions(context.Context, *ListFanTransactionsRequest) (*ListTransactionsResponse, error)
	ListCreatorTransactions(context.Context, *ListCreatorTransactionsRequest) (*ListTransactionsResponse, error)
	RequestPayout(context.Context, *RequestPayoutRequest) (*RequestPayoutResponse, error)
	GetPayout(context.Context, *GetPayoutRequest) (*GetPayoutResponse, error)
	ListPayouts(context.Context, *ListPayoutsRequest) (*ListPayoutsResponse, error)
	AdjustRiskScore(context.Context, *AdjustRiskScoreRequest) (*RiskProfileResponse, error)
	GetRiskProfile(context.Context, *GetRiskProfileRequest) (*RiskProfileResponse, error)
	mustEmbedUnimplementedPaymentServiceServer()
}

// UnimplementedPaymentServiceServer provides forward-compatible default implementations.
type UnimplementedPaymentServiceServer struct{}

func (UnimplementedPaymentServiceServer) ProcessPayment(context.Context, *ProcessPaymentRequest) (*ProcessPaymentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ProcessPayment not implemented")
}
func (UnimplementedPaymentServiceServer) GetTransaction(context.Context, *GetTransactionRequest) (*GetTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetTransaction not implemented")
}
func (UnimplementedPaymentServiceServer) ListFanTransactions(context.Context, *ListFanTransactionsRequest) (*ListTransactionsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListFanTransactions not implemented")
}
func (UnimplementedPaymentServiceServer) ListCreatorTransactions(context.Context, *ListCreatorTransactionsRequest) (*ListTransactionsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListCreatorTransactions not implemented")
}
func (UnimplementedPaymentServiceServer) RequestPayout(context.Context, *RequestPayoutRequest) (*RequestPayoutResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RequestPayout not implemented")
}
func (UnimplementedPaymentServiceServer) GetPayout(context.Context, *GetPayoutRequest) (*GetPayoutResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPayout not implemented")
}
func (UnimplementedPaymentServiceServer) ListPayouts(context.Context, *ListPayoutsRequest) (*ListPayoutsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListPayouts not implemented")
}
func (UnimplementedPaymentServiceServer) AdjustRiskScore(context.Context, *AdjustRiskScoreRequest) (*RiskProfileResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AdjustRiskScore not implemented")
}
func (UnimplementedPaymentServiceServer) GetRiskProfile(context.Context, *GetRiskProfileRequest) (*RiskProfileResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRiskProfile not implemented")
}
func (UnimplementedPaymentServiceServer) mustEmbedUnimplementedPaymentServiceServer() {}

// RegisterPaymentServiceServer registers the PaymentServiceServer with the gRPC server.
func RegisterPaymentServiceServer(s *grpclib.Server, srv PaymentServiceServer) {
	s.RegisterService(&_PaymentService_serviceDesc, srv)
}

var _PaymentService_serviceDesc = grpclib.ServiceDesc{ //nolint:revive
	ServiceName: "fanora.payment.v1.PaymentService",
	HandlerType: (*PaymentServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ProcessPayment", Handler: _PaymentService_ProcessPayment_Handler},
		{MethodName: "GetTransaction", Handler: _PaymentService_GetTransaction_Handler},
		{MethodName: "ListFanTransactions", Handler: _PaymentService_ListFanTransactions_Handler},
		{MethodName: "ListCreatorTransactions", Handler: _PaymentService_ListCreatorTransactions_Handler},
		{MethodName: "RequestPayout", Handler: _PaymentService_RequestPayout_Handler},
		{MethodName: "GetPayout", Handler: _PaymentService_GetPayout_Handler},
		{MethodName: "ListPayouts", Handler: _PaymentService_ListPayouts_Handler},
		{MethodName: "AdjustRiskScore", Handler: _PaymentService_AdjustRiskScore_Handler},
		{MethodName: "GetRiskProfile", Handler: _PaymentService_GetRiskProfile_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _PaymentService_ProcessPayment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(ProcessPaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).ProcessPayment(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/ProcessPayment",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).ProcessPayment(ctx, req.(*ProcessPaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentService_GetTransaction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(GetTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).GetTransaction(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/GetTransaction",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).GetTransaction(ctx, req.(*GetTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentService_ListFanTransactions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(ListFanTransactionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).ListFanTransactions(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/ListFanTransactions",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).ListFanTransactions(ctx, req.(*ListFanTransactionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentService_ListCreatorTransactions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(ListCreatorTransactionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).ListCreatorTransactions(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/ListCreatorTransactions",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).ListCreatorTransactions(ctx, req.(*ListCreatorTransactionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentService_RequestPayout_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(RequestPayoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).RequestPayout(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/RequestPayout",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).RequestPayout(ctx, req.(*RequestPayoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentService_GetPayout_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(GetPayoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).GetPayout(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/GetPayout",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).GetPayout(ctx, req.(*GetPayoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentService_ListPayouts_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(ListPayoutsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).ListPayouts(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/ListPayouts",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).ListPayouts(ctx, req.(*ListPayoutsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentService_AdjustRiskScore_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(AdjustRiskScoreRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).AdjustRiskScore(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/AdjustRiskScore",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).AdjustRiskScore(ctx, req.(*AdjustRiskScoreRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentService_GetRiskProfile_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) { //nolint:revive,errcheck // gRPC handler registration
	in := new(GetRiskProfileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).GetRiskProfile(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/fanora.payment.v1.PaymentService/GetRiskProfile",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServiceServer).GetRiskProfile(ctx, req.(*GetRiskProfileRequest))
	}
	return interceptor(ctx, in, info, handler)
}
