package grpc

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fanora/payment-service/internal/application/dto"
	"github.com/fanora/payment-service/internal/application/usecase"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/service"
	"github.com/fanora/payment-service/pkg/auth"
)

var currencyCodeRE = regexp.MustCompile(`^[A-Z]{3}$`)

const defaultPageSize = 50

// requireRole checks that the caller has at least one of the given roles.
func requireRole(ctx context.Context, roles ...string) error {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "authentication required")
	}
	for _, role := range roles {
		if claims.HasRole(role) {
			return nil
		}
	}
	return status.Error(codes.PermissionDenied, "insufficient permissions")
}

// Compile-time assertion that PaymentServiceHandler implements PaymentServiceServer.
var _ PaymentServiceServer = (*PaymentServiceHandler)(nil)

// PaymentServiceHandler implements the gRPC PaymentServiceServer interface.
type PaymentServiceHandler struct {
	UnimplementedPaymentServiceServer
	processPaymentUC *usecase.ProcessPayment
	getTransactionUC *usecase.GetTransaction
	processPayoutUC  *usecase.ProcessPayout
	adjustRiskUC     *usecase.AdjustRisk
}

// NewPaymentServiceHandler creates a new PaymentServiceHandler.
func NewPaymentServiceHandler(
	processPaymentUC *usecase.ProcessPayment,
	getTransactionUC *usecase.GetTransaction,
	processPayoutUC *usecase.ProcessPayout,
	adjustRiskUC *usecase.AdjustRisk,
) *PaymentServiceHandler {
	return &PaymentServiceHandler{
		processPaymentUC: processPaymentUC,
		getTransactionUC: getTransactionUC,
		processPayoutUC:  processPayoutUC,
		adjustRiskUC:     adjustRiskUC,
	}
}

// Proto-aligned request/response message types.

// ProcessPaymentRequest represents the proto ProcessPaymentRequest message.
type ProcessPaymentRequest struct {
	FanID       string `json:"fan_id"`
	CreatorID   string `json:"creator_id"`
	PaymentType string `json:"payment_type"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Region      string `json:"region"`
}

// ProcessPaymentResponse represents the proto ProcessPaymentResponse message.
type ProcessPaymentResponse struct {
	TransactionID string `json:"transaction_id"`
	Provider      string `json:"provider"`
	ProviderTxID  string `json:"provider_tx_id"`
	Status        string `json:"status"`
	InitiatedAt   string `json:"initiated_at"`
}

// GetTransactionRequest represents the proto GetTransactionRequest message.
type GetTransactionRequest struct {
	ID string `json:"id"`
}

// GetTransactionResponse represents the proto GetTransactionResponse message.
type GetTransactionResponse struct {
	Transaction *TransactionMsg `json:"transaction"`
}

// ListFanTransactionsRequest represents the proto ListFanTransactionsRequest message.
type ListFanTransactionsRequest struct {
	FanID  string `json:"fan_id"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ListCreatorTransactionsRequest represents the proto ListCreatorTransactionsRequest message.
type ListCreatorTransactionsRequest struct {
	CreatorID string `json:"creator_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// ListTransactionsResponse represents the proto ListTransactionsResponse message.
type ListTransactionsResponse struct {
	Transactions []*TransactionMsg `json:"transactions"`
	TotalCount   int               `json:"total_count"`
}

// TransactionMsg represents the proto Transaction message.
type TransactionMsg struct {
	ID            string `json:"id"`
	FanID         string `json:"fan_id"`
	CreatorID     string `json:"creator_id"`
	Provider      string `json:"provider"`
	ProviderTxID  string `json:"provider_tx_id"`
	PaymentType   string `json:"payment_type"`
	Status        string `json:"status"`
	AmountMinor   int64  `json:"amount_minor"`
	FeeMinor      int64  `json:"fee_minor"`
	NetMinor      int64  `json:"net_minor"`
	Currency      string `json:"currency"`
	Region        string `json:"region"`
	FailureReason string `json:"failure_reason"`
	InitiatedAt   string `json:"initiated_at"`
	SettledAt     string `json:"settled_at"`
}

// RequestPayoutRequest represents the proto RequestPayoutRequest message.
type RequestPayoutRequest struct {
	CreatorID   string `json:"creator_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
}

// RequestPayoutResponse represents the proto RequestPayoutResponse message.
type RequestPayoutResponse struct {
	Payout *PayoutMsg `json:"payout"`
}

// GetPayoutRequest represents the proto GetPayoutRequest message.
type GetPayoutRequest struct {
	ID string `json:"id"`
}

// GetPayoutResponse represents the proto GetPayoutResponse message.
type GetPayoutResponse struct {
	Payout *PayoutMsg `json:"payout"`
}

// ListPayoutsRequest represents the proto ListPayoutsRequest message.
type ListPayoutsRequest struct {
	CreatorID string `json:"creator_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// ListPayoutsResponse represents the proto ListPayoutsResponse message.
type ListPayoutsResponse struct {
	Payouts    []*PayoutMsg `json:"payouts"`
	TotalCount int          `json:"total_count"`
}

// PayoutMsg represents the proto Payout message.
type PayoutMsg struct {
	ID            string `json:"id"`
	CreatorID     string `json:"creator_id"`
	Provider      string `json:"provider"`
	ProviderTxID  string `json:"provider_tx_id"`
	Status        string `json:"status"`
	AmountMinor   int64  `json:"amount_minor"`
	FeeMinor      int64  `json:"fee_minor"`
	Currency      string `json:"currency"`
	Destination   string `json:"destination"`
	FailureReason string `json:"failure_reason"`
	RequestedAt   string `json:"requested_at"`
	PaidAt        string `json:"paid_at"`
}

// AdjustRiskScoreRequest represents the proto AdjustRiskScoreRequest message.
type AdjustRiskScoreRequest struct {
	UserID string `json:"user_id"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// GetRiskProfileRequest represents the proto GetRiskProfileRequest message.
type GetRiskProfileRequest struct {
	UserID string `json:"user_id"`
}

// RiskProfileResponse represents the proto RiskProfileResponse message.
type RiskProfileResponse struct {
	UserID         string               `json:"user_id"`
	EffectiveScore int                  `json:"effective_score"`
	Blocked        bool                 `json:"blocked"`
	LastAdjustedAt string               `json:"last_adjusted_at"`
	Adjustments    []*RiskAdjustmentMsg `json:"adjustments"`
}

// RiskAdjustmentMsg represents the proto RiskAdjustment message.
type RiskAdjustmentMsg struct {
	Delta      int    `json:"delta"`
	ScoreAfter int    `json:"score_after"`
	Reason     string `json:"reason"`
	Actor      string `json:"actor"`
	At         string `json:"at"`
}

// ProcessPayment handles the gRPC request to charge a fan.
func (h *PaymentServiceHandler) ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*ProcessPaymentResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	fanUUID, err := uuid.Parse(req.FanID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid fan_id: %v", err)
	}
	creatorUUID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid creator_id: %v", err)
	}
	if req.AmountMinor <= 0 {
		return nil, status.Error(codes.InvalidArgument, "amount_minor must be positive")
	}
	if !currencyCodeRE.MatchString(req.Currency) {
		return nil, status.Error(codes.InvalidArgument, "currency must be a 3-letter uppercase ISO code")
	}
	if req.Region == "" {
		return nil, status.Error(codes.InvalidArgument, "region is required")
	}

	resp, err := h.processPaymentUC.Execute(ctx, dto.ProcessPaymentRequest{
		FanID:       fanUUID,
		CreatorID:   creatorUUID,
		PaymentType: req.PaymentType,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Region:      req.Region,
	})
	if err != nil {
		return nil, mapPaymentError(err)
	}

	return &ProcessPaymentResponse{
		TransactionID: resp.ID.String(),
		Provider:      resp.Provider,
		ProviderTxID:  resp.ProviderTxID,
		Status:        resp.Status,
		InitiatedAt:   resp.InitiatedAt.Format(time.RFC3339),
	}, nil
}

// GetTransaction handles the gRPC request to fetch one transaction.
func (h *PaymentServiceHandler) GetTransaction(ctx context.Context, req *GetTransactionRequest) (*GetTransactionResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	resp, err := h.getTransactionUC.Execute(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "transaction not found")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &GetTransactionResponse{Transaction: toTransactionMsg(resp)}, nil
}

// ListFanTransactions handles the gRPC request for a fan's payment history.
func (h *PaymentServiceHandler) ListFanTransactions(ctx context.Context, req *ListFanTransactionsRequest) (*ListTransactionsResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	fanUUID, err := uuid.Parse(req.FanID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid fan_id: %v", err)
	}

	limit, offset := normalizePage(req.Limit, req.Offset)
	txns, total, err := h.getTransactionUC.ListByFan(ctx, fanUUID, limit, offset)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return toListTransactionsResponse(txns, total), nil
}

// ListCreatorTransactions handles the gRPC request for transactions crediting a creator.
func (h *PaymentServiceHandler) ListCreatorTransactions(ctx context.Context, req *ListCreatorTransactionsRequest) (*ListTransactionsResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	creatorUUID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid creator_id: %v", err)
	}

	limit, offset := normalizePage(req.Limit, req.Offset)
	txns, total, err := h.getTransactionUC.ListByCreator(ctx, creatorUUID, limit, offset)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return toListTransactionsResponse(txns, total), nil
}

// RequestPayout handles the gRPC request for a creator withdrawal.
func (h *PaymentServiceHandler) RequestPayout(ctx context.Context, req *RequestPayoutRequest) (*RequestPayoutResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	creatorUUID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid creator_id: %v", err)
	}
	if req.AmountMinor <= 0 {
		return nil, status.Error(codes.InvalidArgument, "amount_minor must be positive")
	}
	if !currencyCodeRE.MatchString(req.Currency) {
		return nil, status.Error(codes.InvalidArgument, "currency must be a 3-letter uppercase ISO code")
	}
	if req.Destination == "" {
		return nil, status.Error(codes.InvalidArgument, "destination is required")
	}

	resp, err := h.processPayoutUC.Execute(ctx, dto.ProcessPayoutRequest{
		CreatorID:   creatorUUID,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Destination: req.Destination,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInsufficientBalance) {
			return nil, status.Error(codes.FailedPrecondition, "insufficient settled balance")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &RequestPayoutResponse{Payout: toPayoutMsg(resp)}, nil
}

// GetPayout handles the gRPC request to fetch one payout.
func (h *PaymentServiceHandler) GetPayout(ctx context.Context, req *GetPayoutRequest) (*GetPayoutResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	resp, err := h.processPayoutUC.GetPayout(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "payout not found")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &GetPayoutResponse{Payout: toPayoutMsg(resp)}, nil
}

// ListPayouts handles the gRPC request for a creator's payouts.
func (h *PaymentServiceHandler) ListPayouts(ctx context.Context, req *ListPayoutsRequest) (*ListPayoutsResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	creatorUUID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid creator_id: %v", err)
	}

	limit, offset := normalizePage(req.Limit, req.Offset)
	payouts, total, err := h.processPayoutUC.ListPayouts(ctx, creatorUUID, limit, offset)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	out := make([]*PayoutMsg, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, toPayoutMsg(p))
	}
	return &ListPayoutsResponse{Payouts: out, TotalCount: total}, nil
}

// AdjustRiskScore handles the gRPC request for a manual risk override.
// The acting admin comes from the caller's JWT, never the request body.
func (h *PaymentServiceHandler) AdjustRiskScore(ctx context.Context, req *AdjustRiskScoreRequest) (*RiskProfileResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	userUUID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid user_id: %v", err)
	}
	if req.Reason == "" {
		return nil, status.Error(codes.InvalidArgument, "reason is required")
	}

	claims, _ := auth.ClaimsFromContext(ctx)
	resp, err := h.adjustRiskUC.Execute(ctx, dto.AdjustRiskRequest{
		UserID: userUUID,
		Delta:  req.Delta,
		Reason: req.Reason,
		Actor:  "admin:" + claims.UserID.String(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return toRiskProfileResponse(resp), nil
}

// GetRiskProfile handles the gRPC request to read a user's risk profile.
func (h *PaymentServiceHandler) GetRiskProfile(ctx context.Context, req *GetRiskProfileRequest) (*RiskProfileResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	userUUID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid user_id: %v", err)
	}

	resp, err := h.adjustRiskUC.GetProfile(ctx, userUUID)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return toRiskProfileResponse(resp), nil
}

func mapPaymentError(err error) error {
	var routeErr *service.UnsupportedRouteError
	switch {
	case errors.Is(err, usecase.ErrRiskBlocked):
		return status.Error(codes.FailedPrecondition, "payment blocked by risk policy")
	case errors.As(err, &routeErr):
		return status.Errorf(codes.FailedPrecondition, "no provider for region %s and currency %s", routeErr.Region, routeErr.Currency)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func toListTransactionsResponse(txns []dto.TransactionResponse, total int) *ListTransactionsResponse {
	out := make([]*TransactionMsg, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionMsg(txn))
	}
	return &ListTransactionsResponse{Transactions: out, TotalCount: total}
}

func toTransactionMsg(txn dto.TransactionResponse) *TransactionMsg {
	msg := &TransactionMsg{
		ID:            txn.ID.String(),
		FanID:         txn.FanID.String(),
		CreatorID:     txn.CreatorID.String(),
		Provider:      txn.Provider,
		ProviderTxID:  txn.ProviderTxID,
		PaymentType:   txn.PaymentType,
		Status:        txn.Status,
		AmountMinor:   txn.AmountMinor,
		FeeMinor:      txn.FeeMinor,
		NetMinor:      txn.NetMinor,
		Currency:      txn.Currency,
		Region:        txn.Region,
		FailureReason: txn.FailureReason,
		InitiatedAt:   txn.InitiatedAt.Format(time.RFC3339),
	}
	if txn.SettledAt != nil {
		msg.SettledAt = txn.SettledAt.Format(time.RFC3339)
	}
	return msg
}

func toPayoutMsg(p dto.PayoutResponse) *PayoutMsg {
	msg := &PayoutMsg{
		ID:            p.ID.String(),
		CreatorID:     p.CreatorID.String(),
		Provider:      p.Provider,
		ProviderTxID:  p.ProviderTxID,
		Status:        p.Status,
		AmountMinor:   p.AmountMinor,
		FeeMinor:      p.FeeMinor,
		Currency:      p.Currency,
		Destination:   p.Destination,
		FailureReason: p.FailureReason,
		RequestedAt:   p.RequestedAt.Format(time.RFC3339),
	}
	if p.PaidAt != nil {
		msg.PaidAt = p.PaidAt.Format(time.RFC3339)
	}
	return msg
}

func toRiskProfileResponse(resp dto.RiskProfileResponse) *RiskProfileResponse {
	adjustments := make([]*RiskAdjustmentMsg, 0, len(resp.History))
	for _, adj := range resp.History {
		adjustments = append(adjustments, &RiskAdjustmentMsg{
			Delta:      adj.Delta,
			ScoreAfter: adj.ScoreAfter,
			Reason:     adj.Reason,
			Actor:      adj.Actor,
			At:         adj.At.Format(time.RFC3339),
		})
	}
	return &RiskProfileResponse{
		UserID:         resp.UserID.String(),
		EffectiveScore: resp.EffectiveScore,
		Blocked:        resp.Blocked,
		LastAdjustedAt: resp.LastAdjustedAt.Format(time.RFC3339),
		Adjustments:    adjustments,
	}
}
