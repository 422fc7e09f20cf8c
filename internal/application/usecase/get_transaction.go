package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/application/dto"
	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
)

// GetTransaction serves transaction read queries.
type GetTransaction struct {
	transactions port.TransactionRepository
}

func NewGetTransaction(transactions port.TransactionRepository) *GetTransaction {
	return &GetTransaction{transactions: transactions}
}

func (uc *GetTransaction) Execute(ctx context.Context, id uuid.UUID) (dto.TransactionResponse, error) {
	txn, err := uc.transactions.FindByID(ctx, id)
	if err != nil {
		return dto.TransactionResponse{}, err
	}
	return toTransactionResponse(txn), nil
}

// ListByFan returns a fan's payment history, newest first.
func (uc *GetTransaction) ListByFan(ctx context.Context, fanID uuid.UUID, limit, offset int) ([]dto.TransactionResponse, int, error) {
	txns, total, err := uc.transactions.ListByFan(ctx, fanID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing fan transactions: %w", err)
	}
	return toTransactionResponses(txns), total, nil
}

// ListByCreator returns transactions crediting a creator, newest first.
func (uc *GetTransaction) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]dto.TransactionResponse, int, error) {
	txns, total, err := uc.transactions.ListByCreator(ctx, creatorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing creator transactions: %w", err)
	}
	return toTransactionResponses(txns), total, nil
}

func toTransactionResponses(txns []model.Transaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	return out
}

func toTransactionResponse(txn model.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            txn.ID(),
		FanID:         txn.FanID(),
		CreatorID:     txn.CreatorID(),
		Provider:      txn.Provider().String(),
		ProviderTxID:  txn.ProviderTxID(),
		PaymentType:   txn.PaymentType().String(),
		Status:        txn.Status().String(),
		AmountMinor:   txn.AmountMinor(),
		FeeMinor:      txn.FeeMinor(),
		NetMinor:      txn.NetMinor(),
		Currency:      txn.Currency(),
		Region:        txn.Region(),
		FailureReason: txn.FailureReason(),
		InitiatedAt:   txn.InitiatedAt(),
		SettledAt:     txn.SettledAt(),
	}
}
