package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/provider"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
	"github.com/vibast-solutions/ms-go-billing/app/types"
)

// Charge creates a payment at the provider and enqueues it for polling.
// The idempotency key is ephemeral: the call is synchronous, so a client
// retry after a crash may create a duplicate payment. Accepted trade-off;
// refunds use a durable key instead.
func (s *PaymentService) Charge(ctx context.Context, req *types.ChargeRequest) (*types.ChargeResponse, error) {
	created, err := s.provider.CreatePayment(ctx, &provider.CreatePaymentInput{
		Amount: provider.Amount{
			Value:    req.Amount.StringFixed(2),
			Currency: req.Currency,
		},
		ReturnURL: req.ReturnURL,
	}, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalProviderUnavailable, err)
	}

	now := time.Now().UTC()
	payment := &entity.Payment{
		ID:         uuid.New(),
		ExternalID: created.ID,
		UserID:     req.UserID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Status:     entity.StatusCreated,
		CreatedAt:  now,
	}
	request := &entity.PaymentRequest{
		ID:         uuid.New(),
		PaymentID:  payment.ID,
		HandlerURL: optionalString(req.HandlerURL),
		ExtraData:  req.ExtraData,
		CreatedAt:  now,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer repository.Rollback(ctx, tx)

	if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, err
	}
	if err := s.paymentRequestRepo.Create(ctx, tx, request); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &types.ChargeResponse{
		PaymentID:       payment.ID,
		ConfirmationURL: created.ConfirmationURL,
	}, nil
}

// CreateRefund only records intent. The external side effect is deferred to
// the refund worker, which uses the refund request id as the provider
// idempotency key; that is what makes refund creation crash-safe.
func (s *PaymentService) CreateRefund(ctx context.Context, paymentID uuid.UUID, req *types.RefundCreateRequest) (*types.RefundCreateResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentDoesntExist
	}

	now := time.Now().UTC()
	refund := &entity.Refund{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    entity.StatusCreated,
		CreatedAt: now,
	}
	request := &entity.RefundRequest{
		ID:         uuid.New(),
		RefundID:   refund.ID,
		HandlerURL: optionalString(req.HandlerURL),
		ExtraData:  req.ExtraData,
		CreatedAt:  now,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer repository.Rollback(ctx, tx)

	if err := s.refundRepo.Create(ctx, tx, refund); err != nil {
		return nil, err
	}
	if err := s.refundRequestRepo.Create(ctx, tx, request); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &types.RefundCreateResponse{RefundID: refund.ID}, nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
