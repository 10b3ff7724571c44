package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/publisher"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
	"github.com/vibast-solutions/ms-go-billing/app/types"
)

// The provider has no inbound webhooks into this system, so payment outcomes
// are observed by polling.

func (s *PaymentService) RunPollPaymentsLoop(ctx context.Context) error {
	return s.runClaimLoop(ctx, "poll_payments", s.workerCfg.PollInterval, s.PollPaymentOnce)
}

// PollPaymentOnce claims one due payment request, asks the provider for the
// payment's state and either releases the claim (pending or unknown status)
// or commits the terminal transition: payment update, topic publish with
// broker ack, notification enqueue and request delete, all in the claim
// transaction. An abort anywhere leaves the request claimable.
func (s *PaymentService) PollPaymentOnce(ctx context.Context) (bool, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer repository.Rollback(ctx, tx)

	request, err := s.paymentRequestRepo.ClaimDue(ctx, tx, now.Add(-s.workerCfg.PollInterval))
	if err != nil {
		return false, err
	}
	if request == nil {
		return false, nil
	}

	payment, err := s.paymentRepo.FindByID(ctx, tx, request.PaymentID)
	if err != nil {
		return true, err
	}
	if payment == nil {
		return true, fmt.Errorf("payment %s missing for request %s", request.PaymentID, request.ID)
	}

	state, err := s.provider.GetPayment(ctx, payment.ExternalID)
	if err != nil {
		return true, err
	}

	if state.Status == "pending" {
		return true, s.releasePaymentRequest(ctx, tx, request.ID, now)
	}
	if !entity.TerminalStatus(state.Status) {
		s.logger.WithField("payment_id", payment.ID).
			WithField("provider_status", state.Status).
			Warn("unknown provider payment status, ignoring")
		return true, s.releasePaymentRequest(ctx, tx, request.ID, now)
	}

	var cancellationReason *string
	if state.CancellationDetails != nil && state.CancellationDetails.Reason != "" {
		reason := state.CancellationDetails.Reason
		cancellationReason = &reason
	}

	if err := s.paymentRepo.SetTerminalStatus(ctx, tx, payment.ID, state.Status, cancellationReason); err != nil {
		return true, err
	}

	payload, err := json.Marshal(&types.PaymentEvent{
		ID:        payment.ID.String(),
		Status:    state.Status,
		ExtraData: request.ExtraData,
	})
	if err != nil {
		return true, err
	}

	if err := s.events.Publish(ctx, publisher.TopicPayment, payload); err != nil {
		return true, err
	}
	s.logger.WithField("payment_id", payment.ID).
		WithField("status", state.Status).
		Info("payment event published")

	if request.HandlerURL != nil {
		notification := &entity.HandlerNotificationRequest{
			ID:         uuid.New(),
			HandlerURL: *request.HandlerURL,
			Data:       payload,
			CreatedAt:  now,
		}
		if err := s.notificationRepo.Create(ctx, tx, notification); err != nil {
			return true, err
		}
	}

	if err := s.paymentRequestRepo.Delete(ctx, tx, request.ID); err != nil {
		return true, err
	}

	return true, tx.Commit(ctx)
}

func (s *PaymentService) releasePaymentRequest(ctx context.Context, tx repository.Tx, id uuid.UUID, at time.Time) error {
	if err := s.paymentRequestRepo.MarkProcessed(ctx, tx, id, at); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
