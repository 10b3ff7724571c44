package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/provider"
	"github.com/vibast-solutions/ms-go-billing/app/publisher"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
	"github.com/vibast-solutions/ms-go-billing/app/types"
)

func (s *PaymentService) RunRefundLoop(ctx context.Context) error {
	return s.runClaimLoop(ctx, "refunds", s.workerCfg.RefundInterval, s.ProcessRefundOnce)
}

// ProcessRefundOnce claims one due refund request and posts the refund to the
// provider with the request id as the idempotency key, so a replay after a
// crash repeats the same provider call instead of creating a second refund.
// The refund row is completed outside the claim transaction; the request row
// is deleted with the claim, after the event is acked by the broker.
func (s *PaymentService) ProcessRefundOnce(ctx context.Context) (bool, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer repository.Rollback(ctx, tx)

	request, err := s.refundRequestRepo.ClaimDue(ctx, tx, now.Add(-s.workerCfg.RefundInterval))
	if err != nil {
		return false, err
	}
	if request == nil {
		return false, nil
	}

	refund, err := s.refundRepo.FindByID(ctx, tx, request.RefundID)
	if err != nil {
		return true, err
	}
	if refund == nil {
		return true, fmt.Errorf("refund %s missing for request %s", request.RefundID, request.ID)
	}

	payment, err := s.paymentRepo.FindByID(ctx, tx, refund.PaymentID)
	if err != nil {
		return true, err
	}
	if payment == nil {
		return true, fmt.Errorf("payment %s missing for refund %s", refund.PaymentID, refund.ID)
	}

	outcome, err := s.provider.CreateRefund(ctx, &provider.CreateRefundInput{
		PaymentExternalID: payment.ExternalID,
		Amount: provider.Amount{
			Value:    refund.Amount.StringFixed(2),
			Currency: refund.Currency,
		},
		Metadata: map[string]string{"refund_id": refund.ID.String()},
	}, request.ID.String())
	if err != nil {
		s.logger.WithError(err).WithField("refund_id", refund.ID).Warn("provider refund call failed")
		return true, s.releaseRefundRequest(ctx, tx, request.ID, now)
	}

	var (
		status             string
		externalID         *string
		cancellationReason *string
	)
	switch outcome.StatusCode {
	case 200:
		if !entity.TerminalStatus(outcome.Status) {
			s.logger.WithField("refund_id", refund.ID).
				WithField("provider_status", outcome.Status).
				Warn("unknown provider refund status, ignoring")
			return true, s.releaseRefundRequest(ctx, tx, request.ID, now)
		}
		status = outcome.Status
		id := outcome.ID
		externalID = &id
		if outcome.CancellationDetails != nil && outcome.CancellationDetails.Reason != "" {
			reason := outcome.CancellationDetails.Reason
			cancellationReason = &reason
		}
	case 400:
		// The provider rejected the refund outright. The body carries no
		// refund id, only the rejection description.
		s.logger.WithField("refund_id", refund.ID).
			WithField("error_code", outcome.ErrorCode).
			WithField("description", outcome.Description).
			Warn("provider rejected refund")
		status = entity.StatusCancelled
		if outcome.Description != "" {
			description := outcome.Description
			cancellationReason = &description
		}
	default:
		s.logger.WithField("refund_id", refund.ID).
			WithField("status_code", outcome.StatusCode).
			WithField("body", string(outcome.RawBody)).
			Warn("unexpected provider refund response")
		return true, s.releaseRefundRequest(ctx, tx, request.ID, now)
	}

	// Committed before the request delete: if anything below fails, the
	// replayed provider call returns the same outcome under the same key.
	if err := s.refundRepo.Complete(ctx, s.db, refund.ID, externalID, status, cancellationReason); err != nil {
		return true, err
	}

	payload, err := json.Marshal(&types.RefundEvent{
		ID:                         refund.ID.String(),
		Status:                     status,
		ExternalCancellationReason: cancellationReason,
		ExtraData:                  request.ExtraData,
	})
	if err != nil {
		return true, err
	}

	if err := s.events.Publish(ctx, publisher.TopicRefund, payload); err != nil {
		return true, err
	}
	s.logger.WithField("refund_id", refund.ID).
		WithField("status", status).
		Info("refund event published")

	if request.HandlerURL != nil {
		// Reusing the request id dedupes the outbox row across replays.
		notification := &entity.HandlerNotificationRequest{
			ID:         request.ID,
			HandlerURL: *request.HandlerURL,
			Data:       payload,
			CreatedAt:  now,
		}
		if err := s.notificationRepo.Create(ctx, s.db, notification); err != nil {
			return true, err
		}
	}

	if err := s.refundRequestRepo.Delete(ctx, tx, request.ID); err != nil {
		return true, err
	}

	return true, tx.Commit(ctx)
}

func (s *PaymentService) releaseRefundRequest(ctx context.Context, tx repository.Tx, id uuid.UUID, at time.Time) error {
	if err := s.refundRequestRepo.MarkProcessed(ctx, tx, id, at); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
