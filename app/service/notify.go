package service

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-billing/app/repository"
)

func (s *PaymentService) RunNotificationLoop(ctx context.Context) error {
	return s.runClaimLoop(ctx, "handler_notifications", s.workerCfg.NotificationInterval, s.NotifyHandlerOnce)
}

// NotifyHandlerOnce claims one due notification and posts its payload to the
// handler URL. Only a 200 counts as delivered; anything else releases the
// claim and the row is retried after the interval, indefinitely.
func (s *PaymentService) NotifyHandlerOnce(ctx context.Context) (bool, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer repository.Rollback(ctx, tx)

	request, err := s.notificationRepo.ClaimDue(ctx, tx, now.Add(-s.workerCfg.NotificationInterval))
	if err != nil {
		return false, err
	}
	if request == nil {
		return false, nil
	}

	release := func() error {
		if err := s.notificationRepo.MarkProcessed(ctx, tx, request.ID, now); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, request.HandlerURL, bytes.NewReader(request.Data))
	if err != nil {
		s.logger.WithError(err).WithField("notification_id", request.ID).Warn("bad handler request")
		return true, release()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.handlerHTTP.Do(req)
	if err != nil {
		s.logger.WithError(err).
			WithField("notification_id", request.ID).
			WithField("handler_url", request.HandlerURL).
			Warn("handler unreachable")
		return true, release()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.WithField("notification_id", request.ID).
			WithField("handler_url", request.HandlerURL).
			WithField("status_code", resp.StatusCode).
			Warn("handler rejected notification")
		return true, release()
	}

	if err := s.notificationRepo.Delete(ctx, tx, request.ID); err != nil {
		return true, err
	}

	return true, tx.Commit(ctx)
}
