package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/provider"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
	"github.com/vibast-solutions/ms-go-billing/config"
)

// The fakes below keep state in plain maps and slices and ignore the passed
// query handle; transactional visibility is not emulated.

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	txs      []*fakeTx
	beginErr error
}

func (d *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (d *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (d *fakeDB) Begin(context.Context) (repository.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	tx := &fakeTx{}
	d.txs = append(d.txs, tx)
	return tx, nil
}

type fakePaymentRepo struct {
	payments  map[uuid.UUID]*entity.Payment
	createErr error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uuid.UUID]*entity.Payment{}}
}

func (r *fakePaymentRepo) Create(_ context.Context, _ repository.DBTX, payment *entity.Payment) error {
	if r.createErr != nil {
		return r.createErr
	}
	copyItem := *payment
	r.payments[payment.ID] = &copyItem
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*entity.Payment, error) {
	item, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *fakePaymentRepo) SetTerminalStatus(_ context.Context, _ repository.DBTX, id uuid.UUID, status string, cancellationReason *string) error {
	item, ok := r.payments[id]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	item.Status = status
	item.ExternalCancellationReason = cancellationReason
	return nil
}

type fakePaymentRequestRepo struct {
	requests map[uuid.UUID]*entity.PaymentRequest
}

func newFakePaymentRequestRepo() *fakePaymentRequestRepo {
	return &fakePaymentRequestRepo{requests: map[uuid.UUID]*entity.PaymentRequest{}}
}

func (r *fakePaymentRequestRepo) Create(_ context.Context, _ repository.DBTX, request *entity.PaymentRequest) error {
	copyItem := *request
	r.requests[request.ID] = &copyItem
	return nil
}

func (r *fakePaymentRequestRepo) ClaimDue(_ context.Context, _ repository.DBTX, olderThan time.Time) (*entity.PaymentRequest, error) {
	item := claimDue(r.requests, olderThan, func(req *entity.PaymentRequest) *time.Time { return req.ProcessedAt })
	if item == nil {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *fakePaymentRequestRepo) MarkProcessed(_ context.Context, _ repository.DBTX, id uuid.UUID, at time.Time) error {
	if item, ok := r.requests[id]; ok {
		processedAt := at
		item.ProcessedAt = &processedAt
	}
	return nil
}

func (r *fakePaymentRequestRepo) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) error {
	delete(r.requests, id)
	return nil
}

type fakeRefundRepo struct {
	refunds map[uuid.UUID]*entity.Refund
}

func newFakeRefundRepo() *fakeRefundRepo {
	return &fakeRefundRepo{refunds: map[uuid.UUID]*entity.Refund{}}
}

func (r *fakeRefundRepo) Create(_ context.Context, _ repository.DBTX, refund *entity.Refund) error {
	copyItem := *refund
	r.refunds[refund.ID] = &copyItem
	return nil
}

func (r *fakeRefundRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*entity.Refund, error) {
	item, ok := r.refunds[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *fakeRefundRepo) Complete(_ context.Context, _ repository.DBTX, id uuid.UUID, externalID *string, status string, cancellationReason *string) error {
	item, ok := r.refunds[id]
	if !ok {
		return repository.ErrRefundNotFound
	}
	item.ExternalID = externalID
	item.Status = status
	item.ExternalCancellationReason = cancellationReason
	return nil
}

type fakeRefundRequestRepo struct {
	requests map[uuid.UUID]*entity.RefundRequest
}

func newFakeRefundRequestRepo() *fakeRefundRequestRepo {
	return &fakeRefundRequestRepo{requests: map[uuid.UUID]*entity.RefundRequest{}}
}

func (r *fakeRefundRequestRepo) Create(_ context.Context, _ repository.DBTX, request *entity.RefundRequest) error {
	copyItem := *request
	r.requests[request.ID] = &copyItem
	return nil
}

func (r *fakeRefundRequestRepo) ClaimDue(_ context.Context, _ repository.DBTX, olderThan time.Time) (*entity.RefundRequest, error) {
	item := claimDue(r.requests, olderThan, func(req *entity.RefundRequest) *time.Time { return req.ProcessedAt })
	if item == nil {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *fakeRefundRequestRepo) MarkProcessed(_ context.Context, _ repository.DBTX, id uuid.UUID, at time.Time) error {
	if item, ok := r.requests[id]; ok {
		processedAt := at
		item.ProcessedAt = &processedAt
	}
	return nil
}

func (r *fakeRefundRequestRepo) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) error {
	delete(r.requests, id)
	return nil
}

type fakeNotificationRepo struct {
	requests map[uuid.UUID]*entity.HandlerNotificationRequest
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{requests: map[uuid.UUID]*entity.HandlerNotificationRequest{}}
}

func (r *fakeNotificationRepo) Create(_ context.Context, _ repository.DBTX, request *entity.HandlerNotificationRequest) error {
	if _, ok := r.requests[request.ID]; ok {
		return nil
	}
	copyItem := *request
	r.requests[request.ID] = &copyItem
	return nil
}

func (r *fakeNotificationRepo) ClaimDue(_ context.Context, _ repository.DBTX, olderThan time.Time) (*entity.HandlerNotificationRequest, error) {
	item := claimDue(r.requests, olderThan, func(req *entity.HandlerNotificationRequest) *time.Time { return req.ProcessedAt })
	if item == nil {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *fakeNotificationRepo) MarkProcessed(_ context.Context, _ repository.DBTX, id uuid.UUID, at time.Time) error {
	if item, ok := r.requests[id]; ok {
		processedAt := at
		item.ProcessedAt = &processedAt
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) error {
	delete(r.requests, id)
	return nil
}

// claimDue mirrors the repository query: due when never processed or last
// processed before olderThan, never-processed rows first.
func claimDue[T any](items map[uuid.UUID]*T, olderThan time.Time, processedAt func(*T) *time.Time) *T {
	var best *T
	for _, item := range items {
		at := processedAt(item)
		if at != nil && !at.Before(olderThan) {
			continue
		}
		if best == nil {
			best = item
			continue
		}
		bestAt := processedAt(best)
		switch {
		case at == nil && bestAt != nil:
			best = item
		case at != nil && bestAt != nil && at.Before(*bestAt):
			best = item
		}
	}
	return best
}

type fakeProviderClient struct {
	createPaymentFn func(ctx context.Context, input *provider.CreatePaymentInput, idempotenceKey string) (*provider.CreatePaymentOutput, error)
	getPaymentFn    func(ctx context.Context, externalID string) (*provider.PaymentState, error)
	createRefundFn  func(ctx context.Context, input *provider.CreateRefundInput, idempotenceKey string) (*provider.RefundOutcome, error)
}

func (p *fakeProviderClient) CreatePayment(ctx context.Context, input *provider.CreatePaymentInput, idempotenceKey string) (*provider.CreatePaymentOutput, error) {
	if p.createPaymentFn != nil {
		return p.createPaymentFn(ctx, input, idempotenceKey)
	}
	return &provider.CreatePaymentOutput{ID: "ext-1", Status: "pending", ConfirmationURL: "https://pay.example/confirm"}, nil
}

func (p *fakeProviderClient) GetPayment(ctx context.Context, externalID string) (*provider.PaymentState, error) {
	if p.getPaymentFn != nil {
		return p.getPaymentFn(ctx, externalID)
	}
	return &provider.PaymentState{ID: externalID, Status: "pending"}, nil
}

func (p *fakeProviderClient) CreateRefund(ctx context.Context, input *provider.CreateRefundInput, idempotenceKey string) (*provider.RefundOutcome, error) {
	if p.createRefundFn != nil {
		return p.createRefundFn(ctx, input, idempotenceKey)
	}
	return &provider.RefundOutcome{StatusCode: 200, ID: "rf-ext-1", Status: "succeeded"}, nil
}

type publishedEvent struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{topic: topic, payload: payload})
	return nil
}

type serviceFixture struct {
	db              *fakeDB
	paymentRepo     *fakePaymentRepo
	paymentRequests *fakePaymentRequestRepo
	refundRepo      *fakeRefundRepo
	refundRequests  *fakeRefundRequestRepo
	notifications   *fakeNotificationRepo
	provider        *fakeProviderClient
	publisher       *fakePublisher
	service         *PaymentService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		db:              &fakeDB{},
		paymentRepo:     newFakePaymentRepo(),
		paymentRequests: newFakePaymentRequestRepo(),
		refundRepo:      newFakeRefundRepo(),
		refundRequests:  newFakeRefundRequestRepo(),
		notifications:   newFakeNotificationRepo(),
		provider:        &fakeProviderClient{},
		publisher:       &fakePublisher{},
	}
	f.service = NewPaymentService(
		f.db,
		f.paymentRepo,
		f.paymentRequests,
		f.refundRepo,
		f.refundRequests,
		f.notifications,
		f.provider,
		f.publisher,
		config.WorkerConfig{
			PollInterval:         time.Second,
			RefundInterval:       time.Second,
			NotificationInterval: time.Second,
			NotificationTimeout:  2 * time.Second,
		},
	)
	return f
}
