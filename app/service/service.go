package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/factory"
	"github.com/vibast-solutions/ms-go-billing/app/provider"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
	"github.com/vibast-solutions/ms-go-billing/config"
)

type database interface {
	repository.DBTX
	Begin(ctx context.Context) (repository.Tx, error)
}

type paymentRepository interface {
	Create(ctx context.Context, q repository.DBTX, payment *entity.Payment) error
	FindByID(ctx context.Context, q repository.DBTX, id uuid.UUID) (*entity.Payment, error)
	SetTerminalStatus(ctx context.Context, q repository.DBTX, id uuid.UUID, status string, cancellationReason *string) error
}

type paymentRequestRepository interface {
	Create(ctx context.Context, q repository.DBTX, request *entity.PaymentRequest) error
	ClaimDue(ctx context.Context, q repository.DBTX, olderThan time.Time) (*entity.PaymentRequest, error)
	MarkProcessed(ctx context.Context, q repository.DBTX, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, q repository.DBTX, id uuid.UUID) error
}

type refundRepository interface {
	Create(ctx context.Context, q repository.DBTX, refund *entity.Refund) error
	FindByID(ctx context.Context, q repository.DBTX, id uuid.UUID) (*entity.Refund, error)
	Complete(ctx context.Context, q repository.DBTX, id uuid.UUID, externalID *string, status string, cancellationReason *string) error
}

type refundRequestRepository interface {
	Create(ctx context.Context, q repository.DBTX, request *entity.RefundRequest) error
	ClaimDue(ctx context.Context, q repository.DBTX, olderThan time.Time) (*entity.RefundRequest, error)
	MarkProcessed(ctx context.Context, q repository.DBTX, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, q repository.DBTX, id uuid.UUID) error
}

type notificationRepository interface {
	Create(ctx context.Context, q repository.DBTX, request *entity.HandlerNotificationRequest) error
	ClaimDue(ctx context.Context, q repository.DBTX, olderThan time.Time) (*entity.HandlerNotificationRequest, error)
	MarkProcessed(ctx context.Context, q repository.DBTX, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, q repository.DBTX, id uuid.UUID) error
}

type eventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type PaymentService struct {
	db database

	paymentRepo        paymentRepository
	paymentRequestRepo paymentRequestRepository
	refundRepo         refundRepository
	refundRequestRepo  refundRequestRepository
	notificationRepo   notificationRepository

	provider provider.Client
	events   eventPublisher

	workerCfg   config.WorkerConfig
	handlerHTTP *http.Client
	logger      logrus.FieldLogger
}

func NewPaymentService(
	db database,
	paymentRepo paymentRepository,
	paymentRequestRepo paymentRequestRepository,
	refundRepo refundRepository,
	refundRequestRepo refundRequestRepository,
	notificationRepo notificationRepository,
	providerClient provider.Client,
	events eventPublisher,
	workerCfg config.WorkerConfig,
) *PaymentService {
	timeout := workerCfg.NotificationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &PaymentService{
		db:                 db,
		paymentRepo:        paymentRepo,
		paymentRequestRepo: paymentRequestRepo,
		refundRepo:         refundRepo,
		refundRequestRepo:  refundRequestRepo,
		notificationRepo:   notificationRepo,
		provider:           providerClient,
		events:             events,
		workerCfg:          workerCfg,
		handlerHTTP:        &http.Client{Timeout: timeout},
		logger:             factory.NewModuleLogger("billing-service"),
	}
}
