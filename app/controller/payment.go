package controller

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-billing/app/factory"
	"github.com/vibast-solutions/ms-go-billing/app/service"
	"github.com/vibast-solutions/ms-go-billing/app/types"
)

type PaymentController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("billing-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) Charge(ctx echo.Context) error {
	req := new(types.ChargeRequest)
	if err := ctx.Bind(req); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.paymentService.Charge(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrExternalProviderUnavailable):
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Charge failed at provider")
			return c.writeError(ctx, http.StatusInternalServerError, service.ErrExternalProviderUnavailable.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Charge failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *PaymentController) CreateRefund(ctx echo.Context) error {
	paymentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid payment id")
	}

	req := new(types.RefundCreateRequest)
	if err := ctx.Bind(req); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.paymentService.CreateRefund(ctx.Request().Context(), paymentID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentDoesntExist):
			return c.writeError(ctx, http.StatusUnauthorized, service.ErrPaymentDoesntExist.Error())
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create refund failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
