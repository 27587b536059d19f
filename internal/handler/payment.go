package handler

import (
	"beautypro-payments/internal/dto"
	"beautypro-payments/internal/service"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Webhook acknowledges every delivery it could reconcile; a 500 makes the provider retry.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "unreadable body"})
	}

	result, err := h.paymentService.HandleWebhook(ctx, c.Request().Header, body)
	if err != nil {
		status := webhookErrorStatus(err)
		h.logger.Error("webhook processing failed", "status", status, "err", err)
		return c.JSON(status, dto.ErrorResponse{Error: err.Error()})
	}

	if !result.Ignored {
		h.logger.Info("webhook processed",
			"payment_id", result.PaymentID,
			"order_id", result.OrderID,
			"provider_status", result.ProviderStatus,
			"order_status", result.OrderStatus,
			"payment_status", result.PaymentStatus,
			"payouts_created", result.PayoutsCreated,
		)
	}

	return c.JSON(http.StatusOK, dto.WebhookAck{Success: true})
}

func (h *PaymentHandler) WebhookHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "webhook endpoint ready",
	})
}

// A bad signature is 401; any other failure is 500 and gets redelivered.
func webhookErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
