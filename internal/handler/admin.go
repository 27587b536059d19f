package handler

import (
	"beautypro-payments/internal/dto"
	"beautypro-payments/internal/service"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultReconcileBatch = 50

type AdminHandler struct {
	payoutService service.PayoutService
	logger        *slog.Logger
}

func NewAdminHandler(payoutService service.PayoutService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		payoutService: payoutService,
		logger:        logger,
	}
}

func (h *AdminHandler) ReconcilePayouts(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultReconcileBatch
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	settled, err := h.payoutService.ReconcileMissingPayouts(ctx, limit)
	if err != nil {
		// partial success is still reported
		h.logger.Error("manual payout reconcile had failures", "err", err)
	}

	return c.JSON(http.StatusOK, dto.ReconcileResponse{OrdersSettled: settled})
}
