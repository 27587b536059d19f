package handler

import (
	"beautypro-payments/internal/dto"
	"beautypro-payments/internal/middleware"
	"beautypro-payments/internal/repository"
	"beautypro-payments/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type SellerHandler struct {
	sellerService service.SellerService
	payoutService service.PayoutService
}

func NewSellerHandler(sellerService service.SellerService, payoutService service.PayoutService) *SellerHandler {
	return &SellerHandler{
		sellerService: sellerService,
		payoutService: payoutService,
	}
}

func (h *SellerHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.sellerService.UpdateFulfillment(ctx, middleware.SellerID(c), c.Param("id"), req.Status, req.TrackingNumber)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOrderSeller):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrTrackingRequired):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return fmt.Errorf("update order status: %w", err)
	}

	return c.JSON(http.StatusOK, dto.OrderResponse{
		ID:             order.ID,
		Status:         order.Status,
		TrackingNumber: order.TrackingNumber,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
	})
}

func (h *SellerHandler) ListPayouts(c echo.Context) error {
	ctx := c.Request().Context()

	payouts, err := h.payoutService.ListSellerPayouts(ctx, middleware.SellerID(c))
	if err != nil {
		return fmt.Errorf("list payouts: %w", err)
	}

	resp := make([]dto.PayoutResponse, len(payouts))
	for i, p := range payouts {
		resp[i] = dto.PayoutResponse{
			ID:        p.ID,
			OrderID:   p.OrderID,
			Amount:    p.Amount,
			Fee:       p.Fee,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
		}
	}

	return c.JSON(http.StatusOK, resp)
}
