package handler

import (
	"net/http"

	"circular-storefront/internal/dto"
	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"
	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	page, size := pageParams(c)
	orders, total, err := h.orderService.List(ctx, repository.OrderFilter{
		Status:   model.OrderStatus(c.QueryParam("status")),
		Email:    c.QueryParam("email"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newPage(orders, total, page, size))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.orderService.SetStatus(ctx, c.Param("id"), req.Status, req.Version)
	if err != nil {
		return err
	}

	resp := dto.UpdateStatusResponse{
		Order:        result.Order,
		Notification: string(result.Notification),
	}
	if result.Notification == service.NotificationDropped {
		resp.Warning = "status updated, but the customer email could not be queued"
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) UpdateTracking(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateTrackingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.SetTracking(ctx, c.Param("id"), repository.TrackingFields{
		TrackingNumber:    req.TrackingNumber,
		TrackingCarrier:   req.TrackingCarrier,
		EstimatedDelivery: req.EstimatedDeliveryDate,
		AdminNotes:        req.AdminNotes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Carriers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		"carriers": h.orderService.Carriers(),
	})
}

// TrackOrder is the public order lookup.
func (h *OrderHandler) TrackOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.TrackOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.Track(ctx, req.OrderID, req.Email)
	if err != nil {
		return err
	}

	// customers do not see internal notes
	order.AdminNotes = ""
	return c.JSON(http.StatusOK, order)
}
