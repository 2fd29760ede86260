package handler

import (
	"net/http"

	"circular-storefront/internal/dto"
	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type NewsletterHandler struct {
	newsletterService service.NewsletterService
}

func NewNewsletterHandler(newsletterService service.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{
		newsletterService: newsletterService,
	}
}

func (h *NewsletterHandler) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SubscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	subscriber, err := h.newsletterService.Subscribe(ctx, req.Email, req.Name, req.Source)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, subscriber)
}

func (h *NewsletterHandler) Unsubscribe(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UnsubscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.newsletterService.Unsubscribe(ctx, req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "unsubscribed",
	})
}

func (h *NewsletterHandler) ListSubscribers(c echo.Context) error {
	ctx := c.Request().Context()

	page, size := pageParams(c)
	subscribers, total, err := h.newsletterService.List(ctx, c.QueryParam("status"), page, size)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newPage(subscribers, total, page, size))
}
