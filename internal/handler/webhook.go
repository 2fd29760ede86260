package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	intakeService service.PaymentIntakeService
}

func NewWebhookHandler(intakeService service.PaymentIntakeService) *WebhookHandler {
	return &WebhookHandler{
		intakeService: intakeService,
	}
}

// readBody rejects payloads over maxWebhookBody rather than truncating them.
func readBody(c echo.Context) ([]byte, error) {
	r := http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody)
	body, err := io.ReadAll(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not read body")
	}
	return body, nil
}

func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	_, err = h.intakeService.HandleStripeWebhook(ctx, body, c.Request().Header.Get("Stripe-Signature"))
	if errors.Is(err, service.ErrInvalidSignature) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
	}
	if err != nil {
		return fmt.Errorf("handle stripe webhook: %w", err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) MobileMoneyWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	_, err = h.intakeService.HandleMobileMoneyWebhook(ctx, body, c.Request().Header.Get("X-Signature"))
	if errors.Is(err, service.ErrInvalidSignature) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
	}
	if err != nil {
		return fmt.Errorf("handle mobile money webhook: %w", err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
