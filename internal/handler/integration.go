package handler

import (
	"net/http"

	"circular-storefront/internal/dto"
	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type IntegrationHandler struct {
	integrationService service.IntegrationService
}

func NewIntegrationHandler(integrationService service.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{
		integrationService: integrationService,
	}
}

func (h *IntegrationHandler) TestEmail(c echo.Context) error {
	if err := h.integrationService.TestEmail(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"connected": true})
}

func (h *IntegrationHandler) SendEmail(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SendEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.integrationService.SendEmail(ctx, req.To, req.Subject, req.HTML)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"id": id})
}

func (h *IntegrationHandler) TestMailingList(c echo.Context) error {
	if err := h.integrationService.TestMailingList(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"connected": true})
}

func (h *IntegrationHandler) SyncMailingList(c echo.Context) error {
	result, err := h.integrationService.SyncMailingList(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *IntegrationHandler) SendCampaign(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SendCampaignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.integrationService.SendCampaign(ctx, service.CampaignInput{
		Subject: req.Subject,
		HTML:    req.HTML,
		ReplyTo: req.ReplyTo,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"campaign_id": id})
}
