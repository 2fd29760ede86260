package handler

import (
	"net/http"

	"circular-storefront/internal/dto"
	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves staff roles and payment configurations.
type AdminHandler struct {
	roleService          service.RoleService
	paymentConfigService service.PaymentConfigService
}

func NewAdminHandler(roleService service.RoleService, paymentConfigService service.PaymentConfigService) *AdminHandler {
	return &AdminHandler{
		roleService:          roleService,
		paymentConfigService: paymentConfigService,
	}
}

func (h *AdminHandler) ListRoles(c echo.Context) error {
	ctx := c.Request().Context()

	roles, err := h.roleService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, roles)
}

func (h *AdminHandler) AssignRole(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AssignRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := h.roleService.Assign(ctx, req.UserID, req.Role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, role)
}

func (h *AdminHandler) RevokeRole(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.roleService.Revoke(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListPaymentConfigs(c echo.Context) error {
	ctx := c.Request().Context()

	configs, err := h.paymentConfigService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, configs)
}

func (h *AdminHandler) CreatePaymentConfig(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentConfigRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cfg, err := h.paymentConfigService.Create(ctx, service.PaymentConfigInput{
		Provider:       req.Provider,
		DisplayName:    req.DisplayName,
		PublishableKey: req.PublishableKey,
		IsDefault:      req.IsDefault,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, cfg)
}

func (h *AdminHandler) SetDefaultPaymentConfig(c echo.Context) error {
	ctx := c.Request().Context()

	cfg, err := h.paymentConfigService.SetDefault(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cfg)
}

func (h *AdminHandler) DeletePaymentConfig(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.paymentConfigService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
