package handler

import (
	"io"
	"net/http"

	"circular-storefront/internal/middleware"
	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

const maxContentBody = 1 << 20

type ContentHandler struct {
	contentService service.ContentService
}

func NewContentHandler(contentService service.ContentService) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
	}
}

func (h *ContentHandler) PublicPage(c echo.Context) error {
	ctx := c.Request().Context()

	sections, err := h.contentService.PublicPage(ctx, c.Param("page"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sections)
}

func (h *ContentHandler) ListSections(c echo.Context) error {
	ctx := c.Request().Context()

	sections, err := h.contentService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sections)
}

func (h *ContentHandler) GetSection(c echo.Context) error {
	ctx := c.Request().Context()

	section, err := h.contentService.Get(ctx, c.Param("page"), c.Param("section"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, section)
}

// PutSection stores the request body as the section document.
func (h *ContentHandler) PutSection(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxContentBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read body")
	}

	section, err := h.contentService.Upsert(ctx, c.Param("page"), c.Param("section"), body, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, section)
}

func (h *ContentHandler) Schemas(c echo.Context) error {
	return c.JSON(http.StatusOK, h.contentService.Schemas())
}
