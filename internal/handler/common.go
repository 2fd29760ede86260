package handler

import (
	"errors"
	"net/http"
	"strconv"

	"circular-storefront/internal/dto"
	"circular-storefront/internal/repository"
	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	return page, size
}

func newPage[T any](items []T, total int64, page, size int) dto.Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := repository.TotalPages(total, size)
	if size < 1 || size > 100 {
		size = 20
	}
	return dto.Page[T]{Items: items, Total: total, Page: page, PageSize: size, TotalPages: pages}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidContent),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateRole),
		errors.Is(err, service.ErrDefaultPaymentConfig),
		errors.Is(err, service.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrTransitionNotAllowed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorHandler turns every error returned by a handler into a short JSON
// message. Internal errors are logged and replaced with a generic text.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			code = statusFor(err)
			if code != http.StatusInternalServerError {
				msg = err.Error()
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", code),
				zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, dto.ErrorResponse{Error: msg})
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}
