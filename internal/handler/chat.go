package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"circular-storefront/internal/dto"
	"circular-storefront/internal/middleware"
	"circular-storefront/internal/model"
	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

type ChatHandler struct {
	chatService service.ChatService
	log         *zap.Logger
}

func NewChatHandler(chatService service.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log,
	}
}

func (h *ChatHandler) Messages(c echo.Context) error {
	ctx := c.Request().Context()

	messages, err := h.chatService.History(ctx, middleware.UserID(c), c.QueryParam("with"))
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []*model.AdminMessage{}
	}

	return c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) Send(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.chatService.Send(ctx, middleware.UserID(c), req.RecipientID, req.Content)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, msg)
}

// Stream pushes one conversation, history first, as server-sent events.
func (h *ChatHandler) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	viewer := middleware.UserID(c)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	messages := make(chan *model.AdminMessage)
	done := make(chan error, 1)
	go func() {
		done <- h.chatService.Watch(ctx, viewer, c.QueryParam("with"), func(msg *model.AdminMessage) error {
			select {
			case messages <- msg:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			if err != nil {
				h.log.Warn("chat stream ended", zap.String("user_id", viewer), zap.Error(err))
			}
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case msg := <-messages:
			payload, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: message\ndata: %s\n\n", msg.ID, payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
