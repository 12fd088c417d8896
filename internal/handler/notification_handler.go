package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/service"
	ws "github.com/shinyyama/centace-backend/internal/websocket"
)

type NotificationHandler struct {
	svc      service.NotificationService
	upgrader websocket.Upgrader
}

func NewNotificationHandler(svc service.NotificationService, allowOrigin func(string) bool) *NotificationHandler {
	return &NotificationHandler{svc: svc, upgrader: ws.NewUpgrader(allowOrigin)}
}

type NotificationResponse struct {
	ID        uint64  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	IsRead    bool    `json:"isRead"`
	RelatedID *string `json:"relatedId,omitempty"`
	Color     string  `json:"color"`
	Icon      string  `json:"icon"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	info := n.Type.Info()
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		RelatedID: n.RelatedID,
		Color:     info.Color,
		Icon:      info.Icon,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	unreadOnly := c.QueryParam("unread_only") == "true"
	limit := 50
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			limit = lParsed
		}
	}
	ctx := c.Request().Context()
	list, err := h.svc.List(ctx, uid, unreadOnly, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(codeInternal, "failed to fetch notifications"))
	}
	unreadCount, err := h.svc.UnreadCount(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(codeInternal, "failed to count notifications"))
	}
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": resp,
		"unreadCount":   unreadCount,
	})
}

// MarkRead answers 200 with updated=false when the id is unknown or owned
// by someone else.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid notification id"))
	}
	n, err := h.svc.MarkRead(c.Request().Context(), uid, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(codeInternal, "failed to mark read"))
	}
	if n == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"updated": false})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"updated":      true,
		"notification": toNotificationResponse(*n),
	})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	changed, err := h.svc.MarkAllRead(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(codeInternal, "failed to mark read"))
	}
	ids := make([]uint64, 0, len(changed))
	for _, n := range changed {
		ids = append(ids, n.ID)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "ids": ids})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid notification id"))
	}
	deleted, err := h.svc.Delete(c.Request().Context(), uid, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(codeInternal, "failed to delete notification"))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": deleted})
}

// Live upgrades to a websocket and serves the caller's live session until
// the socket closes.
func (h *NotificationHandler) Live(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logging.Ctx(c.Request().Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	ctx := context.WithoutCancel(c.Request().Context())
	session, err := h.svc.OpenSession(ctx, uid)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("open live session failed")
		_ = conn.WriteJSON(ws.Message{Type: ws.MessageTypeError, Data: ws.ErrorData{Action: "connect", Message: "live channel unavailable"}})
		_ = conn.Close()
		return nil
	}
	ws.NewClient(conn, session).Run(ctx)
	return nil
}
