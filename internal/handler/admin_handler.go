package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/service"
)

type AdminHandler struct {
	announcements service.AnnouncementService
	notifications service.NotificationService
}

func NewAdminHandler(announcements service.AnnouncementService, notifications service.NotificationService) *AdminHandler {
	return &AdminHandler{announcements: announcements, notifications: notifications}
}

type announceRequest struct {
	Type      string  `json:"type" validate:"required,oneof=new update"`
	Title     string  `json:"title" validate:"required,max=255"`
	Message   string  `json:"message"`
	RelatedID *string `json:"relatedId" validate:"omitempty,max=128"`
}

type createNotificationRequest struct {
	UserUID   string  `json:"userId" validate:"required,max=128"`
	Type      string  `json:"type" validate:"required"`
	Title     string  `json:"title" validate:"required,max=255"`
	Message   string  `json:"message"`
	RelatedID *string `json:"relatedId" validate:"omitempty,max=128"`
}

func (h *AdminHandler) Announce(c echo.Context) error {
	var body announceRequest
	if errResp := decodeBody(c, &body); errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	res, err := h.announcements.Announce(c.Request().Context(), service.AnnounceInput{
		Type:      model.NotificationType(body.Type),
		Title:     body.Title,
		Message:   body.Message,
		RelatedID: body.RelatedID,
	})
	if err != nil {
		return writeServiceError(c, err, "failed to send announcement")
	}
	return c.JSON(http.StatusAccepted, res)
}

func (h *AdminHandler) CreateNotification(c echo.Context) error {
	var body createNotificationRequest
	if errResp := decodeBody(c, &body); errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	t, ok := model.ParseNotificationType(body.Type)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeInvalidType, "unknown notification type"))
	}
	n, err := h.notifications.Notify(c.Request().Context(), body.UserUID, t, body.Title, body.Message, body.RelatedID)
	if err != nil {
		return writeServiceError(c, err, "failed to create notification")
	}
	return c.JSON(http.StatusCreated, toNotificationResponse(*n))
}
