package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/service"
)

type PreferenceHandler struct {
	svc service.PreferenceService
}

func NewPreferenceHandler(svc service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

func (h *PreferenceHandler) Get(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	prefs, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err, "failed to load preferences")
	}
	return c.JSON(http.StatusOK, prefs)
}

func (h *PreferenceHandler) Update(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	var body model.EmailPreferencePatch
	if errResp := decodeBody(c, &body); errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	prefs, err := h.svc.Update(c.Request().Context(), uid, body)
	if err != nil {
		return writeServiceError(c, err, "failed to save preferences")
	}
	return c.JSON(http.StatusOK, prefs)
}
