package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/service"
)

type ProfileHandler struct {
	svc service.ProfileService
}

func NewProfileHandler(svc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

type ProfileResponse struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func toProfileResponse(p *model.Profile) ProfileResponse {
	return ProfileResponse{
		UID:       p.UserUID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

type updateProfileRequest struct {
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	FullName string `json:"fullName" validate:"max=255"`
}

func (h *ProfileHandler) Get(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	p, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err, "failed to load profile")
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// Update creates the profile on first call. When the body has no email the
// one from the verified token is used.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	var body updateProfileRequest
	if errResp := decodeBody(c, &body); errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	email := body.Email
	if email == "" {
		email, _ = c.Get("email").(string)
	}
	p, created, err := h.svc.Upsert(c.Request().Context(), uid, email, body.FullName)
	if err != nil {
		return writeServiceError(c, err, "failed to save profile")
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toProfileResponse(p))
}
