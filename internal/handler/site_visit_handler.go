package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/service"
)

type SiteVisitHandler struct {
	svc service.BookingService
}

func NewSiteVisitHandler(svc service.BookingService) *SiteVisitHandler {
	return &SiteVisitHandler{svc: svc}
}

type createSiteVisitRequest struct {
	ProjectID   uint64    `json:"projectId" validate:"required"`
	ProjectName string    `json:"projectName" validate:"max=255"`
	VisitDate   time.Time `json:"visitDate" validate:"required"`
}

type SiteVisitResponse struct {
	ID          uint64  `json:"id"`
	ProjectID   uint64  `json:"projectId"`
	ProjectName string  `json:"projectName"`
	VisitDate   string  `json:"visitDate"`
	Status      string  `json:"status"`
	ConfirmedAt *string `json:"confirmedAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

func toSiteVisitResponse(v model.SiteVisit) SiteVisitResponse {
	resp := SiteVisitResponse{
		ID:          v.ID,
		ProjectID:   v.ProjectID,
		ProjectName: v.ProjectName,
		VisitDate:   v.VisitDate.Format(time.RFC3339),
		Status:      string(v.Status),
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
	if v.ConfirmedAt != nil {
		s := v.ConfirmedAt.Format(time.RFC3339)
		resp.ConfirmedAt = &s
	}
	return resp
}

func (h *SiteVisitHandler) Create(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	var body createSiteVisitRequest
	if errResp := decodeBody(c, &body); errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	v, err := h.svc.Book(c.Request().Context(), uid, service.BookInput{
		ProjectID:   body.ProjectID,
		ProjectName: body.ProjectName,
		VisitDate:   body.VisitDate,
	})
	if err != nil {
		return writeServiceError(c, err, "failed to book site visit")
	}
	return c.JSON(http.StatusCreated, toSiteVisitResponse(*v))
}

func (h *SiteVisitHandler) ListMine(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.svc.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err, "failed to fetch site visits")
	}
	resp := make([]SiteVisitResponse, 0, len(list))
	for _, v := range list {
		resp = append(resp, toSiteVisitResponse(v))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"siteVisits": resp})
}

func (h *SiteVisitHandler) Cancel(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid site visit id"))
	}
	v, err := h.svc.Cancel(c.Request().Context(), uid, id)
	if err != nil {
		return writeServiceError(c, err, "failed to cancel site visit")
	}
	return c.JSON(http.StatusOK, toSiteVisitResponse(*v))
}

// Confirm is admin only; the route group enforces that.
func (h *SiteVisitHandler) Confirm(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, "invalid site visit id"))
	}
	v, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err, "failed to confirm site visit")
	}
	return c.JSON(http.StatusOK, toSiteVisitResponse(*v))
}
