package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/service"
)

type InvestmentHandler struct {
	svc service.InvestmentService
}

func NewInvestmentHandler(svc service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{svc: svc}
}

type createInvestmentRequest struct {
	ProjectID   uint64 `json:"projectId" validate:"required"`
	ProjectName string `json:"projectName" validate:"max=255"`
	AmountCents int64  `json:"amountCents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
}

type InvestmentResponse struct {
	ID          uint64 `json:"id"`
	ProjectID   uint64 `json:"projectId"`
	ProjectName string `json:"projectName"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

func toInvestmentResponse(inv model.Investment) InvestmentResponse {
	return InvestmentResponse{
		ID:          inv.ID,
		ProjectID:   inv.ProjectID,
		ProjectName: inv.ProjectName,
		AmountCents: inv.AmountCents,
		Currency:    inv.Currency,
		Status:      string(inv.Status),
		CreatedAt:   inv.CreatedAt.Format(time.RFC3339),
	}
}

func (h *InvestmentHandler) Create(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	var body createInvestmentRequest
	if errResp := decodeBody(c, &body); errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	inv, err := h.svc.Invest(c.Request().Context(), uid, service.InvestInput{
		ProjectID:   body.ProjectID,
		ProjectName: body.ProjectName,
		AmountCents: body.AmountCents,
		Currency:    body.Currency,
	})
	if err != nil {
		return writeServiceError(c, err, "failed to record investment")
	}
	return c.JSON(http.StatusCreated, toInvestmentResponse(*inv))
}

func (h *InvestmentHandler) ListMine(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.svc.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err, "failed to fetch investments")
	}
	resp := make([]InvestmentResponse, 0, len(list))
	for _, inv := range list {
		resp = append(resp, toInvestmentResponse(inv))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"investments": resp})
}
