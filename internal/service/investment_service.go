package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/repository"
)

type InvestInput struct {
	ProjectID   uint64
	ProjectName string
	AmountCents int64
	Currency    string
}

type InvestmentService interface {
	Invest(ctx context.Context, userUID string, in InvestInput) (*model.Investment, error)
	ListByUser(ctx context.Context, userUID string) ([]model.Investment, error)
}

type investmentService struct {
	repo     repository.InvestmentRepository
	notifier NotificationService
}

func NewInvestmentService(repo repository.InvestmentRepository, notifier NotificationService) InvestmentService {
	return &investmentService{repo: repo, notifier: notifier}
}

// Invest records the investment. The confirmation notification is best
// effort and never fails the investment.
func (s *investmentService) Invest(ctx context.Context, userUID string, in InvestInput) (*model.Investment, error) {
	if userUID == "" {
		return nil, fmt.Errorf("%w: investor is required", ErrInvalidInput)
	}
	if in.ProjectID == 0 || in.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: project and positive amount are required", ErrInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}
	inv := &model.Investment{
		UserUID:     userUID,
		ProjectID:   in.ProjectID,
		ProjectName: in.ProjectName,
		AmountCents: in.AmountCents,
		Currency:    currency,
		Status:      model.InvestmentStatusConfirmed,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	related := strconv.FormatUint(inv.ID, 10)
	msg := fmt.Sprintf("Your investment of %s in %s has been confirmed.", formatAmount(inv.AmountCents, inv.Currency), projectLabel(inv.ProjectName, inv.ProjectID))
	if _, err := s.notifier.Notify(ctx, userUID, model.TypeInvestment, "Investment Confirmed", msg, &related); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Uint64("investment_id", inv.ID).Msg("investment: notification failed")
	}
	return inv, nil
}

func (s *investmentService) ListByUser(ctx context.Context, userUID string) ([]model.Investment, error) {
	if userUID == "" {
		return nil, nil
	}
	return s.repo.ListByUser(ctx, userUID)
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}

func projectLabel(name string, id uint64) string {
	if name != "" {
		return name
	}
	return "project #" + strconv.FormatUint(id, 10)
}
