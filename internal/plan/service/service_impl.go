package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/operisapp/billing/internal/clock"
	plandomain "github.com/operisapp/billing/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  plandomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  plandomain.Repository
}

func NewService(p ServiceParam) plandomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req plandomain.CreatePlanRequest) (plandomain.PaymentPlan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return plandomain.PaymentPlan{}, plandomain.ErrInvalidPlanName
	}
	if !req.Frequency.Valid() {
		return plandomain.PaymentPlan{}, plandomain.ErrInvalidFrequency
	}
	if req.InstallmentCount < 1 {
		return plandomain.PaymentPlan{}, plandomain.ErrInvalidInstallmentCount
	}
	if req.Frequency == plandomain.FrequencyOneTime && req.InstallmentCount != 1 {
		return plandomain.PaymentPlan{}, plandomain.ErrInvalidInstallmentCount
	}
	if req.ContractDurationMonths < 0 {
		return plandomain.PaymentPlan{}, plandomain.ErrInvalidInstallmentCount
	}

	now := s.clock.Now()
	plan := plandomain.PaymentPlan{
		ID:                     s.genID.Generate(),
		Name:                   name,
		Frequency:              req.Frequency,
		InstallmentCount:       req.InstallmentCount,
		ContractDurationMonths: req.ContractDurationMonths,
		Status:                 plandomain.PlanStatusActive,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.repo.Insert(ctx, s.db, &plan); err != nil {
		return plandomain.PaymentPlan{}, err
	}

	return plan, nil
}

func (s *Service) Get(ctx context.Context, id string) (plandomain.PaymentPlan, error) {
	planID, err := s.parseID(id)
	if err != nil {
		return plandomain.PaymentPlan{}, err
	}

	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return plandomain.PaymentPlan{}, err
	}
	if plan == nil {
		return plandomain.PaymentPlan{}, plandomain.ErrPlanNotFound
	}

	return *plan, nil
}

func (s *Service) List(ctx context.Context, req plandomain.ListPlanRequest) ([]plandomain.PaymentPlan, error) {
	status := plandomain.PlanStatus(strings.TrimSpace(req.Status))
	switch status {
	case "", plandomain.PlanStatusActive, plandomain.PlanStatusArchived:
	default:
		return nil, plandomain.ErrInvalidPlanStatus
	}
	return s.repo.List(ctx, s.db, status)
}

func (s *Service) Archive(ctx context.Context, id string) error {
	planID, err := s.parseID(id)
	if err != nil {
		return err
	}

	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return plandomain.ErrPlanNotFound
	}
	if plan.Status == plandomain.PlanStatusArchived {
		return plandomain.ErrPlanArchived
	}

	return s.repo.UpdateStatus(ctx, s.db, planID, plandomain.PlanStatusArchived)
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, plandomain.ErrInvalidPlanID
	}
	return id, nil
}
