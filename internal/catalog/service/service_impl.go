package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/operisapp/billing/internal/catalog/domain"
	"github.com/operisapp/billing/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  catalogdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  catalogdomain.Repository
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateService(ctx context.Context, req catalogdomain.CreateServiceRequest) (catalogdomain.BillingService, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return catalogdomain.BillingService{}, catalogdomain.ErrInvalidServiceName
	}
	if req.PriceMonthly < 0 || req.PriceYearly < 0 || req.PriceOneTime < 0 {
		return catalogdomain.BillingService{}, catalogdomain.ErrInvalidServicePrice
	}

	now := s.clock.Now()
	svc := catalogdomain.BillingService{
		ID:           s.genID.Generate(),
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		PriceMonthly: req.PriceMonthly,
		PriceYearly:  req.PriceYearly,
		PriceOneTime: req.PriceOneTime,
		Status:       catalogdomain.ServiceStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.InsertService(ctx, s.db, &svc); err != nil {
		return catalogdomain.BillingService{}, err
	}

	return svc, nil
}

func (s *Service) UpdateService(ctx context.Context, req catalogdomain.UpdateServiceRequest) (catalogdomain.BillingService, error) {
	serviceID, err := s.parseID(req.ID, catalogdomain.ErrInvalidServiceID)
	if err != nil {
		return catalogdomain.BillingService{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return catalogdomain.BillingService{}, catalogdomain.ErrInvalidServiceName
	}
	if req.PriceMonthly < 0 || req.PriceYearly < 0 || req.PriceOneTime < 0 {
		return catalogdomain.BillingService{}, catalogdomain.ErrInvalidServicePrice
	}

	svc, err := s.repo.FindServiceByID(ctx, s.db, serviceID)
	if err != nil {
		return catalogdomain.BillingService{}, err
	}
	if svc == nil {
		return catalogdomain.BillingService{}, catalogdomain.ErrServiceNotFound
	}

	svc.Name = name
	svc.Description = strings.TrimSpace(req.Description)
	svc.PriceMonthly = req.PriceMonthly
	svc.PriceYearly = req.PriceYearly
	svc.PriceOneTime = req.PriceOneTime
	svc.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateService(ctx, s.db, svc); err != nil {
		return catalogdomain.BillingService{}, err
	}

	return *svc, nil
}

// ArchiveService soft-deletes: referenced services stay resolvable so past
// installments keep their pricing provenance.
func (s *Service) ArchiveService(ctx context.Context, id string) error {
	serviceID, err := s.parseID(id, catalogdomain.ErrInvalidServiceID)
	if err != nil {
		return err
	}

	svc, err := s.repo.FindServiceByID(ctx, s.db, serviceID)
	if err != nil {
		return err
	}
	if svc == nil {
		return catalogdomain.ErrServiceNotFound
	}
	if svc.Status == catalogdomain.ServiceStatusArchived {
		return catalogdomain.ErrServiceArchived
	}

	return s.repo.UpdateServiceStatus(ctx, s.db, serviceID, catalogdomain.ServiceStatusArchived)
}

func (s *Service) GetService(ctx context.Context, id string) (catalogdomain.BillingService, error) {
	serviceID, err := s.parseID(id, catalogdomain.ErrInvalidServiceID)
	if err != nil {
		return catalogdomain.BillingService{}, err
	}

	svc, err := s.repo.FindServiceByID(ctx, s.db, serviceID)
	if err != nil {
		return catalogdomain.BillingService{}, err
	}
	if svc == nil {
		return catalogdomain.BillingService{}, catalogdomain.ErrServiceNotFound
	}

	return *svc, nil
}

func (s *Service) ListServices(ctx context.Context, status string) ([]catalogdomain.BillingService, error) {
	parsed := catalogdomain.ServiceStatus(strings.TrimSpace(status))
	switch parsed {
	case "", catalogdomain.ServiceStatusActive, catalogdomain.ServiceStatusArchived:
	default:
		return nil, catalogdomain.ErrInvalidServiceStatus
	}
	return s.repo.ListServices(ctx, s.db, parsed)
}

func (s *Service) AttachService(ctx context.Context, req catalogdomain.AttachServiceRequest) (catalogdomain.ProjectService, error) {
	projectID, err := s.parseID(req.ProjectID, catalogdomain.ErrInvalidProjectID)
	if err != nil {
		return catalogdomain.ProjectService{}, err
	}
	serviceID, err := s.parseID(req.ServiceID, catalogdomain.ErrInvalidServiceID)
	if err != nil {
		return catalogdomain.ProjectService{}, err
	}
	if !req.BillingPeriod.Valid() {
		return catalogdomain.ProjectService{}, catalogdomain.ErrInvalidBillingPeriod
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return catalogdomain.ProjectService{}, catalogdomain.ErrInvalidQuantity
	}
	if req.CustomPrice != nil && *req.CustomPrice < 0 {
		return catalogdomain.ProjectService{}, catalogdomain.ErrInvalidServicePrice
	}

	svc, err := s.repo.FindServiceByID(ctx, s.db, serviceID)
	if err != nil {
		return catalogdomain.ProjectService{}, err
	}
	if svc == nil {
		return catalogdomain.ProjectService{}, catalogdomain.ErrServiceNotFound
	}
	if svc.Status != catalogdomain.ServiceStatusActive {
		return catalogdomain.ProjectService{}, catalogdomain.ErrServiceArchived
	}

	existing, err := s.repo.FindAttachment(ctx, s.db, projectID, serviceID)
	if err != nil {
		return catalogdomain.ProjectService{}, err
	}
	if existing != nil {
		return catalogdomain.ProjectService{}, catalogdomain.ErrServiceAlreadyAttached
	}

	now := s.clock.Now()
	ps := catalogdomain.ProjectService{
		ID:            s.genID.Generate(),
		ProjectID:     projectID,
		ServiceID:     serviceID,
		CustomPrice:   req.CustomPrice,
		Quantity:      quantity,
		BillingPeriod: req.BillingPeriod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.InsertAttachment(ctx, s.db, &ps); err != nil {
		return catalogdomain.ProjectService{}, err
	}

	return ps, nil
}

// DetachService removes the attachment. Past installments are untouched;
// only the next regeneration sees the new service mix.
func (s *Service) DetachService(ctx context.Context, projectID, serviceID string) error {
	pid, err := s.parseID(projectID, catalogdomain.ErrInvalidProjectID)
	if err != nil {
		return err
	}
	sid, err := s.parseID(serviceID, catalogdomain.ErrInvalidServiceID)
	if err != nil {
		return err
	}

	affected, err := s.repo.DeleteAttachment(ctx, s.db, pid, sid)
	if err != nil {
		return err
	}
	if affected == 0 {
		return catalogdomain.ErrAttachmentNotFound
	}
	return nil
}

func (s *Service) ListByProject(ctx context.Context, projectID string) ([]catalogdomain.AttachedService, error) {
	pid, err := s.parseID(projectID, catalogdomain.ErrInvalidProjectID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAttachedByProject(ctx, s.db, pid)
}

func (s *Service) parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
