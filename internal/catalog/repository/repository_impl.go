package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/operisapp/billing/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) InsertService(ctx context.Context, db *gorm.DB, svc *catalogdomain.BillingService) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO billing_services (
			id, name, description, price_monthly, price_yearly, price_one_time, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		svc.ID,
		svc.Name,
		svc.Description,
		svc.PriceMonthly,
		svc.PriceYearly,
		svc.PriceOneTime,
		svc.Status,
		svc.CreatedAt,
		svc.UpdatedAt,
	).Error
}

func (r *repo) UpdateService(ctx context.Context, db *gorm.DB, svc *catalogdomain.BillingService) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_services
		 SET name = ?, description = ?, price_monthly = ?, price_yearly = ?, price_one_time = ?, updated_at = ?
		 WHERE id = ?`,
		svc.Name,
		svc.Description,
		svc.PriceMonthly,
		svc.PriceYearly,
		svc.PriceOneTime,
		svc.UpdatedAt,
		svc.ID,
	).Error
}

func (r *repo) FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.BillingService, error) {
	var svc catalogdomain.BillingService
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM billing_services WHERE id = ? LIMIT 1`, id).
		First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repo) ListServices(ctx context.Context, db *gorm.DB, status catalogdomain.ServiceStatus) ([]catalogdomain.BillingService, error) {
	var services []catalogdomain.BillingService
	query := `SELECT * FROM billing_services`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY name ASC`
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repo) UpdateServiceStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status catalogdomain.ServiceStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_services SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status,
		id,
	).Error
}

func (r *repo) CountAttachments(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM project_services WHERE service_id = ?`,
		serviceID,
	).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) InsertAttachment(ctx context.Context, db *gorm.DB, ps *catalogdomain.ProjectService) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO project_services (
			id, project_id, service_id, custom_price, quantity, billing_period, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ps.ID,
		ps.ProjectID,
		ps.ServiceID,
		ps.CustomPrice,
		ps.Quantity,
		ps.BillingPeriod,
		ps.CreatedAt,
		ps.UpdatedAt,
	).Error
}

func (r *repo) DeleteAttachment(ctx context.Context, db *gorm.DB, projectID, serviceID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM project_services WHERE project_id = ? AND service_id = ?`,
		projectID,
		serviceID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) FindAttachment(ctx context.Context, db *gorm.DB, projectID, serviceID snowflake.ID) (*catalogdomain.ProjectService, error) {
	var ps catalogdomain.ProjectService
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM project_services WHERE project_id = ? AND service_id = ? LIMIT 1`, projectID, serviceID).
		First(&ps).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

func (r *repo) ListAttachedByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]catalogdomain.AttachedService, error) {
	var attached []catalogdomain.AttachedService
	if err := db.WithContext(ctx).Raw(
		`SELECT ps.*, s.name AS service_name, s.price_monthly, s.price_yearly, s.price_one_time
		 FROM project_services ps
		 JOIN billing_services s ON s.id = ps.service_id
		 WHERE ps.project_id = ?
		 ORDER BY ps.created_at ASC`,
		projectID,
	).Scan(&attached).Error; err != nil {
		return nil, err
	}
	return attached, nil
}
