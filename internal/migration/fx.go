package migration

import (
	auditdomain "github.com/operisapp/billing/internal/audit/domain"
	catalogdomain "github.com/operisapp/billing/internal/catalog/domain"
	"github.com/operisapp/billing/internal/config"
	installmentdomain "github.com/operisapp/billing/internal/installment/domain"
	notifierdomain "github.com/operisapp/billing/internal/notifier/domain"
	plandomain "github.com/operisapp/billing/internal/plan/domain"
	projectdomain "github.com/operisapp/billing/internal/project/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations on postgres; other dialects (local sqlite,
		// mysql) fall back to the model-derived schema.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&plandomain.PaymentPlan{},
				&catalogdomain.BillingService{},
				&catalogdomain.ProjectService{},
				&projectdomain.Project{},
				&projectdomain.ProjectPlanHistory{},
				&installmentdomain.Installment{},
				&installmentdomain.Payment{},
				&notifierdomain.NotificationLog{},
				&auditdomain.AuditLog{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
