package notifier

import (
	"github.com/operisapp/billing/internal/config"
	notifierdomain "github.com/operisapp/billing/internal/notifier/domain"
	"github.com/operisapp/billing/internal/notifier/repository"
	"github.com/operisapp/billing/internal/notifier/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notifier",
	fx.Provide(repository.Provide),
	fx.Provide(NewFromConfig),
)

// NewFromConfig picks the delivery transport: SMTP when a host is configured,
// otherwise structured log lines.
func NewFromConfig(cfg config.Config, log *zap.Logger) (notifierdomain.Notifier, error) {
	if cfg.SMTPHost == "" {
		return service.NewLogNotifier(service.NotifierParam{Log: log}), nil
	}
	return service.NewEmailNotifier(service.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}
