package service

import (
	"context"

	notifierdomain "github.com/operisapp/billing/internal/notifier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LogNotifier is the default sender: it writes structured log lines instead
// of emails. Deployments swap in a real transport by providing their own
// notifierdomain.Notifier binding.
type LogNotifier struct {
	log *zap.Logger
}

type NotifierParam struct {
	fx.In

	Log *zap.Logger
}

func NewLogNotifier(p NotifierParam) notifierdomain.Notifier {
	return &LogNotifier{log: p.Log.Named("notifier")}
}

func (n *LogNotifier) SendReminder(ctx context.Context, notice notifierdomain.Notice) error {
	_ = ctx
	n.log.Info("payment reminder",
		zap.String("project_id", notice.ProjectID.String()),
		zap.String("installment_id", notice.InstallmentID.String()),
		zap.String("recipient", notice.Recipient),
		zap.Time("due_date", notice.DueDate),
		zap.Int64("amount", notice.Amount),
	)
	return nil
}

func (n *LogNotifier) SendOverdueNotification(ctx context.Context, notice notifierdomain.Notice) error {
	_ = ctx
	n.log.Warn("installment overdue",
		zap.String("project_id", notice.ProjectID.String()),
		zap.String("installment_id", notice.InstallmentID.String()),
		zap.String("recipient", notice.Recipient),
		zap.Time("due_date", notice.DueDate),
		zap.Int64("amount", notice.Amount),
	)
	return nil
}
