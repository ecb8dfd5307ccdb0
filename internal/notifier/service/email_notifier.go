package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	notifierdomain "github.com/operisapp/billing/internal/notifier/domain"
)

//go:embed templates/*.html
var emailTemplates embed.FS

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier delivers reminder and overdue emails over plain SMTP.
type EmailNotifier struct {
	cfg  SMTPConfig
	tmpl *template.Template
}

func NewEmailNotifier(cfg SMTPConfig) (*EmailNotifier, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &EmailNotifier{cfg: cfg, tmpl: tmpl}, nil
}

func (n *EmailNotifier) SendReminder(ctx context.Context, notice notifierdomain.Notice) error {
	subject := fmt.Sprintf("Payment reminder: installment #%d for %s", notice.InstallmentNumber, notice.ProjectName)
	return n.send(ctx, notice, "reminder.html", subject)
}

func (n *EmailNotifier) SendOverdueNotification(ctx context.Context, notice notifierdomain.Notice) error {
	subject := fmt.Sprintf("Overdue payment: installment #%d for %s", notice.InstallmentNumber, notice.ProjectName)
	return n.send(ctx, notice, "overdue.html", subject)
}

func (n *EmailNotifier) send(_ context.Context, notice notifierdomain.Notice, templateName, subject string) error {
	if notice.Recipient == "" {
		return fmt.Errorf("notice for project %s has no recipient", notice.ProjectID)
	}

	var body bytes.Buffer
	if err := n.tmpl.ExecuteTemplate(&body, templateName, map[string]any{
		"ProjectName":       notice.ProjectName,
		"InstallmentNumber": notice.InstallmentNumber,
		"DueDate":           notice.DueDate.Format("2006-01-02"),
		"Amount":            notice.Amount,
	}); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", notice.Recipient, subject, mime, body.String()))

	return smtp.SendMail(addr, auth, n.cfg.From, []string{notice.Recipient}, msg)
}
