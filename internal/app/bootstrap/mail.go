package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "consult-scheduler/internal/config"
	"consult-scheduler/internal/mail"
	"consult-scheduler/pkg/logging"
)

// BuildMailer picks the delivery provider from MAIL_PROVIDER. A provider
// that is selected but not configured falls back to the logging stub.
func BuildMailer(ctx context.Context, cfg *appconfig.Config, loc *time.Location, logger *logging.Logger) (*mail.TemplateMailer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	sender, err := buildSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		logger.Warn("email provider not configured; emails will only be logged", "provider", cfg.MailProvider)
		sender = mail.NewStubSender(logger)
	}
	return mail.NewTemplateMailer(sender, logger).WithLocation(loc), nil
}

// buildSender returns a nil interface, never a typed nil, when the
// provider lacks settings.
func buildSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (mail.Sender, error) {
	switch cfg.MailProvider {
	case "sendgrid":
		s := mail.NewSendGridSender(mail.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.MailFrom,
			FromName:  cfg.MailFromName,
		}, logger)
		if s == nil {
			return nil, nil
		}
		logger.Info("email provider configured", "provider", "sendgrid")
		return s, nil

	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
			if ep := strings.TrimSpace(cfg.AWSEndpoint); ep != "" {
				o.BaseEndpoint = aws.String(ep)
			}
		})
		logger.Info("email provider configured", "provider", "ses", "region", cfg.AWSRegion)
		return mail.NewSESSender(client, mail.SESConfig{FromEmail: cfg.MailFrom, FromName: cfg.MailFromName}, logger), nil

	case "smtp":
		s := mail.NewSMTPSender(mail.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			User:      cfg.SMTPUser,
			Pass:      cfg.SMTPPass,
			FromEmail: cfg.MailFrom,
			FromName:  cfg.MailFromName,
		}, logger)
		if s == nil {
			return nil, nil
		}
		logger.Info("email provider configured", "provider", "smtp", "host", cfg.SMTPHost)
		return s, nil
	}
	return nil, nil
}
