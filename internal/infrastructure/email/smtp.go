package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"warden/internal/domain/modmail"
	sharedConfig "warden/internal/shared/config"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

// SMTPTranscriptMailer delivers closed-ticket transcripts to the archive
// mailbox over SMTP.
type SMTPTranscriptMailer struct {
	config sharedConfig.EmailConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

func NewSMTPTranscriptMailer(cfg sharedConfig.EmailConfig, log logger.Interface) *SMTPTranscriptMailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	return &SMTPTranscriptMailer{
		config: cfg,
		dialer: dialer,
		logger: log.Named("transcript-mailer"),
	}
}

func (s *SMTPTranscriptMailer) SendTranscript(ctx context.Context, ticket *modmail.Ticket, contentHTML string) error {
	if s.config.TranscriptRecipient == "" {
		return fmt.Errorf("no transcript recipient configured")
	}

	subject := fmt.Sprintf("Modmail transcript: ticket %d (user %s)", ticket.ID(), ticket.UserID())

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.config.FromAddress, s.config.FromName))
	m.SetHeader("To", s.config.TranscriptRecipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", contentHTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send transcript email: %w", err)
	}

	s.logger.Infow("transcript emailed",
		"ticket_id", ticket.ID(),
		"recipient", utils.MaskEmail(s.config.TranscriptRecipient),
	)

	return nil
}
