// Package email delivers customer-facing mail for the dispatch flow.
package email

import (
	"context"

	"dispatch_backend/platform/config"
)

// Sender delivers appointment mail. Implementations render the shared
// HTML templates and deliver through their own channel.
type Sender interface {
	// SendAppointmentReminder notifies a customer of an upcoming visit.
	SendAppointmentReminder(ctx context.Context, toEmail, teamName, jobTitle, appointmentTime, companyPhone string) error
	// SendAppointmentConfirmation notifies a customer that a visit was booked.
	SendAppointmentConfirmation(ctx context.Context, toEmail, teamName, jobTitle, appointmentTime, address string) error
}

// NoopSender satisfies Sender without delivering anything. Used when
// email is disabled in config and in tests.
type NoopSender struct{}

func (NoopSender) SendAppointmentReminder(ctx context.Context, toEmail, teamName, jobTitle, appointmentTime, companyPhone string) error {
	return nil
}

func (NoopSender) SendAppointmentConfirmation(ctx context.Context, toEmail, teamName, jobTitle, appointmentTime, address string) error {
	return nil
}

// NewSender returns the configured Sender implementation.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
