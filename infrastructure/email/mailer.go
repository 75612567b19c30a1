package email

import (
	"context"
	"fmt"

	"hirenest/application/ports"
	"hirenest/domain/core/valueobjects"
	pkgerrors "hirenest/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// SESAPI is the subset of the SES v2 client used for sending
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer delivers email through Amazon SES v2
type SESMailer struct {
	client     SESAPI
	senderMail string
	senderName string
}

// NewSESMailer creates a mailer sending as "senderName <senderMail>"
func NewSESMailer(client SESAPI, senderMail, senderName string) *SESMailer {
	return &SESMailer{client: client, senderMail: senderMail, senderName: senderName}
}

var _ ports.Mailer = (*SESMailer)(nil)

// Send delivers one email
func (m *SESMailer) Send(ctx context.Context, email ports.Email) error {
	if err := validate(m.senderMail, email); err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(formatAddress(m.senderName, m.senderMail)),
		Destination: &types.Destination{
			ToAddresses: []string{formatAddress(email.ToName, email.To)},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(email.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if email.Category != "" {
		input.EmailTags = []types.MessageTag{
			{Name: aws.String("category"), Value: aws.String(email.Category)},
		}
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return pkgerrors.NewExternalError("email", err)
	}
	return nil
}

func validate(sender string, email ports.Email) error {
	if sender == "" {
		return pkgerrors.NewValidationError("email sender is not configured")
	}
	if !valueobjects.IsValidEmail(email.To) {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid recipient address %q", email.To))
	}
	if email.Subject == "" {
		return pkgerrors.NewValidationError("email subject is required")
	}
	return nil
}

func formatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%q <%s>", name, address)
}

// LogMailer writes emails to the log instead of sending them. It is used
// when no sender is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

var _ ports.Mailer = (*LogMailer)(nil)

// Send logs the email envelope
func (m *LogMailer) Send(ctx context.Context, email ports.Email) error {
	if !valueobjects.IsValidEmail(email.To) {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid recipient address %q", email.To))
	}
	m.logger.Info("Email (not sent, no sender configured)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("category", email.Category),
	)
	return nil
}
