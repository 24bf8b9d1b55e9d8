// Package notify delivers best-effort status notices to applicants over
// SES email and SNS SMS. Lifecycle operations never fail on delivery
// errors.
package notify

import (
	"context"
	"fmt"

	awsclients "qarzapp/internal/common/aws"
	"qarzapp/internal/common/config"
	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/common/logger"
	"qarzapp/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	cfg       config.NotificationConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

// New builds a Notifier from config. AWS clients are only created for
// enabled channels; with both channels disabled every delivery is a no-op.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	n := &Notifier{
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}

	if !cfg.Email.Enabled && !cfg.SMS.Enabled {
		return n, nil
	}

	if cfg.Email.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("init SES client: %w", err)
		}
		n.sesClient = sesClient
	}
	if cfg.SMS.Enabled {
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("init SNS client: %w", err)
		}
		n.snsClient = snsClient
	}
	return n, nil
}

// NewWithClients wires explicit clients, used by tests.
func NewWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:       cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

// ApplicationDecision notifies the applicant of the submission outcome.
func (n *Notifier) ApplicationDecision(ctx context.Context, user *models.AuthenticatedUser, app *models.LoanApplication) {
	var subject, body string
	switch app.Status {
	case models.StatusApproved:
		subject = "Loan application approved"
		body = fmt.Sprintf("Congratulations %s, your loan application has been approved for up to %.0f at %.1f%% annual interest.",
			app.FullName, app.Offer.LoanAmount, app.Offer.InterestRate)
	case models.StatusRejected:
		subject = "Loan application update"
		body = fmt.Sprintf("Dear %s, unfortunately your loan application was not approved.", app.FullName)
	default:
		subject = "Loan application received"
		body = fmt.Sprintf("Dear %s, your loan application has been received and is under review.", app.FullName)
	}
	n.deliver(ctx, user, subject, body)
}

// LoanDisbursed notifies the applicant that the loan has been paid out.
func (n *Notifier) LoanDisbursed(ctx context.Context, user *models.AuthenticatedUser, app *models.LoanApplication) {
	subject := "Loan disbursed"
	body := fmt.Sprintf("Dear %s, your loan of %.0f has been disbursed. Your monthly payment is %d.",
		app.FullName, app.Offer.LoanAmount, app.Disbursement.MonthlyPayment)
	n.deliver(ctx, user, subject, body)
}

// SendOTP delivers the sign-in code over SMS. Implements auth.SMSSender.
func (n *Notifier) SendOTP(ctx context.Context, phone, code string) error {
	if !n.cfg.SMS.Enabled || n.snsClient == nil {
		return nil
	}
	message := fmt.Sprintf("Your %s verification code is %s", n.cfg.SMS.SenderID, code)
	if err := n.sendSMS(ctx, phone, message); err != nil {
		return apperrors.NewNotificationSendError("sms", err)
	}
	return nil
}

func (n *Notifier) deliver(ctx context.Context, user *models.AuthenticatedUser, subject, body string) {
	if n.cfg.Email.Enabled && n.sesClient != nil && user.Email != "" {
		if err := n.sendEmail(ctx, user.Email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error": err.Error(),
				"uid":   user.UID,
			})
		}
	}

	if n.cfg.SMS.Enabled && n.snsClient != nil && user.PhoneNumber != "" {
		if err := n.sendSMS(ctx, user.PhoneNumber, body); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error": err.Error(),
				"uid":   user.UID,
			})
		}
	}
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
