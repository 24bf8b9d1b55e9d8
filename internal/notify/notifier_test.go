package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"qarzapp/internal/common/config"
	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/common/logger"
	"qarzapp/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	mock.Mock
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*ses.SendEmailOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSNSService struct {
	mock.Mock
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func testNotifyConfig(email, sms bool) config.NotificationConfig {
	return config.NotificationConfig{
		Email: config.EmailConfig{
			Enabled:   email,
			FromEmail: "loans@qarzapp.example",
		},
		SMS: config.SMSConfig{
			Enabled:  sms,
			SenderID: "QarzApp",
		},
		AWS: config.AWSConfig{Region: "us-east-1"},
	}
}

func testNotifyUser() *models.AuthenticatedUser {
	return &models.AuthenticatedUser{
		UID:         "user_923001234567",
		PhoneNumber: "+923001234567",
		Email:       "ahmed@example.com",
	}
}

func approvedApplication() *models.LoanApplication {
	return &models.LoanApplication{
		ID:            "11111111-2222-3333-4444-555555555555",
		UserID:        "user_923001234567",
		FullName:      "Ahmed Khan",
		NationalID:    "35202-1234567-1",
		MonthlyIncome: 60000,
		Status:        models.StatusApproved,
		SubmittedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Offer: &models.LoanOffer{
			LoanAmount:    48000,
			InterestRate:  12.5,
			RepaymentDate: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestApplicationDecision_SendsEmailWhenEnabled(t *testing.T) {
	sesClient := new(MockSESService)
	sesClient.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return in.Destination != nil &&
			len(in.Destination.ToAddresses) == 1 &&
			in.Destination.ToAddresses[0] == "ahmed@example.com" &&
			*in.Source == "loans@qarzapp.example"
	})).Return(&ses.SendEmailOutput{}, nil)

	n := NewWithClients(testNotifyConfig(true, false), sesClient, nil, logger.NewTestLogger(t))
	n.ApplicationDecision(context.Background(), testNotifyUser(), approvedApplication())

	sesClient.AssertExpectations(t)
}

func TestApplicationDecision_SendsSMSWhenEnabled(t *testing.T) {
	snsClient := new(MockSNSService)
	snsClient.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return *in.PhoneNumber == "+923001234567"
	})).Return(&sns.PublishOutput{}, nil)

	n := NewWithClients(testNotifyConfig(false, true), nil, snsClient, logger.NewTestLogger(t))
	n.ApplicationDecision(context.Background(), testNotifyUser(), approvedApplication())

	snsClient.AssertExpectations(t)
}

func TestApplicationDecision_NoChannelsEnabled(t *testing.T) {
	sesClient := new(MockSESService)
	snsClient := new(MockSNSService)

	n := NewWithClients(testNotifyConfig(false, false), sesClient, snsClient, logger.NewTestLogger(t))
	n.ApplicationDecision(context.Background(), testNotifyUser(), approvedApplication())

	sesClient.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	snsClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestApplicationDecision_SkipsEmailWithoutAddress(t *testing.T) {
	sesClient := new(MockSESService)

	user := testNotifyUser()
	user.Email = ""

	n := NewWithClients(testNotifyConfig(true, false), sesClient, nil, logger.NewTestLogger(t))
	n.ApplicationDecision(context.Background(), user, approvedApplication())

	sesClient.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestApplicationDecision_DeliveryFailureIsSwallowed(t *testing.T) {
	sesClient := new(MockSESService)
	sesClient.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	n := NewWithClients(testNotifyConfig(true, false), sesClient, nil, logger.NewTestLogger(t))

	assert.NotPanics(t, func() {
		n.ApplicationDecision(context.Background(), testNotifyUser(), approvedApplication())
	})
	sesClient.AssertExpectations(t)
}

func TestLoanDisbursed_SendsBothChannels(t *testing.T) {
	sesClient := new(MockSESService)
	sesClient.On("SendEmail", mock.Anything, mock.Anything).Return(&ses.SendEmailOutput{}, nil)

	snsClient := new(MockSNSService)
	snsClient.On("Publish", mock.Anything, mock.Anything).Return(&sns.PublishOutput{}, nil)

	app := approvedApplication()
	app.Status = models.StatusDisbursed
	app.Disbursement = &models.Disbursement{MonthlyPayment: 3563}

	n := NewWithClients(testNotifyConfig(true, true), sesClient, snsClient, logger.NewTestLogger(t))
	n.LoanDisbursed(context.Background(), testNotifyUser(), app)

	sesClient.AssertExpectations(t)
	snsClient.AssertExpectations(t)
}

func TestSendOTP_PublishesWhenSMSEnabled(t *testing.T) {
	snsClient := new(MockSNSService)
	snsClient.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return *in.PhoneNumber == "+923001234567" && *in.Message == "Your QarzApp verification code is 123456"
	})).Return(&sns.PublishOutput{}, nil)

	n := NewWithClients(testNotifyConfig(false, true), nil, snsClient, logger.NewTestLogger(t))
	require.NoError(t, n.SendOTP(context.Background(), "+923001234567", "123456"))

	snsClient.AssertExpectations(t)
}

func TestSendOTP_NoOpWhenSMSDisabled(t *testing.T) {
	snsClient := new(MockSNSService)

	n := NewWithClients(testNotifyConfig(false, false), nil, snsClient, logger.NewTestLogger(t))
	require.NoError(t, n.SendOTP(context.Background(), "+923001234567", "123456"))

	snsClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSendOTP_PublishFailure(t *testing.T) {
	snsClient := new(MockSNSService)
	snsClient.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("sns unavailable"))

	n := NewWithClients(testNotifyConfig(false, true), nil, snsClient, logger.NewTestLogger(t))

	err := n.SendOTP(context.Background(), "+923001234567", "123456")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
}
