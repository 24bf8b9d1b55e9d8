package auth

import (
	"context"
	"regexp"
	"strings"

	"qarzapp/internal/common/config"
	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/common/logger"
	"qarzapp/internal/common/metrics"
	"qarzapp/internal/models"
)

var phoneDigitsRE = regexp.MustCompile(`^[0-9]{10,15}$`)

// SMSSender delivers an OTP code over SMS.
type SMSSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// OTPService implements the demo sign-in flow: a fixed code is issued for
// any valid phone number and any well-formed six-digit code verifies.
type OTPService struct {
	cfg    config.AuthConfig
	sender SMSSender
	logger logger.Logger
}

// NewOTPService creates the OTP flow. sender may be nil, in which case the
// code is only logged.
func NewOTPService(cfg config.AuthConfig, sender SMSSender, log logger.Logger) *OTPService {
	return &OTPService{
		cfg:    cfg,
		sender: sender,
		logger: log.WithFields(map[string]interface{}{"component": "otp-service"}),
	}
}

// SendCode validates the phone number and issues the demo code.
func (s *OTPService) SendCode(ctx context.Context, phone string) error {
	digits, ok := normalizePhone(phone)
	if !ok {
		return apperrors.NewInvalidPhoneNumberError(phone)
	}

	metrics.OTPCodesIssued.Inc()

	if s.sender != nil {
		if err := s.sender.SendOTP(ctx, "+"+digits, s.cfg.DemoOTPCode); err != nil {
			// Delivery is best effort; the demo code verifies regardless.
			s.logger.Warn("OTP SMS delivery failed", map[string]interface{}{
				"phone": maskPhone(digits),
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("OTP issued", map[string]interface{}{"phone": maskPhone(digits)})
	s.logger.Debug("demo OTP code", map[string]interface{}{"code": s.cfg.DemoOTPCode})
	return nil
}

// VerifyCode accepts any code of the configured length and returns the
// signed-in identity. The UID is derived from the phone digits so the same
// number always maps to the same per-user slot.
func (s *OTPService) VerifyCode(ctx context.Context, phone, code string) (*models.AuthenticatedUser, error) {
	digits, ok := normalizePhone(phone)
	if !ok {
		return nil, apperrors.NewInvalidPhoneNumberError(phone)
	}

	code = strings.TrimSpace(code)
	if len(code) != s.cfg.OTPLength || !isDigits(code) {
		return nil, apperrors.NewInvalidOTPCodeError()
	}

	return &models.AuthenticatedUser{
		UID:         "user_" + digits,
		PhoneNumber: "+" + digits,
	}, nil
}

// normalizePhone strips formatting and reports whether the remainder looks
// like a mobile number (10-15 digits, optional leading +).
func normalizePhone(phone string) (string, bool) {
	s := strings.TrimSpace(phone)
	s = strings.TrimPrefix(s, "+")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, s)

	if !phoneDigitsRE.MatchString(s) {
		return "", false
	}
	return s, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func maskPhone(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
