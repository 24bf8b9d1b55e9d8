// Package loan implements the loan application lifecycle: eligibility,
// auto-approval on submission, and amount selection with amortization.
package loan

import (
	"context"
	"errors"
	"time"

	"qarzapp/internal/common/config"
	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/common/logger"
	"qarzapp/internal/common/metrics"
	"qarzapp/internal/models"
	"qarzapp/internal/repository"

	"github.com/google/uuid"
)

// Hosted placeholders standing in for captured document photos; the store
// keeps reference URLs, never image data.
const (
	cnicPlaceholderURL   = "https://images.pexels.com/photos/7876538/pexels-photo-7876538.jpeg?auto=compress&cs=tinysrgb&w=400"
	selfiePlaceholderURL = "https://images.pexels.com/photos/91227/pexels-photo-91227.jpeg?auto=compress&cs=tinysrgb&w=400"
)

// Notifier delivers status notices to the applicant. Delivery is best
// effort; implementations log failures instead of returning them.
type Notifier interface {
	ApplicationDecision(ctx context.Context, user *models.AuthenticatedUser, app *models.LoanApplication)
	LoanDisbursed(ctx context.Context, user *models.AuthenticatedUser, app *models.LoanApplication)
}

// Engine is the decision layer over records supplied by the repository.
// It never touches the store directly. Every operation takes the signed-in
// user explicitly; there is no ambient session state.
type Engine struct {
	repo     *repository.ApplicationRepository
	cfg      config.LoanConfig
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

// NewEngine creates the lifecycle engine. notifier may be nil.
func NewEngine(repo *repository.ApplicationRepository, cfg config.LoanConfig, notifier Notifier, log logger.Logger) *Engine {
	return &Engine{
		repo:     repo,
		cfg:      cfg,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "loan-engine"}),
		now:      time.Now,
	}
}

// CanApply reports whether the user may submit a new application:
// no record or a rejected one, yes; a pending review, no; an approved
// offer, yes (no closure requirement in the demo policy); a disbursed
// loan, no until it is repaid.
func (e *Engine) CanApply(ctx context.Context, user *models.AuthenticatedUser) bool {
	if user == nil || user.UID == "" {
		return false
	}

	existing := e.repo.GetUserApplication(ctx, user.UID)
	if existing == nil {
		return true
	}

	switch existing.Status {
	case models.StatusUnderReview:
		return false
	case models.StatusRejected:
		return true
	case models.StatusApproved:
		return true
	case models.StatusDisbursed:
		return false
	default:
		return false
	}
}

// Submit validates the form input, applies the approval rule and persists
// the resulting record, replacing any prior record in the user's slot.
// Fails with PENDING_APPLICATION_EXISTS while a prior record is still
// under review.
func (e *Engine) Submit(ctx context.Context, user *models.AuthenticatedUser, input models.ApplicationInput) (*models.LoanApplication, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	income, err := validateInput(&input)
	if err != nil {
		metrics.OperationsFailed.WithLabelValues("submit", errorCode(err)).Inc()
		return nil, err
	}

	existing := e.repo.GetUserApplication(ctx, user.UID)
	if existing != nil && existing.Status == models.StatusUnderReview {
		metrics.OperationsFailed.WithLabelValues("submit", string(apperrors.ErrCodePendingApplicationExists)).Inc()
		return nil, apperrors.NewPendingApplicationError(user.UID)
	}

	submittedAt := e.now().UTC()
	app := &models.LoanApplication{
		ID:             uuid.New().String(),
		UserID:         user.UID,
		FullName:       input.FullName,
		NationalID:     input.NationalID,
		Address:        input.Address,
		EmploymentType: input.EmploymentType,
		MonthlyIncome:  income,
		Status:         models.StatusUnderReview,
		SubmittedAt:    submittedAt,
	}
	if input.CnicImage != "" {
		app.CnicImageURL = cnicPlaceholderURL
	}
	if input.SelfieImage != "" {
		app.SelfieImageURL = selfiePlaceholderURL
	}

	// Approval rule, applied before persistence.
	if income >= e.cfg.ApprovalThreshold {
		app.Status = models.StatusApproved
		app.Offer = &models.LoanOffer{
			LoanAmount:    float64(income) * e.cfg.OfferRatio,
			InterestRate:  e.cfg.InterestRate,
			RepaymentDate: submittedAt.Add(time.Duration(e.cfg.RepaymentDays) * 24 * time.Hour),
		}
	}

	if err := e.repo.SaveUserApplication(ctx, app); err != nil {
		metrics.OperationsFailed.WithLabelValues("submit", errorCode(err)).Inc()
		return nil, err
	}

	metrics.ApplicationsSubmitted.WithLabelValues(string(app.Status)).Inc()
	e.logger.Info("application submitted", map[string]interface{}{
		"applicationId": app.ID,
		"userId":        user.UID,
		"status":        app.Status,
	})

	if e.notifier != nil {
		e.notifier.ApplicationDecision(ctx, user, app)
	}
	return app, nil
}

// SelectAmount disburses the loan at the chosen amount. The stored record
// must be exactly in the approved state; the monthly payment is amortized
// over the configured term at the rate stored with the offer.
func (e *Engine) SelectAmount(ctx context.Context, user *models.AuthenticatedUser, amount float64) (*models.LoanApplication, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if amount <= 0 {
		metrics.OperationsFailed.WithLabelValues("select-amount", string(apperrors.ErrCodeValidationFailed)).Inc()
		return nil, apperrors.NewValidationError("loan amount must be positive")
	}

	app := e.repo.GetUserApplication(ctx, user.UID)
	if app == nil || app.Status != models.StatusApproved {
		metrics.OperationsFailed.WithLabelValues("select-amount", string(apperrors.ErrCodeNoApprovedApplication)).Inc()
		return nil, apperrors.NewNoApprovedApplicationError(user.UID)
	}

	if amount > app.Offer.LoanAmount {
		e.logger.Warn("selected amount exceeds offered amount", map[string]interface{}{
			"userId":   user.UID,
			"selected": amount,
			"offered":  app.Offer.LoanAmount,
		})
	}

	app.Offer.LoanAmount = amount
	app.Disbursement = &models.Disbursement{
		MonthlyPayment: MonthlyPayment(amount, app.Offer.InterestRate, e.cfg.TermMonths),
	}
	app.Status = models.StatusDisbursed

	if err := e.repo.SaveUserApplication(ctx, app); err != nil {
		metrics.OperationsFailed.WithLabelValues("select-amount", errorCode(err)).Inc()
		return nil, err
	}

	metrics.LoansDisbursed.Inc()
	e.logger.Info("loan disbursed", map[string]interface{}{
		"applicationId":  app.ID,
		"userId":         user.UID,
		"loanAmount":     amount,
		"monthlyPayment": app.Disbursement.MonthlyPayment,
	})

	if e.notifier != nil {
		e.notifier.LoanDisbursed(ctx, user, app)
	}
	return app, nil
}

// Status returns the user's current record, or nil when none exists.
func (e *Engine) Status(ctx context.Context, user *models.AuthenticatedUser) *models.LoanApplication {
	if user == nil || user.UID == "" {
		return nil
	}
	return e.repo.GetUserApplication(ctx, user.UID)
}

// AllApplications returns the latest record per user for the admin view.
func (e *Engine) AllApplications(ctx context.Context) []models.LoanApplication {
	return e.repo.ListApplications(ctx)
}

func requireUser(user *models.AuthenticatedUser) error {
	if user == nil || user.UID == "" {
		return apperrors.NewSessionNotFoundError()
	}
	return nil
}

func errorCode(err error) string {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}
