package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"qarzapp/internal/auth"
	"qarzapp/internal/common/config"
	"qarzapp/internal/common/database"
	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/common/logger"
	"qarzapp/internal/loan"
	"qarzapp/internal/models"
	"qarzapp/internal/notify"
	"qarzapp/internal/repository"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init key-value store with retry ---
	var store *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		store, err = database.NewRedis(cfg.Store)
		if err != nil {
			return err
		}
		return store.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "store connection")

	if err != nil {
		zapLog.Fatal("store failed after retries", zap.Error(err))
	}
	defer store.Close()
	zapLog.Info("key-value store connected")

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
		zapLog.Info("metrics server started", zap.String("address", cfg.Metrics.Address))
	}

	notifier, err := notify.New(ctx, cfg.Notifications, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	rdb := store.GetClient()
	sessions := auth.NewSessionManager(rdb, log)
	otpService := auth.NewOTPService(cfg.Auth, notifier, log)
	repo := repository.NewApplicationRepository(rdb, log)
	engine := loan.NewEngine(repo, cfg.Loan, notifier, log)

	if sessions.RestoreSession(ctx) {
		fmt.Printf("Welcome back, %s\n", sessions.CurrentUser().PhoneNumber)
	}

	runCLI(ctx, sessions, otpService, engine)
}

func runCLI(ctx context.Context, sessions *auth.SessionManager, otpService *auth.OTPService, engine *loan.Engine) {
	reader := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println()
		if !sessions.IsSignedIn() {
			fmt.Println("1) Sign in   q) Quit")
		} else {
			fmt.Println("1) Loan status   2) Apply for loan   3) Select loan amount   4) All applications   5) Sign out   q) Quit")
		}

		choice := prompt(reader, "> ")
		if !sessions.IsSignedIn() {
			switch choice {
			case "1":
				loginFlow(ctx, reader, sessions, otpService)
			case "q":
				return
			}
			continue
		}

		user := sessions.CurrentUser()
		switch choice {
		case "1":
			statusView(ctx, engine, user)
		case "2":
			applyFlow(ctx, reader, engine, user)
		case "3":
			selectAmountFlow(ctx, reader, engine, user)
		case "4":
			adminView(ctx, engine)
		case "5":
			if err := sessions.SignOut(ctx); err != nil {
				fmt.Println(apperrors.UserMessage(err))
			}
		case "q":
			return
		}
	}
}

func loginFlow(ctx context.Context, reader *bufio.Scanner, sessions *auth.SessionManager, otpService *auth.OTPService) {
	phone := prompt(reader, "Mobile number (e.g. +92 300 1234567): ")
	if err := otpService.SendCode(ctx, phone); err != nil {
		fmt.Println(apperrors.UserMessage(err))
		return
	}

	code := prompt(reader, "Enter 6-digit OTP: ")
	user, err := otpService.VerifyCode(ctx, phone, code)
	if err != nil {
		fmt.Println(apperrors.UserMessage(err))
		return
	}

	if err := sessions.SignIn(ctx, user); err != nil {
		fmt.Println(apperrors.UserMessage(err))
		return
	}
	fmt.Println("Login successful!")
}

func applyFlow(ctx context.Context, reader *bufio.Scanner, engine *loan.Engine, user *models.AuthenticatedUser) {
	if !engine.CanApply(ctx, user) {
		fmt.Println("You cannot apply for a new loan right now.")
		return
	}

	input := models.ApplicationInput{
		FullName:       prompt(reader, "Full name: "),
		NationalID:     prompt(reader, "National ID (CNIC): "),
		Address:        prompt(reader, "Address: "),
		EmploymentType: prompt(reader, "Employment type: "),
		MonthlyIncome:  prompt(reader, "Monthly income: "),
	}

	app, err := engine.Submit(ctx, user, input)
	if err != nil {
		fmt.Println(apperrors.UserMessage(err))
		return
	}
	fmt.Printf("Application submitted. Status: %s\n", app.Status)
	if app.Status == models.StatusApproved {
		fmt.Printf("Approved for up to %.0f at %.1f%% annual interest.\n", app.Offer.LoanAmount, app.Offer.InterestRate)
	}
}

func statusView(ctx context.Context, engine *loan.Engine, user *models.AuthenticatedUser) {
	app := engine.Status(ctx, user)
	if app == nil {
		fmt.Println("No application on file.")
		return
	}
	fmt.Printf("Application %s: %s (submitted %s)\n", app.ID, app.Status, app.SubmittedAt.Format("2006-01-02"))
	if app.Offer != nil {
		fmt.Printf("  Amount: %.0f  Rate: %.1f%%  Repayment due: %s\n",
			app.Offer.LoanAmount, app.Offer.InterestRate, app.Offer.RepaymentDate.Format("2006-01-02"))
	}
	if app.Disbursement != nil {
		fmt.Printf("  Monthly payment: %d\n", app.Disbursement.MonthlyPayment)
	}
}

func selectAmountFlow(ctx context.Context, reader *bufio.Scanner, engine *loan.Engine, user *models.AuthenticatedUser) {
	raw := prompt(reader, "Loan amount: ")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Println("Please enter a valid amount")
		return
	}

	app, err := engine.SelectAmount(ctx, user, amount)
	if err != nil {
		fmt.Println(apperrors.UserMessage(err))
		return
	}
	fmt.Printf("Loan disbursed. Monthly payment: %d\n", app.Disbursement.MonthlyPayment)
}

func adminView(ctx context.Context, engine *loan.Engine) {
	apps := engine.AllApplications(ctx)
	if len(apps) == 0 {
		fmt.Println("No applications.")
		return
	}
	for _, app := range apps {
		fmt.Printf("%-12s %-14s income=%-8d %s\n", app.UserID, app.Status, app.MonthlyIncome, app.FullName)
	}
}

func prompt(reader *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !reader.Scan() {
		return ""
	}
	return strings.TrimSpace(reader.Text())
}
